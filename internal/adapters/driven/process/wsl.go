package process

import (
	"context"
	"strings"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// Ensure WSLRunner implements the interface.
var _ driven.CommandRunner = (*WSLRunner)(nil)

// WSLRunner runs Linux engine builds from a Windows host through wsl.exe.
// Commands become `wsl bash -c "cd <dir> && <cmd>"` with drive paths
// translated to their /mnt mount points.
type WSLRunner struct {
	next   driven.CommandRunner
	distro string
}

// NewWSLRunner wraps next, which executes the resulting wsl command.
// An empty distro uses the default distribution.
func NewWSLRunner(next driven.CommandRunner, distro string) *WSLRunner {
	return &WSLRunner{next: next, distro: distro}
}

// Run translates cmd and delegates to the wrapped runner.
func (r *WSLRunner) Run(ctx context.Context, cmd driven.Command) (driven.Outcome, error) {
	return r.next.Run(ctx, r.Wrap(cmd))
}

// Wrap returns the wsl invocation for cmd.
func (r *WSLRunner) Wrap(cmd driven.Command) driven.Command {
	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, quote(TranslatePath(cmd.Name)))
	for _, arg := range cmd.Args {
		parts = append(parts, quote(TranslatePath(arg)))
	}
	script := strings.Join(parts, " ")
	if cmd.Dir != "" {
		script = "cd " + quote(TranslatePath(cmd.Dir)) + " && " + script
	}

	var args []string
	if r.distro != "" {
		args = append(args, "-d", r.distro)
	}
	args = append(args, "bash", "-c", script)

	return driven.Command{
		Name:    "wsl",
		Args:    args,
		Stdin:   cmd.Stdin,
		Timeout: cmd.Timeout,
	}
}

// TranslatePath maps a Windows drive path (C:\data\x) to its WSL mount
// (/mnt/c/data/x). Other values only get their backslashes turned into
// slashes when they look like relative paths.
func TranslatePath(p string) string {
	if len(p) >= 2 && p[1] == ':' && isLetter(p[0]) {
		rest := strings.TrimLeft(strings.ReplaceAll(p[2:], `\`, "/"), "/")
		return "/mnt/" + strings.ToLower(p[:1]) + "/" + rest
	}
	if strings.Contains(p, `\`) && !strings.ContainsAny(p, " \t") {
		return strings.ReplaceAll(p, `\`, "/")
	}
	return p
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
