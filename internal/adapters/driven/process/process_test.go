package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestLocalRunner_Success(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	out, err := NewLocalRunner().Run(context.Background(), driven.Command{
		Name:  "sh",
		Args:  []string{"-c", "pwd; cat"},
		Dir:   dir,
		Stdin: "q\n",
	})

	require.NoError(t, err)
	assert.Equal(t, 0, out.ExitCode)
	assert.Contains(t, out.Stdout, "q")
}

func TestLocalRunner_NonZeroExit(t *testing.T) {
	requireShell(t)

	out, err := NewLocalRunner().Run(context.Background(), driven.Command{
		Name: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEngineFailed)
	assert.True(t, domain.IsEngineError(err))
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, err.Error(), "broken")
}

func TestLocalRunner_Timeout(t *testing.T) {
	requireShell(t)

	_, err := NewLocalRunner().Run(context.Background(), driven.Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 50 * time.Millisecond,
	})

	assert.ErrorIs(t, err, domain.ErrEngineTimeout)
}

func TestLocalRunner_MissingExecutable(t *testing.T) {
	_, err := NewLocalRunner().Run(context.Background(), driven.Command{
		Name: "wrapshake-no-such-engine",
	})

	assert.ErrorIs(t, err, domain.ErrEngineFailed)
}

func TestLocalRunner_Cancelled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalRunner().Run(ctx, driven.Command{Name: "sh", Args: []string{"-c", "true"}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrEngineTimeout))
}

func TestTranslatePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`C:\Project\data\receptor.pdbqt`, "/mnt/c/Project/data/receptor.pdbqt"},
		{`d:/runs/out`, "/mnt/d/runs/out"},
		{`output\autodock`, "output/autodock"},
		{"/usr/bin/autodock4", "/usr/bin/autodock4"},
		{"-p", "-p"},
		{"0.375", "0.375"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslatePath(tt.in))
		})
	}
}

func TestWSLRunner_Wrap(t *testing.T) {
	r := NewWSLRunner(NewDryRunRunner(nil), "")

	cmd := r.Wrap(driven.Command{
		Name:    "autodock4",
		Args:    []string{"-p", "wrapper_7.dpf", "-l", "wrapper_7.dlg"},
		Dir:     `C:\work\out dir`,
		Stdin:   "0\n",
		Timeout: time.Minute,
	})

	assert.Equal(t, "wsl", cmd.Name)
	assert.Equal(t, []string{"bash", "-c",
		"cd '/mnt/c/work/out dir' && autodock4 -p wrapper_7.dpf -l wrapper_7.dlg"}, cmd.Args)
	assert.Empty(t, cmd.Dir)
	assert.Equal(t, "0\n", cmd.Stdin)
	assert.Equal(t, time.Minute, cmd.Timeout)
}

func TestWSLRunner_Distro(t *testing.T) {
	inner := NewDryRunRunner(nil)
	r := NewWSLRunner(inner, "Ubuntu")

	_, err := r.Run(context.Background(), driven.Command{Name: "gmx", Args: []string{"mdrun"}})
	require.NoError(t, err)

	planned := inner.Planned()
	require.Len(t, planned, 1)
	assert.Equal(t, []string{"-d", "Ubuntu", "bash", "-c", "gmx mdrun"}, planned[0].Args)
}

func TestDryRunRunner(t *testing.T) {
	var buf bytes.Buffer
	r := NewDryRunRunner(&buf)

	out, err := r.Run(context.Background(), driven.Command{
		Name:  "gmx",
		Args:  []string{"make_ndx", "-f", "npt.gro", "-o", "index.ndx"},
		Dir:   "gmx",
		Stdin: "q\n",
	})

	require.NoError(t, err)
	assert.Equal(t, driven.Outcome{}, out)
	assert.Equal(t, "[dry-run] (cd gmx) gmx make_ndx -f npt.gro -o index.ndx <<< \"q\"\n", buf.String())
	assert.Len(t, r.Planned(), 1)
}

func TestDescribe_Quotes(t *testing.T) {
	got := Describe(driven.Command{Name: "vina", Args: []string{"--out", "my pose.pdbqt", "it's"}})

	assert.Equal(t, `vina --out 'my pose.pdbqt' 'it'\''s'`, got)
}

type recordingMetrics struct {
	engines []string
	errs    []error
}

func (m *recordingMetrics) PoseAccepted() {}
func (m *recordingMetrics) PoseRejected() {}
func (m *recordingMetrics) AtomsMasked(int) {}
func (m *recordingMetrics) ResiduesEvicted(int) {}
func (m *recordingMetrics) EngineInvocation(engine string, _ time.Duration, err error) {
	m.engines = append(m.engines, engine)
	m.errs = append(m.errs, err)
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, driven.Command) (driven.Outcome, error) {
	return driven.Outcome{ExitCode: 1}, domain.ErrEngineFailed
}

func TestMeteredRunner(t *testing.T) {
	m := &recordingMetrics{}
	ctx := context.Background()

	ok := NewMeteredRunner(NewDryRunRunner(nil), m)
	_, err := ok.Run(ctx, driven.Command{Name: "/opt/gmx/bin/gmx", Args: []string{"grompp"}})
	require.NoError(t, err)

	bad := NewMeteredRunner(failingRunner{}, m)
	_, err = bad.Run(ctx, driven.Command{Name: `C:\tools\autodock4.exe`})
	require.ErrorIs(t, err, domain.ErrEngineFailed)

	assert.Equal(t, []string{"gmx_grompp", "autodock4"}, m.engines)
	assert.NoError(t, m.errs[0])
	assert.ErrorIs(t, m.errs[1], domain.ErrEngineFailed)
}

func TestNewMeteredRunner_NilMetrics(t *testing.T) {
	inner := NewDryRunRunner(nil)

	assert.Same(t, inner, NewMeteredRunner(inner, nil))
}
