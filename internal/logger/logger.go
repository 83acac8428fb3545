// Package logger provides process-wide logging for the wrapshake CLI.
// Messages go through a zap core writing to stderr. Warnings and errors
// are always shown; debug output and section headers appear when verbose
// mode is enabled via the --verbose flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu        sync.RWMutex
	verbose   bool
	output    io.Writer = os.Stderr
	format              = FormatConsole
	baseLevel           = zapcore.InfoLevel
	level               = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base      *zap.Logger
)

func init() {
	base = build()
}

// build creates the zap logger from the package settings. Callers hold mu.
func build() *zap.Logger {
	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	if format == FormatJSON {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeCaller = nil
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(output), level)
	return zap.New(core)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(baseLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// SetFormat selects the "console" or "json" encoder.
func SetFormat(f string) error {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "" {
		f = FormatConsole
	}
	if f != FormatConsole && f != FormatJSON {
		return fmt.Errorf("unknown log format %q", f)
	}
	mu.Lock()
	defer mu.Unlock()
	format = f
	base = build()
	return nil
}

// SetLevel sets the minimum level ("debug", "info", "warn", "error").
// Verbose mode still forces debug.
func SetLevel(l string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(l)))); err != nil {
		return fmt.Errorf("unknown log level %q", l)
	}
	mu.Lock()
	defer mu.Unlock()
	baseLevel = lvl
	if !verbose {
		level.SetLevel(lvl)
	}
	return nil
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sugar()
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	sugar().Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	sugar().Debugf("=== %s ===", name)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	sugar().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	sugar().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	sugar().Errorf(format, args...)
}

// With returns a logger that adds key/value pairs to every entry.
func With(keysAndValues ...any) *zap.SugaredLogger {
	return sugar().With(keysAndValues...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = sugar().Sync()
}
