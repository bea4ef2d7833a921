// Package logging builds the structured logger shared by the console and the
// CLI. Output is JSON in a file so it never draws over the terminal UI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// FileName is the log file created inside the log directory.
const FileName = "datamate.log"

// Verbosity levels for logger.V.
const (
	DEBUG = 1
	TRACE = 2
)

// Options configure New.
type Options struct {
	// Dir receives FileName. It is created if missing.
	Dir string
	// Debug enables V(DEBUG) and V(TRACE) output.
	Debug bool
}

// New opens the log file and returns a logger writing to it. The returned
// close function flushes and closes the file.
func New(opts Options) (logr.Logger, func() error, error) {
	if opts.Dir == "" {
		return logr.Discard(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return logr.Logger{}, nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(opts.Dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return logr.Logger{}, nil, fmt.Errorf("open log file: %w", err)
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		level.SetLevel(zapcore.Level(-TRACE))
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level)
	zl := zap.New(core, zap.AddCaller())

	closeFn := func() error {
		_ = zl.Sync()
		return file.Close()
	}
	return zapr.NewLogger(zl), closeFn, nil
}

// NewTestLogger returns a logger that writes through t at TRACE, so output
// only shows for failing or verbose tests.
func NewTestLogger(t zaptest.TestingT) logr.Logger {
	zl := zaptest.NewLogger(t,
		zaptest.Level(zapcore.Level(-TRACE)),
		zaptest.WrapOptions(zap.AddCaller()),
	)
	return zapr.NewLogger(zl)
}
