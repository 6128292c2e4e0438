// Package log builds the process-wide zap logger.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level and sinks of the logger.
type Options struct {
	Level string
	// File receives JSON lines when set.
	File    string
	Console bool
	Color   bool
	// Console overrides stdout as the console sink.
	ConsoleWriter io.Writer
}

// NewLogger builds a logger teeing a JSON file core and a console core and
// installs it as the zap global. The returned func flushes and closes the
// file.
func NewLogger(opts Options) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	pe.MessageKey = "message"
	pe.TimeKey = "time"

	var (
		cores []zapcore.Core
		file  *os.File
	)
	if opts.File != "" {
		file, err = os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(pe), zapcore.AddSync(file), level))
	}
	if opts.Console {
		ce := pe
		if opts.Color {
			ce.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			ce.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		out := opts.ConsoleWriter
		if out == nil {
			if opts.Color {
				out = colorable.NewColorableStdout()
			} else {
				out = colorable.NewNonColorable(os.Stdout)
			}
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ce), zapcore.AddSync(out), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	zap.ReplaceGlobals(logger)

	closeFn := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}
