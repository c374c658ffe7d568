// Package logging builds the zap logger used for operator diagnostics.
//
// Diagnostics never go to stdout: stdout carries agent-facing output
// (formatted context, hook envelopes, MCP frames). Warnings such as branch
// detection fallbacks or generation failures are written to stderr and,
// for long-running hosts, to a log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Debug lowers the level from warn to debug.
	Debug bool
	// File, when set, receives JSON logs in addition to the console writer.
	File string
	// Console receives human-readable logs. Defaults to os.Stderr.
	Console io.Writer
}

// New builds a logger from opts. The returned func flushes the logger and
// closes the log file; call it once the logger is no longer used.
func New(opts Options) (*zap.Logger, func() error, error) {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if opts.Debug || os.Getenv("AMBIENT_DEBUG") == "1" {
		level.SetLevel(zapcore.DebugLevel)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.TimeKey = ""
	consoleCfg.CallerKey = ""
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(console), level),
	}

	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		var err error
		// #nosec G304 -- log path comes from the config directory
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeFn := func() error {
		// Syncing a terminal stderr fails on some platforms; only the file matters.
		_ = logger.Sync()
		if file == nil {
			return nil
		}
		return file.Close()
	}
	return logger, closeFn, nil
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
