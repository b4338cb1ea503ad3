// Package logging builds the per-run logger. Every entry goes both to a
// timestamped log file and to the console.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/logfmt"
	"github.com/apex/log/handlers/multi"
)

// StampLayout formats the run-start timestamp embedded in output file names.
const StampLayout = "20060102_150405"

// Options configures New.
type Options struct {
	// Dir is the directory the log file is created in.
	Dir string
	// Stamp is the run-start timestamp formatted with StampLayout.
	Stamp string
	// Level is one of debug, info, warn, error, fatal.
	Level string
	// Console receives the human-readable copy of every entry. Nil disables it.
	Console io.Writer
}

// FileName returns the log file name for a run started at stamp.
func FileName(stamp string) string {
	return "vpnspeed_" + stamp + ".log"
}

// New opens the log file for a run and returns a logger writing to it and to
// opts.Console. The returned closer closes the log file.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, FileName(opts.Stamp))
	fp, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handlers := []log.Handler{logfmt.New(fp)}
	if opts.Console != nil {
		handlers = append(handlers, cli.New(opts.Console))
	}

	logger := &log.Logger{
		Handler: multi.New(handlers...),
		Level:   level,
	}
	return logger, fp, nil
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return &log.Logger{
		Handler: discard.New(),
		Level:   log.DebugLevel,
	}
}

// NewConsole returns a logger writing human-readable entries to w only.
func NewConsole(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return &log.Logger{Handler: cli.New(w), Level: lvl}, nil
}
