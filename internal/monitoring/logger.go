// Package monitoring holds the process-wide diagnostic logger used by the
// ingest, network and serial packages.
package monitoring

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogFileOptions configures size-based rotation of a log file.
type LogFileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogWriter returns a writer that tees to stderr and, when opts.Path is
// set, to a rotating log file. The returned closer releases the file.
func NewLogWriter(opts LogFileOptions) (io.Writer, io.Closer) {
	if opts.Path == "" {
		return os.Stderr, nopCloser{}
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 50
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return io.MultiWriter(os.Stderr, lj), lj
}

// UseLogFile points the standard logger, and therefore the default Logf, at
// NewLogWriter(opts).
func UseLogFile(opts LogFileOptions) io.Closer {
	w, c := NewLogWriter(opts)
	log.SetOutput(w)
	return c
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
