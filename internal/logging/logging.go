// Package logging configures the process logger and keeps its log file
// bounded: the file is rotated at a size limit, rotated files are
// compressed with zstd, and old ones are removed.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Defaults for Options.
const (
	FileName         = "herald.log"
	DefaultMaxSize   = 10 << 20
	DefaultRetention = 7 * 24 * time.Hour
)

// Options configures Setup.
type Options struct {
	// Dir holds the log file and its rotated copies.
	Dir   string
	Level log.Level
	// Stderr also writes log lines to standard error.
	Stderr    bool
	MaxSize   int64
	Retention time.Duration
}

// Setup points the default logger at a rotating file in opts.Dir. The
// returned closer flushes and closes the file.
func Setup(opts Options) (io.Closer, error) {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	f, err := OpenRotating(filepath.Join(opts.Dir, FileName), opts.MaxSize, opts.Retention)
	if err != nil {
		return nil, err
	}

	var w io.Writer = f
	if opts.Stderr {
		w = io.MultiWriter(f, os.Stderr)
	}

	log.SetOutput(w)
	log.SetLevel(opts.Level)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.RFC3339)
	log.Debug("Logging to file", "path", f.path, "size", humanize.Bytes(uint64(f.Size()))) //nolint:gosec
	return f, nil
}
