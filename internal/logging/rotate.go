package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	rotatedExt   = ".log.zst"
	rotatedStamp = "20060102T150405"
)

// RotatingFile is an append-only log file that rotates itself once it
// grows past a size limit. It is safe for concurrent use.
type RotatingFile struct {
	path      string
	maxSize   int64
	retention time.Duration
	now       func() time.Time

	mu   sync.Mutex
	f    *os.File
	size int64
}

// OpenRotating opens path for appending and removes expired rotated files.
func OpenRotating(path string, maxSize int64, retention time.Duration) (*RotatingFile, error) {
	r := &RotatingFile{
		path:      path,
		maxSize:   maxSize,
		retention: retention,
		now:       time.Now,
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	r.prune()
	return r, nil
}

func (r *RotatingFile) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to stat log file: %w", err)
	}
	r.f = f
	r.size = info.Size()
	return nil
}

// Write appends p, rotating first when p would push the file past the
// limit.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return 0, os.ErrClosed
	}
	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		if err := r.rotate(); err != nil {
			// Keep logging into the oversized file rather than dropping lines.
			fmt.Fprintln(os.Stderr, "log rotation failed:", err)
		}
	}

	n, err := r.f.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate compresses the current file next to it and starts a new one.
func (r *RotatingFile) rotate() error {
	if err := r.f.Close(); err != nil {
		return err
	}
	r.f = nil

	dest := r.rotatedName(r.now())
	compressErr := compressFile(r.path, dest)
	if compressErr == nil {
		compressErr = os.Remove(r.path)
	}

	if err := r.open(); err != nil {
		return err
	}
	if compressErr != nil {
		return compressErr
	}
	r.prune()
	return nil
}

func (r *RotatingFile) rotatedName(t time.Time) string {
	base := strings.TrimSuffix(filepath.Base(r.path), filepath.Ext(r.path))
	return filepath.Join(filepath.Dir(r.path), base+"-"+t.Format(rotatedStamp)+rotatedExt)
}

// prune removes rotated files older than the retention period.
func (r *RotatingFile) prune() {
	base := strings.TrimSuffix(filepath.Base(r.path), filepath.Ext(r.path))
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(r.path), base+"-*"+rotatedExt))
	if err != nil {
		return
	}
	cutoff := r.now().Add(-r.retention)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		_ = os.Remove(m)
	}
}

// Size returns the current file size.
func (r *RotatingFile) Size() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Close closes the file. Further writes fail.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func compressFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}
