package platform

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ityeti/herald/internal/region"
)

// borderStopWait is how long the helper gets to exit after "q".
const borderStopWait = time.Second

// HelperBorder runs a long-lived helper that outlines the region. The
// helper receives x1 y1 x2 y2 as arguments and exits when it reads 'q' on
// stdin.
type HelperBorder struct {
	command []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHelperBorder creates a border for command and its arguments.
func NewHelperBorder(command []string) *HelperBorder {
	return &HelperBorder{command: command}
}

// Start launches the helper for r, replacing any running one.
func (b *HelperBorder) Start(r region.Rect) error {
	if len(b.command) == 0 {
		return errors.New("no border helper configured")
	}
	_ = b.Stop()

	args := append(append([]string(nil), b.command[1:]...),
		strconv.Itoa(r.X1), strconv.Itoa(r.Y1), strconv.Itoa(r.X2), strconv.Itoa(r.Y2))

	ctx, cancel := context.WithCancel(context.Background())
	cmd := command(ctx, b.command[0], args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Debug("Border helper exited", "err", err)
		}
	}()

	b.mu.Lock()
	b.cmd, b.stdin, b.cancel, b.done = cmd, stdin, cancel, done
	b.mu.Unlock()

	log.Debug("Border helper started", "pid", cmd.Process.Pid, "region", r)
	return nil
}

// Stop asks the helper to quit and terminates it if it has not exited
// within a second.
func (b *HelperBorder) Stop() error {
	b.mu.Lock()
	cmd, stdin, cancel, done := b.cmd, b.stdin, b.cancel, b.done
	b.cmd, b.stdin, b.cancel, b.done = nil, nil, nil, nil
	b.mu.Unlock()

	if cmd == nil {
		return nil
	}
	defer cancel()

	_, _ = io.WriteString(stdin, "q")
	_ = stdin.Close()

	select {
	case <-done:
	case <-time.After(borderStopWait):
		cancel()
		<-done
	}
	log.Debug("Border helper stopped")
	return nil
}

// Running reports whether a helper process is alive.
func (b *HelperBorder) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done == nil {
		return false
	}
	select {
	case <-b.done:
		return false
	default:
		return true
	}
}

var _ region.Border = (*HelperBorder)(nil)
