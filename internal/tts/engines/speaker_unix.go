//go:build unix

package engines

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ityeti/herald/internal/tts"
)

// SystemSpeaker speaks through espeak-ng or macOS say. Pause and resume
// stop and continue the synthesizer process.
type SystemSpeaker struct {
	binary string

	mu   sync.Mutex
	proc *os.Process
}

// NewSystemSpeaker creates the offline speaker for this platform.
func NewSystemSpeaker(config SystemConfig) (*SystemSpeaker, error) {
	if config.Binary == "" {
		config.Binary = DefaultSystemBinary()
	}
	return &SystemSpeaker{binary: config.Binary}, nil
}

// Say implements tts.Speaker. It blocks until the text has been spoken or
// ctx ends.
func (s *SystemSpeaker) Say(ctx context.Context, text string, voice tts.Voice, wpm int) error {
	cmd := exec.CommandContext(ctx, s.binary, systemArgs(s.binary, voice, wpm)...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start %s: %w", s.binary, err)
	}

	s.mu.Lock()
	s.proc = cmd.Process
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.proc = nil
		s.mu.Unlock()
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("%s failed: %w, stderr: %s", s.binary, err, strings.TrimSpace(stderr.String()))
		}
		return ctx.Err()

	case <-ctx.Done():
		// A stopped process ignores the interrupt until continued.
		_ = cmd.Process.Signal(unix.SIGCONT)
		interrupt(cmd, done)
		return ctx.Err()
	}
}

// Pause implements tts.Pauser.
func (s *SystemSpeaker) Pause() error {
	return s.signal(unix.SIGSTOP)
}

// Resume implements tts.Pauser.
func (s *SystemSpeaker) Resume() error {
	return s.signal(unix.SIGCONT)
}

func (s *SystemSpeaker) signal(sig unix.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return nil
	}
	return unix.Kill(s.proc.Pid, sig)
}

var (
	_ tts.Speaker = (*SystemSpeaker)(nil)
	_ tts.Pauser  = (*SystemSpeaker)(nil)
)
