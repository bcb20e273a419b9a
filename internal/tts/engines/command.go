package engines

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// commandRunner runs an external program and returns its combined output.
type commandRunner func(ctx context.Context, stdin, name string, args ...string) ([]byte, error)

// runCommand runs name to completion. When ctx ends first the process gets
// an interrupt, then a kill 100ms later.
func runCommand(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	// Pre-configure stdin so the child never races us for input.
	cmd.Stdin = strings.NewReader(stdin)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("unable to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil {
				return out.Bytes(), ctx.Err()
			}
			return out.Bytes(), fmt.Errorf("%s failed: %w, output: %s", name, err, strings.TrimSpace(out.String()))
		}
		return out.Bytes(), nil

	case <-ctx.Done():
		interrupt(cmd, done)
		return out.Bytes(), ctx.Err()
	}
}

// interrupt asks the process to exit and kills it if it does not.
func interrupt(cmd *exec.Cmd, done <-chan error) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(os.Interrupt)

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		_ = cmd.Process.Kill()
		<-done
	}
}
