package platform

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultCopyTimeout bounds the copy keystroke helper.
const DefaultCopyTimeout = 2 * time.Second

// CopyTrigger sends the copy keystroke to the focused window so the current
// selection lands on the clipboard. It is best effort.
type CopyTrigger struct {
	goos    string
	timeout time.Duration
	run     runner
}

// NewCopyTrigger creates a trigger for the running OS.
func NewCopyTrigger() *CopyTrigger {
	return &CopyTrigger{goos: runtime.GOOS, timeout: DefaultCopyTimeout, run: run}
}

// Copy sends the keystroke.
func (c *CopyTrigger) Copy(ctx context.Context) error {
	name, args, ok := copyCommand(c.goos)
	if !ok {
		return errors.New("no copy helper for " + c.goos)
	}
	if c.goos != "windows" {
		if _, err := exec.LookPath(name); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.run(ctx, nil, name, args...); err != nil {
		return err
	}
	log.Debug("Sent copy keystroke", "helper", name)
	return nil
}

func copyCommand(goos string) (string, []string, bool) {
	switch goos {
	case "windows":
		return "powershell", []string{
			"-NoProfile", "-NonInteractive", "-Command",
			"Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait('^c')",
		}, true
	case "darwin":
		return "osascript", []string{
			"-e", `tell application "System Events" to keystroke "c" using command down`,
		}, true
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdotool", []string{"key", "--clearmodifiers", "ctrl+c"}, true
	default:
		return "", nil, false
	}
}
