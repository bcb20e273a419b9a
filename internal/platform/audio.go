package platform

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// Audio describes the sound output available on this machine.
type Audio struct {
	OS        string
	Subsystem string
	HasDevice bool
	IsCI      bool
}

// DetectAudio probes for a sound server and output devices.
func DetectAudio() Audio {
	a := Audio{OS: runtime.GOOS, IsCI: IsCI()}

	switch a.OS {
	case "linux":
		a.Subsystem = linuxSubsystem()
		a.HasDevice = linuxHasDevice()
	case "darwin":
		a.Subsystem = "coreaudio"
		a.HasDevice = true
	case "windows":
		a.Subsystem = "wasapi"
		a.HasDevice = windowsAudioRunning()
	default:
		a.Subsystem = "none"
	}

	log.Debug("Audio detected", "os", a.OS, "subsystem", a.Subsystem, "device", a.HasDevice, "ci", a.IsCI)
	return a
}

// Silent reports whether real playback should be replaced by a mock
// player.
func (a Audio) Silent() bool {
	return a.IsCI || a.Subsystem == "none" || !a.HasDevice
}

func (a Audio) String() string {
	return fmt.Sprintf("%s/%s device=%v ci=%v", a.OS, a.Subsystem, a.HasDevice, a.IsCI)
}

// IsCI reports whether we run under a CI system.
func IsCI() bool {
	for _, v := range []string{
		"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI",
		"JENKINS_URL", "TRAVIS", "CIRCLECI", "BUILDKITE", "DRONE",
	} {
		if val := os.Getenv(v); val != "" && val != "false" {
			return true
		}
	}
	return false
}

func linuxSubsystem() string {
	if _, err := exec.LookPath("pactl"); err == nil {
		if out, err := exec.Command("pactl", "info").Output(); err == nil &&
			strings.Contains(string(out), "Server Name") {
			return "pulseaudio"
		}
	}
	if _, err := os.Stat("/proc/asound"); err == nil {
		return "alsa"
	}
	return "none"
}

func linuxHasDevice() bool {
	if entries, err := os.ReadDir("/dev/snd"); err == nil {
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "pcm") {
				return true
			}
		}
	}
	if b, err := os.ReadFile("/proc/asound/cards"); err == nil &&
		len(b) > 0 && !strings.Contains(string(b), "no soundcards") {
		return true
	}
	return false
}

func windowsAudioRunning() bool {
	out, err := exec.Command("sc", "query", "AudioSrv").Output()
	if err != nil {
		// Assume a device when the service manager cannot be asked.
		return true
	}
	return strings.Contains(string(out), "RUNNING")
}
