package engines

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/ityeti/herald/internal/tts"
)

// CheckResult describes whether an engine can run on this machine.
type CheckResult struct {
	// Kind is the checked backend kind
	Kind tts.Kind

	// Available indicates the engine's executable was found
	Available bool

	// Error contains any check error
	Error error

	// Guidance provides setup instructions if the check failed
	Guidance string

	// Details contains additional check information
	Details map[string]string
}

// Check looks for the executable behind kind. It never synthesizes
// anything, so it is cheap enough to run at startup.
func Check(kind tts.Kind, edge EdgeConfig, system SystemConfig) *CheckResult {
	result := &CheckResult{
		Kind:    kind,
		Details: make(map[string]string),
	}

	switch kind {
	case tts.KindRemote:
		binary := edge.Binary
		if binary == "" {
			binary = DefaultEdgeBinary
		}
		result.Details["engine"] = "edge-tts (neural, online)"
		checkBinary(result, binary, edgeInstallGuidance)

	case tts.KindLocal:
		if runtime.GOOS == "windows" {
			result.Details["engine"] = "SAPI (offline)"
			result.Available = true
			return result
		}
		binary := system.Binary
		if binary == "" {
			binary = DefaultSystemBinary()
		}
		result.Details["engine"] = binary + " (offline)"
		checkBinary(result, binary, systemInstallGuidance)

	default:
		result.Error = fmt.Errorf("%w: %d", tts.ErrUnknownEngine, kind)
		result.Guidance = "Supported engines: edge, local"
	}

	return result
}

func checkBinary(result *CheckResult, binary string, guidance func() string) {
	path, err := exec.LookPath(binary)
	if err != nil {
		result.Error = fmt.Errorf("%s not found in PATH: %w", binary, err)
		result.Guidance = guidance()
		return
	}
	result.Details["binary_path"] = path
	result.Available = true
}

// edgeInstallGuidance provides instructions for installing edge-tts
func edgeInstallGuidance() string {
	return `edge-tts is not installed. To install:

1. Install via pip:
   pip install edge-tts

   # Or with pipx (recommended):
   pipx install edge-tts

2. Verify installation:
   edge-tts --list-voices

Note: edge-tts requires an internet connection. Use the offline engine
with --engine local or "engine": "local" in settings.json.`
}

// systemInstallGuidance provides instructions for installing espeak-ng
func systemInstallGuidance() string {
	return `No offline synthesizer found. To install:

# Ubuntu/Debian
sudo apt install espeak-ng

# Fedora
sudo dnf install espeak-ng

# Arch Linux
sudo pacman -S espeak-ng

macOS ships with "say" and Windows with SAPI; nothing to install there.`
}
