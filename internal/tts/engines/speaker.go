package engines

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/ityeti/herald/internal/tts"
)

// SystemConfig configures the offline speaker.
type SystemConfig struct {
	// Binary overrides the synthesizer executable. Ignored on Windows,
	// where SAPI is used directly.
	Binary string
}

// DefaultSystemBinary returns the synthesizer used on this platform.
func DefaultSystemBinary() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak-ng"
}

// systemVoices maps offline voice names onto the synthesizer's own voices.
var systemVoices = map[string]struct{ espeak, say string }{
	"zira":  {espeak: "en-us+f3", say: "Samantha"},
	"david": {espeak: "en-us+m3", say: "Alex"},
}

func isSay(binary string) bool {
	return strings.TrimSuffix(filepath.Base(binary), filepath.Ext(binary)) == "say"
}

// systemArgs builds the synthesizer command line. Text is always fed on
// stdin.
func systemArgs(binary string, voice tts.Voice, wpm int) []string {
	names, ok := systemVoices[voice.Name]
	if !ok {
		names = systemVoices[tts.DefaultLocalVoice]
	}

	if isSay(binary) {
		return []string{"-v", names.say, "-r", strconv.Itoa(wpm), "-f", "-"}
	}
	return []string{"-v", names.espeak, "-s", strconv.Itoa(wpm), "--stdin"}
}
