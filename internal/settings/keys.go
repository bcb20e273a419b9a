package settings

import (
	"time"

	"github.com/ityeti/herald/internal/tts"
)

// Keys stored in the settings file.
const (
	KeyEngine      = "engine"
	KeyVoice       = "voice"
	KeyRate        = "rate"
	KeyHotkeySpeak = "hotkey_speak"
	KeyHotkeyPause = "hotkey_pause"
	KeyLineDelay   = "line_delay"
	KeyReadMode    = "read_mode"
	KeyLogPreview  = "log_preview"
	KeyFilterCode  = "filter_code"
	KeyAutoCopy    = "auto_copy"
	KeyAutoRead    = "auto_read"
)

// Defaults returns a fresh copy of the default preferences.
func Defaults() map[string]any {
	return map[string]any{
		KeyEngine:      tts.KindRemote.String(),
		KeyVoice:       tts.DefaultRemoteVoice,
		KeyRate:        tts.DefaultRate,
		KeyHotkeySpeak: "alt+s",
		KeyHotkeyPause: "alt+p",
		KeyLineDelay:   0,
		KeyReadMode:    "lines",
		KeyLogPreview:  true,
		KeyFilterCode:  true,
		KeyAutoCopy:    true,
		KeyAutoRead:    false,
	}
}

// Settings is a typed view of the stored preferences.
type Settings struct {
	Engine      string
	Voice       string
	Rate        int
	HotkeySpeak string
	HotkeyPause string
	// LineDelay is stored in milliseconds.
	LineDelay  time.Duration
	ReadMode   string
	LogPreview bool
	FilterCode bool
	AutoCopy   bool
	AutoRead   bool
}
