package tts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind identifies one of the two backend variants.
type Kind int

const (
	// KindRemote renders audio through a networked neural voice service.
	KindRemote Kind = iota
	// KindLocal speaks through an offline system synthesizer.
	KindLocal
)

// String returns the engine name stored in settings.
func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "edge"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// ParseKind maps an engine name to a backend kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "edge", "remote", "online", "":
		return KindRemote, nil
	case "local", "offline", "system", "sapi", "pyttsx3":
		return KindLocal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// State is the lifecycle state of a backend.
type State int32

const (
	StateIdle State = iota
	StateGenerating
	StateSpeaking
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateSpeaking:
		return "speaking"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Active reports whether the backend is doing anything at all.
func (s State) Active() bool {
	return s != StateIdle
}

// Request is a single piece of text headed for a backend.
type Request struct {
	Raw  string
	Text string
	Key  string
}

// NewRequest builds a request for text that has already been normalized.
func NewRequest(raw, text string) Request {
	return Request{Raw: raw, Text: text, Key: CacheKey(text)}
}

// CacheKey derives a stable key for text.
func CacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:16])
}
