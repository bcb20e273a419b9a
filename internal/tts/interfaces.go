package tts

import "context"

// Backend is a speech engine session. Exactly one utterance at a time owns
// the engine; Speak replaces whatever was playing. All methods are safe for
// concurrent use and none of them block on synthesis or playback.
type Backend interface {
	// Kind reports which variant this backend is.
	Kind() Kind

	// Speak starts producing and playing text in the background.
	// Empty or whitespace-only text is ignored.
	Speak(text string)

	// Stop cancels generation and playback and returns to Idle. It is
	// always legal and idempotent.
	Stop()

	// Pause and Resume only act while Speaking and Paused respectively.
	Pause()
	Resume()

	// Rate returns the speech rate in words per minute.
	Rate() int

	// SetRate clamps wpm to the backend range and persists it.
	SetRate(wpm int) error

	// Voice returns the short name of the current voice.
	Voice() string

	// SetVoice switches to a voice from the backend's table and persists it.
	SetVoice(name string) error

	// Voices lists the voices this backend accepts.
	Voices() []Voice

	State() State
	IsSpeaking() bool
	IsPaused() bool
	IsGenerating() bool

	// Close stops speech and releases cached audio.
	Close() error
}

// Prefetcher is implemented by backends that can render audio ahead of need.
type Prefetcher interface {
	// Prefetch renders text in the background so a later Speak of the same
	// text can skip generation. Failures are logged and never surfaced.
	Prefetch(text string)

	// ClearPrefetch drops every prefetched artifact.
	ClearPrefetch()

	// PrefetchLen reports how many artifacts are ready.
	PrefetchLen() int
}

// Announcer speaks a short notice synchronously, outside the normal
// utterance lifecycle.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// Generator renders text to an audio file. The rate is the service's
// percentage modifier such as "+25%".
type Generator interface {
	Generate(ctx context.Context, text, voiceID, rate, outPath string) error
}

// Speaker synthesizes and plays text in a single blocking call. It must
// return promptly once ctx is canceled.
type Speaker interface {
	Say(ctx context.Context, text string, voice Voice, wpm int) error
}

// Pauser is implemented by speakers that can suspend output mid-utterance.
type Pauser interface {
	Pause() error
	Resume() error
}

// Player plays audio files. The remote backend serializes every call
// except Load, which may decode while Stop or Unload run concurrently.
type Player interface {
	Load(path string) error
	Play() error
	Pause() error
	Resume() error
	Stop() error
	Unload() error

	// Busy reports whether loaded audio is still playing or paused.
	Busy() bool
}

// Beeper emits an audible alert when nothing else can be heard.
type Beeper interface {
	Beep() error
}

// SettingsWriter persists a single preference synchronously.
type SettingsWriter interface {
	Set(key string, value any) error
}
