package tts

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Local speaks through an offline synthesizer. Synthesis and playback are
// one blocking call, so there is no Generating phase.
//
// Pause is best effort: the state flips to Paused and the speaker is asked
// to suspend if it can, but many system engines keep talking regardless.
type Local struct {
	speaker  Speaker
	settings SettingsWriter

	life lifecycle

	mu    sync.RWMutex
	rate  int
	voice Voice
}

// LocalConfig configures a Local backend.
type LocalConfig struct {
	Speaker  Speaker
	Settings SettingsWriter
	Rate     int
	Voice    string
}

// NewLocal creates a local backend. Unknown voices fall back to the default
// offline voice.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.Speaker == nil {
		return nil, ErrNoSpeaker
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultRate
	}

	voice, ok := lookupVoiceOf(KindLocal, cfg.Voice)
	if !ok {
		voice = DefaultVoice(KindLocal)
	}

	return &Local{
		speaker:  cfg.Speaker,
		settings: cfg.Settings,
		rate:     ClampRate(KindLocal, cfg.Rate),
		voice:    voice,
	}, nil
}

// Kind implements Backend.
func (l *Local) Kind() Kind { return KindLocal }

// Speak implements Backend.
func (l *Local) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	l.mu.RLock()
	voice, rate := l.voice, l.rate
	l.mu.RUnlock()

	u := l.life.begin(StateSpeaking)
	go l.run(u, text, voice, rate)
}

func (l *Local) run(u utterance, text string, voice Voice, rate int) {
	defer close(u.done)
	defer l.life.finish(u.seq)

	u.waitPrevious()
	if u.ctx.Err() != nil {
		return
	}

	if err := l.speaker.Say(u.ctx, text, voice, rate); err != nil && u.ctx.Err() == nil {
		log.Error("Local speech failed", "voice", voice.Name, "err", err)
	}
}

// Announce speaks text synchronously without touching the backend state.
func (l *Local) Announce(ctx context.Context, text string) error {
	l.mu.RLock()
	voice, rate := l.voice, l.rate
	l.mu.RUnlock()
	return l.speaker.Say(ctx, text, voice, rate)
}

// Stop implements Backend.
func (l *Local) Stop() {
	l.life.halt()
}

// Pause implements Backend.
func (l *Local) Pause() {
	if !l.life.swap(StateSpeaking, StatePaused) {
		return
	}
	if p, ok := l.speaker.(Pauser); ok {
		if err := p.Pause(); err != nil {
			log.Debug("Local speaker could not pause", "err", err)
		}
	}
}

// Resume implements Backend.
func (l *Local) Resume() {
	if !l.life.swap(StatePaused, StateSpeaking) {
		return
	}
	if p, ok := l.speaker.(Pauser); ok {
		if err := p.Resume(); err != nil {
			log.Debug("Local speaker could not resume", "err", err)
		}
	}
}

// Rate implements Backend.
func (l *Local) Rate() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rate
}

// SetRate implements Backend.
func (l *Local) SetRate(wpm int) error {
	rate := ClampRate(KindLocal, wpm)

	l.mu.Lock()
	l.rate = rate
	l.mu.Unlock()

	return persist(l.settings, "rate", rate)
}

// Voice implements Backend.
func (l *Local) Voice() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.voice.Name
}

// SetVoice implements Backend. Names outside the offline table fall back to
// the default offline voice.
func (l *Local) SetVoice(name string) error {
	voice, ok := lookupVoiceOf(KindLocal, name)
	if !ok {
		voice = DefaultVoice(KindLocal)
		log.Warn("Unknown offline voice, using default", "voice", name, "default", voice.Name)
	}

	l.mu.Lock()
	l.voice = voice
	l.mu.Unlock()

	return persist(l.settings, "voice", voice.Name)
}

// Voices implements Backend.
func (l *Local) Voices() []Voice { return Voices(KindLocal) }

// State implements Backend.
func (l *Local) State() State { return l.life.get() }

// IsSpeaking implements Backend.
func (l *Local) IsSpeaking() bool { return l.life.get() == StateSpeaking }

// IsPaused implements Backend.
func (l *Local) IsPaused() bool { return l.life.get() == StatePaused }

// IsGenerating always reports false; local synthesis has no separate phase.
func (l *Local) IsGenerating() bool { return false }

// Close implements Backend.
func (l *Local) Close() error {
	l.Stop()
	if !l.life.drain(time.Second) {
		log.Warn("Local speech worker did not exit in time")
	}
	return nil
}

func persist(w SettingsWriter, key string, value any) error {
	if w == nil {
		return nil
	}
	if err := w.Set(key, value); err != nil {
		return NewSpeechError(ErrorCodeSettings, "unable to save "+key, err)
	}
	return nil
}

var (
	_ Backend   = (*Local)(nil)
	_ Announcer = (*Local)(nil)
)
