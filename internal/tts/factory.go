package tts

import (
	"fmt"
	"time"
)

// Deps holds everything needed to build either backend variant.
type Deps struct {
	Settings SettingsWriter

	// Speaker drives the local variant and the remote failure notice.
	Speaker Speaker

	// Generator and Player drive the remote variant.
	Generator Generator
	Player    Player
	Beeper    Beeper

	ArtifactDir      string
	PrefetchCapacity int
	PollInterval     time.Duration

	Rate  int
	Voice string
}

// New builds a fresh backend of the given kind. A new backend starts with
// an empty prefetch cache.
func New(kind Kind, d Deps) (Backend, error) {
	switch kind {
	case KindLocal:
		return NewLocal(LocalConfig{
			Speaker:  d.Speaker,
			Settings: d.Settings,
			Rate:     d.Rate,
			Voice:    d.Voice,
		})

	case KindRemote:
		var fallback Announcer
		if d.Speaker != nil {
			// The notice speaker never persists anything.
			local, err := NewLocal(LocalConfig{Speaker: d.Speaker, Rate: DefaultRate})
			if err != nil {
				return nil, fmt.Errorf("unable to create fallback speaker: %w", err)
			}
			fallback = local
		}
		return NewRemote(RemoteConfig{
			Generator:        d.Generator,
			Player:           d.Player,
			Fallback:         fallback,
			Beeper:           d.Beeper,
			Settings:         d.Settings,
			Dir:              d.ArtifactDir,
			Rate:             d.Rate,
			Voice:            d.Voice,
			PrefetchCapacity: d.PrefetchCapacity,
			PollInterval:     d.PollInterval,
		})

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEngine, kind)
	}
}

// KindForVoice reports which backend variant owns a voice name.
func KindForVoice(name string) (Kind, bool) {
	v, ok := LookupVoice(name)
	if !ok {
		return 0, false
	}
	return v.Kind, true
}
