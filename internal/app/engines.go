package app

import (
	"time"

	"github.com/ityeti/herald/internal/audio"
	"github.com/ityeti/herald/internal/tts"
	"github.com/ityeti/herald/internal/tts/engines"
)

// BackendFactory builds a fresh backend of kind with the given rate and
// voice.
type BackendFactory func(kind tts.Kind, rate int, voice string) (tts.Backend, error)

// Engines bundles the collaborators shared by every backend the session
// creates.
type Engines struct {
	Speaker   tts.Speaker
	Generator tts.Generator
	Player    tts.Player
	Beeper    tts.Beeper

	ArtifactDir      string
	PrefetchCapacity int
	PollInterval     time.Duration
}

// Factory returns a BackendFactory that persists through settings.
func (e Engines) Factory(settings tts.SettingsWriter) BackendFactory {
	return func(kind tts.Kind, rate int, voice string) (tts.Backend, error) {
		return tts.New(kind, tts.Deps{
			Settings:         settings,
			Speaker:          e.Speaker,
			Generator:        e.Generator,
			Player:           e.Player,
			Beeper:           e.Beeper,
			ArtifactDir:      e.ArtifactDir,
			PrefetchCapacity: e.PrefetchCapacity,
			PollInterval:     e.PollInterval,
			Rate:             rate,
			Voice:            voice,
		})
	}
}

var (
	_ tts.Player    = (*audio.Player)(nil)
	_ tts.Beeper    = (*audio.Player)(nil)
	_ tts.Player    = (*audio.MockPlayer)(nil)
	_ tts.Beeper    = (*audio.MockPlayer)(nil)
	_ tts.Generator = (*engines.EdgeGenerator)(nil)
	_ tts.Speaker   = (*engines.SystemSpeaker)(nil)
)
