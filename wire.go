package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ityeti/herald/internal/app"
	"github.com/ityeti/herald/internal/audio"
	"github.com/ityeti/herald/internal/platform"
	"github.com/ityeti/herald/internal/region"
	"github.com/ityeti/herald/internal/settings"
	"github.com/ityeti/herald/internal/tts"
	"github.com/ityeti/herald/internal/tts/engines"
)

// quietSpeaker stands in for the system synthesizer when --silent is set.
// It takes as long as reading the text would.
type quietSpeaker struct{}

func (quietSpeaker) Say(ctx context.Context, text string, _ tts.Voice, wpm int) error {
	d := time.Duration(len(strings.Fields(text))) * time.Minute / time.Duration(max(wpm, 1))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}
}

func edgeConfig() engines.EdgeConfig {
	return engines.EdgeConfig{
		Binary:            expandPath(viper.GetString("engines.edge.binary")),
		RequestsPerMinute: viper.GetInt("engines.edge.requests_per_minute"),
	}
}

func systemConfig() engines.SystemConfig {
	return engines.SystemConfig{Binary: expandPath(viper.GetString("engines.local.binary"))}
}

func artifactDir() string {
	if dir := expandPath(viper.GetString("audio.dir")); dir != "" {
		return dir
	}
	dir, err := gap.NewScope(gap.User, "herald").CacheDir()
	if err != nil {
		return tts.DefaultArtifactDir()
	}
	return dir
}

// newEngines builds the speech collaborators shared by every backend. The
// returned func releases the audio device.
func newEngines() (app.Engines, func(), error) {
	eng := app.Engines{
		Generator:        engines.NewEdgeGenerator(edgeConfig()),
		ArtifactDir:      artifactDir(),
		PrefetchCapacity: viper.GetInt("prefetch.capacity"),
	}

	detected := platform.DetectAudio()
	if silent || detected.Silent() {
		log.Info("Audio output disabled", "silent_flag", silent, "audio", detected)
		mock := audio.DefaultMockPlayer()
		eng.Player, eng.Beeper, eng.Speaker = mock, mock, quietSpeaker{}
		return eng, func() { _ = mock.Close() }, nil
	}

	player, err := audio.NewPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		return app.Engines{}, nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	eng.Player, eng.Beeper = player, player

	speaker, err := engines.NewSystemSpeaker(systemConfig())
	if err != nil {
		log.Warn("Offline voice unavailable", "err", err)
	} else {
		eng.Speaker = speaker
	}
	return eng, func() { _ = player.Close() }, nil
}

// newSession opens the settings, applies command line overrides and
// builds the session. Regions need the helper programs and are only set up
// when withRegion is true.
func newSession(cmd *cobra.Command, eng app.Engines, notifier app.Notifier, withRegion bool) (*app.Session, error) {
	path, err := settings.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("unable to locate settings: %w", err)
	}
	store, err := settings.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	log.Debug("Using settings", "path", store.Path())

	if err := applyOverrides(cmd, store); err != nil {
		return nil, err
	}

	prefs := store.Snapshot()
	if kind, err := tts.ParseKind(prefs.Engine); err == nil {
		if res := engines.Check(kind, edgeConfig(), systemConfig()); !res.Available {
			log.Warn("Speech engine not found", "engine", kind, "err", res.Error)
			if res.Guidance != "" {
				log.Warn(res.Guidance)
			}
		}
	}

	cfg := app.Config{
		Settings:      store,
		NewBackend:    eng.Factory(store),
		Clipboard:     platform.Clipboard{},
		Copier:        platform.NewCopyTrigger(),
		Recognizer:    newRecognizer(),
		Notifier:      notifier,
		WatchSettings: true,
	}
	if withRegion {
		w, err := newWatcher()
		if err != nil {
			log.Warn("Screen regions disabled", "err", err)
		} else {
			cfg.Watcher = w
		}
	}
	return app.New(cfg) //nolint:wrapcheck
}

func newRecognizer() *platform.Tesseract {
	return platform.NewTesseract(expandPath(viper.GetString("helpers.ocr")), viper.GetString("helpers.ocr_language"))
}

func newWatcher() (*region.Watcher, error) {
	cfg := region.Config{
		Capturer:        platform.Screen{},
		Recognizer:      newRecognizer(),
		PollInterval:    viper.GetDuration("region.poll_interval"),
		ChangeThreshold: viper.GetFloat64("region.change_threshold"),
		MinTextLength:   viper.GetInt("region.min_text_length"),
	}
	if picker := strings.Fields(viper.GetString("helpers.picker")); len(picker) > 0 {
		cfg.Picker = platform.NewHelperPicker(picker)
	}
	if border := strings.Fields(viper.GetString("helpers.border")); len(border) > 0 {
		cfg.Border = platform.NewHelperBorder(border)
	}
	return region.NewWatcher(cfg) //nolint:wrapcheck
}

// applyOverrides persists --engine, --voice and --rate so they stick like a
// hotkey change would.
func applyOverrides(cmd *cobra.Command, store *settings.Store) error {
	flags := cmd.Flags()
	if flags.Changed("voice") {
		v, _ := tts.LookupVoice(voiceName)
		if err := store.Set(settings.KeyVoice, v.Name); err != nil {
			return err //nolint:wrapcheck
		}
		if !flags.Changed("engine") {
			if err := store.Set(settings.KeyEngine, v.Kind.String()); err != nil {
				return err //nolint:wrapcheck
			}
		}
	}
	if flags.Changed("engine") {
		kind, _ := tts.ParseKind(engineName)
		if err := store.Set(settings.KeyEngine, kind.String()); err != nil {
			return err //nolint:wrapcheck
		}
		if k, ok := tts.KindForVoice(store.String(settings.KeyVoice)); !flags.Changed("voice") && (!ok || k != kind) {
			if err := store.Set(settings.KeyVoice, tts.DefaultVoice(kind).Name); err != nil {
				return err //nolint:wrapcheck
			}
		}
	}
	if flags.Changed("rate") {
		if err := store.Set(settings.KeyRate, rate); err != nil {
			return err //nolint:wrapcheck
		}
	}
	return nil
}
