package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultPollInterval is how often a worker checks whether playback ended.
	DefaultPollInterval = 50 * time.Millisecond

	generationFailedNotice = "Speech generation failed"
	playbackFailedNotice   = "Audio playback failed"
)

// Remote renders text to an audio file with a networked voice service and
// plays the file locally. Rendering for upcoming lines can be started ahead
// of time with Prefetch.
type Remote struct {
	gen      Generator
	player   Player
	playerMu sync.Mutex // the player is not safe for concurrent use

	fallback Announcer
	beeper   Beeper
	settings SettingsWriter

	dir          string
	pollInterval time.Duration

	life lifecycle

	cache *PrefetchCache

	mu             sync.Mutex
	rate           int
	voice          Voice
	inflight       map[string]struct{}
	prefetchCtx    context.Context
	prefetchCancel context.CancelFunc
	prefetchWG     sync.WaitGroup
	closed         bool
}

// RemoteConfig configures a Remote backend.
type RemoteConfig struct {
	Generator Generator
	Player    Player

	// Fallback announces failures. When it fails too, Beeper is used.
	Fallback Announcer
	Beeper   Beeper

	Settings SettingsWriter

	// Dir holds generated artifacts. Leftovers are swept on creation.
	Dir string

	Rate             int
	Voice            string
	PrefetchCapacity int
	PollInterval     time.Duration
}

// NewRemote creates a remote backend and sweeps stale artifacts from Dir.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("%w: no generator", ErrGenerationFailed)
	}
	if cfg.Player == nil {
		return nil, ErrNoPlayer
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultArtifactDir()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create artifact directory: %w", err)
	}
	if _, err := SweepArtifacts(cfg.Dir); err != nil {
		log.Warn("Could not sweep stale artifacts", "dir", cfg.Dir, "err", err)
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	voice, ok := lookupVoiceOf(KindRemote, cfg.Voice)
	if !ok {
		voice = DefaultVoice(KindRemote)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Remote{
		gen:            cfg.Generator,
		player:         cfg.Player,
		fallback:       cfg.Fallback,
		beeper:         cfg.Beeper,
		settings:       cfg.Settings,
		dir:            cfg.Dir,
		pollInterval:   cfg.PollInterval,
		cache:          NewPrefetchCache(cfg.PrefetchCapacity),
		rate:           ClampRate(KindRemote, cfg.Rate),
		voice:          voice,
		inflight:       make(map[string]struct{}),
		prefetchCtx:    ctx,
		prefetchCancel: cancel,
	}, nil
}

// Kind implements Backend.
func (r *Remote) Kind() Kind { return KindRemote }

// params snapshots the voice and rate modifier for a generation.
func (r *Remote) params() (voiceID, rate string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.voice.ID, FormatRate(RatePercent(r.rate))
}

// Speak implements Backend. The previous utterance is canceled and its
// player released before the new one plays.
func (r *Remote) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		log.Warn("Speak on closed backend ignored")
		return
	}

	voiceID, rate := r.params()
	u := r.life.begin(StateGenerating)
	r.stopPlayer()
	go r.run(u, NewRequest(text, text), voiceID, rate)
}

func (r *Remote) run(u utterance, req Request, voiceID, rate string) {
	defer close(u.done)
	defer r.life.finish(u.seq)

	u.waitPrevious()
	if u.ctx.Err() != nil {
		return
	}

	path, ok := r.cache.Take(req.Key)
	if ok && !artifactReady(path) {
		log.Debug("Prefetched audio missing, generating again", "key", req.Key)
		removeArtifact(path)
		ok = false
	}

	if !ok {
		path = newArtifactPath(r.dir)
		if err := r.generate(u.ctx, req.Text, voiceID, rate, path); err != nil {
			removeArtifact(path)
			if u.ctx.Err() != nil {
				return
			}
			log.Error("Speech generation failed", "err", err)
			r.notifyFailure(u, generationFailedNotice)
			return
		}
	}
	defer removeArtifact(path)

	if err := r.startPlayback(u, path); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("Audio playback failed", "err", err)
		r.notifyFailure(u, playbackFailedNotice)
		return
	}

	r.awaitPlayback(u)
}

// generate renders text into path and verifies the result.
func (r *Remote) generate(ctx context.Context, text, voiceID, rate, path string) error {
	if err := r.gen.Generate(ctx, text, voiceID, rate, path); err != nil {
		return NewSpeechError(ErrorCodeGeneration, "generator failed", err)
	}
	if !artifactReady(path) {
		return NewSpeechError(ErrorCodeGeneration, "no audio produced", ErrEmptyArtifact)
	}
	return nil
}

// startPlayback loads and plays path. Loading decodes the whole file, so it
// runs without the player lock and Stop or Speak never wait on it. The
// cancellation check and Play happen under the lock so a concurrent Stop
// either prevents playback or stops it afterwards.
func (r *Remote) startPlayback(u utterance, path string) error {
	if u.ctx.Err() != nil {
		return context.Canceled
	}
	if err := r.player.Load(path); err != nil {
		if u.ctx.Err() != nil {
			return context.Canceled
		}
		return NewSpeechError(ErrorCodePlayback, "unable to load audio", errors.Join(ErrPlaybackFailed, err))
	}

	r.playerMu.Lock()
	defer r.playerMu.Unlock()

	if u.ctx.Err() != nil || !r.life.transition(u.seq, StateSpeaking) {
		_ = r.player.Unload()
		return context.Canceled
	}
	if err := r.player.Play(); err != nil {
		_ = r.player.Unload()
		return NewSpeechError(ErrorCodePlayback, "unable to start audio", errors.Join(ErrPlaybackFailed, err))
	}
	return nil
}

// awaitPlayback polls the player until it finishes or the utterance is
// canceled, then releases the loaded audio.
func (r *Remote) awaitPlayback(u utterance) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-u.ctx.Done():
			r.stopPlayer()
			return
		case <-ticker.C:
			r.playerMu.Lock()
			busy := r.player.Busy()
			if !busy && u.ctx.Err() == nil {
				_ = r.player.Unload()
			}
			r.playerMu.Unlock()
			if !busy {
				return
			}
		}
	}
}

// notifyFailure tells the user audibly that speech failed. The utterance
// stays active until the notice is over so queued lines do not race it.
func (r *Remote) notifyFailure(u utterance, notice string) {
	if !r.life.current(u.seq) {
		return
	}
	if r.fallback != nil {
		err := r.fallback.Announce(u.ctx, notice)
		if err == nil || u.ctx.Err() != nil {
			return
		}
		log.Warn("Fallback announcement failed", "err", err)
	}
	if r.beeper != nil {
		if err := r.beeper.Beep(); err != nil {
			log.Warn("Fallback beep failed", "err", err)
		}
	}
}

func (r *Remote) stopPlayer() {
	r.playerMu.Lock()
	defer r.playerMu.Unlock()

	if err := r.player.Stop(); err != nil {
		log.Debug("Player stop failed", "err", err)
	}
	if err := r.player.Unload(); err != nil {
		log.Debug("Player unload failed", "err", err)
	}
}

// Stop implements Backend. It is safe to call while a worker is generating.
func (r *Remote) Stop() {
	r.life.halt()
	r.stopPlayer()
}

// Pause implements Backend.
func (r *Remote) Pause() {
	r.playerMu.Lock()
	defer r.playerMu.Unlock()

	if !r.life.swap(StateSpeaking, StatePaused) {
		return
	}
	if err := r.player.Pause(); err != nil {
		log.Warn("Player pause failed", "err", err)
	}
}

// Resume implements Backend.
func (r *Remote) Resume() {
	r.playerMu.Lock()
	defer r.playerMu.Unlock()

	if !r.life.swap(StatePaused, StateSpeaking) {
		return
	}
	if err := r.player.Resume(); err != nil {
		log.Warn("Player resume failed", "err", err)
	}
}

// Prefetch implements Prefetcher.
func (r *Remote) Prefetch(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	key := CacheKey(text)

	r.mu.Lock()
	if r.closed || r.cache.Has(key) {
		r.mu.Unlock()
		return
	}
	if _, busy := r.inflight[key]; busy {
		r.mu.Unlock()
		return
	}
	r.inflight[key] = struct{}{}
	ctx := r.prefetchCtx
	voiceID, rate := r.voice.ID, FormatRate(RatePercent(r.rate))
	r.prefetchWG.Add(1)
	r.mu.Unlock()

	go r.prefetch(ctx, key, text, voiceID, rate)
}

func (r *Remote) prefetch(ctx context.Context, key, text, voiceID, rate string) {
	defer r.prefetchWG.Done()
	defer func() {
		r.mu.Lock()
		delete(r.inflight, key)
		r.mu.Unlock()
	}()
	defer func() {
		if p := recover(); p != nil {
			log.Error("Prefetch panicked", "panic", p)
		}
	}()

	path := newArtifactPath(r.dir)
	if err := r.generate(ctx, text, voiceID, rate, path); err != nil {
		removeArtifact(path)
		if ctx.Err() == nil {
			log.Warn("Prefetch failed", "key", key, "err", err)
		}
		return
	}

	// A ClearPrefetch while generating makes this result stale.
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil || r.closed {
		removeArtifact(path)
		return
	}
	r.cache.Put(key, path)
	log.Debug("Prefetched audio", "key", key, "cached", r.cache.Len())
}

// ClearPrefetch implements Prefetcher. In-flight prefetches are canceled.
func (r *Remote) ClearPrefetch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetPrefetchLocked()
}

func (r *Remote) resetPrefetchLocked() {
	r.prefetchCancel()
	r.prefetchCtx, r.prefetchCancel = context.WithCancel(context.Background())
	r.cache.Clear()
}

// PrefetchLen implements Prefetcher.
func (r *Remote) PrefetchLen() int {
	return r.cache.Len()
}

// Rate implements Backend.
func (r *Remote) Rate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate
}

// SetRate implements Backend. Prefetched audio rendered at the old rate is
// discarded.
func (r *Remote) SetRate(wpm int) error {
	rate := ClampRate(KindRemote, wpm)

	r.mu.Lock()
	changed := r.rate != rate
	r.rate = rate
	if changed {
		r.resetPrefetchLocked()
	}
	r.mu.Unlock()

	return persist(r.settings, "rate", rate)
}

// Voice implements Backend.
func (r *Remote) Voice() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.voice.Name
}

// SetVoice implements Backend. Unknown names leave the voice unchanged.
func (r *Remote) SetVoice(name string) error {
	voice, ok := lookupVoiceOf(KindRemote, name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}

	r.mu.Lock()
	changed := r.voice.Name != voice.Name
	r.voice = voice
	if changed {
		r.resetPrefetchLocked()
	}
	r.mu.Unlock()

	return persist(r.settings, "voice", voice.Name)
}

// Voices implements Backend.
func (r *Remote) Voices() []Voice { return Voices(KindRemote) }

// State implements Backend.
func (r *Remote) State() State { return r.life.get() }

// IsSpeaking implements Backend.
func (r *Remote) IsSpeaking() bool { return r.life.get() == StateSpeaking }

// IsPaused implements Backend.
func (r *Remote) IsPaused() bool { return r.life.get() == StatePaused }

// IsGenerating implements Backend.
func (r *Remote) IsGenerating() bool { return r.life.get() == StateGenerating }

// CacheStats returns prefetch hit and eviction counters.
func (r *Remote) CacheStats() CacheStats {
	return r.cache.Stats()
}

// Close implements Backend. It waits briefly for workers to clean up their
// artifacts.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.prefetchCancel()
	r.mu.Unlock()

	r.Stop()
	if !r.life.drain(2 * time.Second) {
		log.Warn("Speech worker did not exit in time")
	}

	r.prefetchWG.Wait()
	r.cache.Clear()
	return nil
}

var (
	_ Backend    = (*Remote)(nil)
	_ Prefetcher = (*Remote)(nil)
)
