package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// fakeSettings records persisted preferences.
type fakeSettings struct {
	mu     sync.Mutex
	values map[string]any
	err    error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]any)}
}

func (s *fakeSettings) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func (s *fakeSettings) get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// fakeGenerator writes a small file for every request. It can fail, write
// nothing, or block until its context is canceled.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    []string
	rates    []string
	err      error
	empty    bool
	block    bool
	delay    time.Duration
	started  chan struct{}
	canceled atomic.Int32
}

func (g *fakeGenerator) Generate(ctx context.Context, text, voiceID, rate, outPath string) error {
	g.mu.Lock()
	g.calls = append(g.calls, text)
	g.rates = append(g.rates, rate)
	err, empty, block, delay, started := g.err, g.empty, g.block, g.delay, g.started
	g.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}

	if block {
		// Leave a partial file behind like a real subprocess would.
		_ = os.WriteFile(outPath, []byte("partial"), 0o644)
		<-ctx.Done()
		g.canceled.Add(1)
		return ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			g.canceled.Add(1)
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	if empty {
		return os.WriteFile(outPath, nil, 0o644)
	}
	return os.WriteFile(outPath, []byte("ID3 fake audio for "+text), 0o644)
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGenerator) lastRate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.rates) == 0 {
		return ""
	}
	return g.rates[len(g.rates)-1]
}

var errPlayerInUse = errors.New("player already owns audio")

// fakePlayer simulates a file player whose playback lasts duration. It
// reports an error when two utterances try to own it at once.
type fakePlayer struct {
	mu       sync.Mutex
	duration time.Duration
	loaded   string
	playing  bool
	paused   bool
	started  time.Time
	elapsed  time.Duration
	played   []string
	loadErr  error
	overlaps int

	// When loadGate is set, Load closes loadStarted and blocks until the
	// gate is closed, like a slow decode.
	loadStarted chan struct{}
	loadGate    chan struct{}
}

func (p *fakePlayer) Load(path string) error {
	p.mu.Lock()
	started, gate := p.loadStarted, p.loadGate
	p.loadStarted, p.loadGate = nil, nil
	p.mu.Unlock()
	if gate != nil {
		close(started)
		<-gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return p.loadErr
	}
	if p.loaded != "" {
		p.overlaps++
		return errPlayerInUse
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	p.loaded = path
	return nil
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing, p.paused = true, false
	p.started = time.Now()
	p.elapsed = 0
	p.played = append(p.played, filepath.Base(p.loaded))
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing && !p.paused {
		p.elapsed += time.Since(p.started)
		p.paused = true
	}
	return nil
}

func (p *fakePlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		p.started = time.Now()
	}
	return nil
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing, p.paused = false, false
	return nil
}

func (p *fakePlayer) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing, p.paused = false, false
	p.loaded = ""
	return nil
}

func (p *fakePlayer) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return false
	}
	if p.paused {
		return true
	}
	return p.elapsed+time.Since(p.started) < p.duration
}

func (p *fakePlayer) loadedPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.played)
}

func (p *fakePlayer) overlapCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overlaps
}

// fakeSpeaker blocks for duration per utterance, or until canceled.
type fakeSpeaker struct {
	mu       sync.Mutex
	duration time.Duration
	said     []string
	voices   []string
	err      error
	pauses   int
}

func (s *fakeSpeaker) Say(ctx context.Context, text string, voice Voice, wpm int) error {
	s.mu.Lock()
	s.said = append(s.said, text)
	s.voices = append(s.voices, voice.Name)
	err, d := s.err, s.duration
	s.mu.Unlock()

	if err != nil {
		return err
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeSpeaker) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses++
	return nil
}

func (s *fakeSpeaker) Resume() error { return nil }

func (s *fakeSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

// fakeBeeper counts beeps.
type fakeBeeper struct {
	beeps atomic.Int32
}

func (b *fakeBeeper) Beep() error {
	b.beeps.Add(1)
	return nil
}

// artifacts lists generated files left in dir.
func artifacts(dir string) []string {
	matches, _ := filepath.Glob(filepath.Join(dir, artifactPrefix+"*"+artifactExt))
	return matches
}
