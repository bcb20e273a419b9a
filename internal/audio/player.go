package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// PlayerState represents the current state of the player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotLoaded indicates a playback call without a loaded file
	ErrNotLoaded = errors.New("no audio loaded")

	// ErrPlayerClosed indicates the player has been closed
	ErrPlayerClosed = errors.New("player is closed")
)

// Player plays speech files through a single oto context. Only one context
// may exist per process, so every backend shares one Player.
type Player struct {
	// OTO context - initialized once and reused
	context *oto.Context

	// Current playback state
	player *oto.Player

	// CRITICAL: Keep audio data alive during playback
	activeStream *AudioStream

	state  atomic.Int32  // PlayerState
	volume atomic.Uint64 // volume * 1e6

	// Synchronization
	mu sync.Mutex

	// Configuration
	sampleRate int
	channels   int
}

// AudioStream is decoded PCM kept alive for the lifetime of an oto player.
type AudioStream struct {
	data     []byte
	reader   *bytes.Reader
	path     string
	duration time.Duration
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int           // device rate in Hz
	Channels   int           // 1 = mono, 2 = stereo
	BufferSize time.Duration // device buffer, zero lets oto decide
}

// DefaultPlayerConfig matches the neural voice output so most files need no
// resampling.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 24000,
		Channels:   2,
		BufferSize: 100 * time.Millisecond,
	}
}

// NewPlayer opens the sound device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	// Wait for context to be ready
	<-readyChan

	p := &Player{
		context:    ctx,
		sampleRate: config.SampleRate,
		channels:   config.Channels,
	}
	p.state.Store(int32(StateStopped))
	_ = p.SetVolume(1.0)

	return p, nil
}

func validateConfig(config PlayerConfig) error {
	switch config.SampleRate {
	case 22050, 24000, 44100, 48000:
	default:
		return fmt.Errorf("sample rate must be 22050, 24000, 44100 or 48000 Hz, got %d", config.SampleRate)
	}

	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}

	if config.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}

	return nil
}

// Load decodes path and prepares it for playback, replacing anything
// already loaded.
func (p *Player) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open audio: %w", err)
	}
	defer f.Close()

	pcm, err := DecodeMP3(f, p.sampleRate, p.channels)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return fmt.Errorf("%s decoded to no audio", path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.getState() == StateClosed {
		return ErrPlayerClosed
	}
	_ = p.unloadLocked()

	stream := &AudioStream{
		data:     pcm,
		reader:   bytes.NewReader(pcm),
		path:     path,
		duration: Duration(pcm, p.sampleRate, p.channels),
	}
	player := p.context.NewPlayer(stream.reader)
	player.SetVolume(p.getVolume())

	p.player = player
	p.activeStream = stream
	p.state.Store(int32(StateStopped))
	return nil
}

// Play starts the loaded audio from its current position.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return ErrNotLoaded
	}
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Pause pauses the current playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.getState() != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", p.getState())
	}
	p.player.Pause()
	p.state.Store(int32(StatePaused))
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.getState() != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", p.getState())
	}
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Stop halts playback and rewinds; the file stays loaded.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return nil
	}
	p.player.Pause()
	if _, err := p.player.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("unable to rewind: %w", err)
	}
	if p.getState() != StateClosed {
		p.state.Store(int32(StateStopped))
	}
	return nil
}

// Unload stops playback and releases the decoded audio.
func (p *Player) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.unloadLocked()
}

func (p *Player) unloadLocked() error {
	var err error
	if p.player != nil {
		p.player.Pause()
		err = p.player.Close()
		p.player = nil
	}
	// Allow GC of the audio data once oto is done with it
	p.activeStream = nil
	if p.getState() != StateClosed {
		p.state.Store(int32(StateStopped))
	}
	return err
}

// Busy reports whether loaded audio is still playing or is paused.
func (p *Player) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.getState() {
	case StatePaused:
		return p.player != nil
	case StatePlaying:
		if p.player != nil && p.player.IsPlaying() {
			return true
		}
		p.state.Store(int32(StateStopped))
		return false
	default:
		return false
	}
}

// Beep plays a short tone and blocks until it has finished. It uses its
// own oto player so it never disturbs loaded speech.
func (p *Player) Beep() error {
	if p.getState() == StateClosed {
		return ErrPlayerClosed
	}

	const d = 150 * time.Millisecond
	tone := Tone(880, d, p.sampleRate, p.channels)
	player := p.context.NewPlayer(bytes.NewReader(tone))
	defer player.Close()

	player.SetVolume(p.getVolume())
	player.Play()

	deadline := time.Now().Add(d + time.Second)
	for player.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}
	p.volume.Store(uint64(volume * 1000000))

	p.mu.Lock()
	if p.player != nil {
		p.player.SetVolume(volume)
	}
	p.mu.Unlock()

	return nil
}

func (p *Player) getVolume() float64 {
	return float64(p.volume.Load()) / 1000000.0
}

// GetVolume returns the current volume.
func (p *Player) GetVolume() float64 {
	return p.getVolume()
}

func (p *Player) getState() PlayerState {
	return PlayerState(p.state.Load())
}

// GetState returns the current player state.
func (p *Player) GetState() PlayerState {
	return p.getState()
}

// Loaded returns the path and duration of the loaded file.
func (p *Player) Loaded() (string, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.activeStream == nil {
		return "", 0
	}
	return p.activeStream.path, p.activeStream.duration
}

// Close releases the loaded audio. oto v3 contexts cannot be closed; the
// device is released when the process exits.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.unloadLocked()
	p.state.Store(int32(StateClosed))
	return err
}
