package audio

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// mp3BytesPerSecond approximates the 48 kbit/s neural voice output, used to
// estimate how long a loaded file would play.
const mp3BytesPerSecond = 6000

// MockPlayer simulates file playback without touching the sound device. It
// backs the --silent mode and tests.
type MockPlayer struct {
	state     atomic.Int32 // PlayerState
	startTime time.Time
	elapsed   time.Duration // play time accumulated before the last pause

	path          string
	audioDuration time.Duration
	fixedDuration time.Duration
	volume        float64

	// Test callbacks
	callbacks MockCallbacks

	// Synchronization
	mu sync.Mutex

	// Test configuration
	loadErr error

	// Metrics for testing
	loadCount   atomic.Int64
	playCount   atomic.Int64
	pauseCount  atomic.Int64
	resumeCount atomic.Int64
	stopCount   atomic.Int64
	beepCount   atomic.Int64
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnLoad   func(path string)
	OnPlay   func()
	OnPause  func()
	OnResume func()
	OnStop   func()
	OnBeep   func()
}

// MockPlayerMetrics contains playback metrics for testing.
type MockPlayerMetrics struct {
	LoadCount   int64
	PlayCount   int64
	PauseCount  int64
	ResumeCount int64
	StopCount   int64
	BeepCount   int64
}

// DefaultMockPlayer creates a new mock player with default settings.
func DefaultMockPlayer() *MockPlayer {
	mp := &MockPlayer{volume: 1.0}
	mp.state.Store(int32(StateStopped))
	return mp
}

// NewMockPlayer creates a new mock player with custom callbacks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	mp := DefaultMockPlayer()
	mp.callbacks = callbacks
	return mp
}

// Load records path and estimates its duration from the file size.
func (mp *MockPlayer) Load(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to open audio: %w", err)
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.getState() == StateClosed {
		return ErrPlayerClosed
	}
	if mp.loadErr != nil {
		return mp.loadErr
	}

	mp.path = path
	mp.audioDuration = mp.fixedDuration
	if mp.audioDuration == 0 {
		mp.audioDuration = time.Duration(info.Size()) * time.Second / mp3BytesPerSecond
	}
	mp.elapsed = 0
	mp.state.Store(int32(StateStopped))
	mp.loadCount.Add(1)

	if mp.callbacks.OnLoad != nil {
		mp.callbacks.OnLoad(path)
	}
	return nil
}

// Play starts the loaded audio.
func (mp *MockPlayer) Play() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.path == "" {
		return ErrNotLoaded
	}
	mp.startTime = time.Now()
	mp.state.Store(int32(StatePlaying))
	mp.playCount.Add(1)

	if mp.callbacks.OnPlay != nil {
		mp.callbacks.OnPlay()
	}
	return nil
}

// Pause pauses the current playback.
func (mp *MockPlayer) Pause() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if s := mp.getState(); s != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", s)
	}
	mp.elapsed += time.Since(mp.startTime)
	mp.state.Store(int32(StatePaused))
	mp.pauseCount.Add(1)

	if mp.callbacks.OnPause != nil {
		mp.callbacks.OnPause()
	}
	return nil
}

// Resume resumes paused playback.
func (mp *MockPlayer) Resume() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if s := mp.getState(); s != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", s)
	}
	mp.startTime = time.Now()
	mp.state.Store(int32(StatePlaying))
	mp.resumeCount.Add(1)

	if mp.callbacks.OnResume != nil {
		mp.callbacks.OnResume()
	}
	return nil
}

// Stop halts playback and rewinds.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.stopLocked()
	return nil
}

func (mp *MockPlayer) stopLocked() {
	s := mp.getState()
	if s == StateClosed {
		return
	}
	if s != StateStopped {
		mp.stopCount.Add(1)
		if mp.callbacks.OnStop != nil {
			mp.callbacks.OnStop()
		}
	}
	mp.elapsed = 0
	mp.state.Store(int32(StateStopped))
}

// Unload stops playback and forgets the loaded file.
func (mp *MockPlayer) Unload() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.stopLocked()
	mp.path = ""
	mp.audioDuration = 0
	return nil
}

// Busy reports whether the simulated audio is still playing or paused.
func (mp *MockPlayer) Busy() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	switch mp.getState() {
	case StatePaused:
		return true
	case StatePlaying:
		if mp.positionLocked() < mp.audioDuration {
			return true
		}
		mp.state.Store(int32(StateStopped))
		return false
	default:
		return false
	}
}

// Beep implements the fallback alert.
func (mp *MockPlayer) Beep() error {
	if mp.getState() == StateClosed {
		return ErrPlayerClosed
	}
	mp.beepCount.Add(1)
	if mp.callbacks.OnBeep != nil {
		mp.callbacks.OnBeep()
	}
	return nil
}

// GetPosition returns the simulated playback position.
func (mp *MockPlayer) GetPosition() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.positionLocked()
}

func (mp *MockPlayer) positionLocked() time.Duration {
	pos := mp.elapsed
	if mp.getState() == StatePlaying {
		pos += time.Since(mp.startTime)
	}
	return min(pos, mp.audioDuration)
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (mp *MockPlayer) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.volume = volume
	return nil
}

// Close stops playback and rejects further use.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.stopLocked()
	mp.path = ""
	mp.state.Store(int32(StateClosed))
	return nil
}

func (mp *MockPlayer) getState() PlayerState {
	return PlayerState(mp.state.Load())
}

// Test helper methods

// GetState returns the current player state for testing.
func (mp *MockPlayer) GetState() PlayerState {
	return mp.getState()
}

// GetVolume returns the current volume for testing.
func (mp *MockPlayer) GetVolume() float64 {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.volume
}

// SetAudioDuration fixes the simulated length of every loaded file.
func (mp *MockPlayer) SetAudioDuration(duration time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.fixedDuration = duration
	if mp.path != "" {
		mp.audioDuration = duration
	}
}

// SetLoadError makes every Load fail with err; nil clears it.
func (mp *MockPlayer) SetLoadError(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.loadErr = err
}

// LoadedPath returns the loaded file, if any.
func (mp *MockPlayer) LoadedPath() string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.path
}

// GetMetrics returns playback metrics for testing.
func (mp *MockPlayer) GetMetrics() MockPlayerMetrics {
	return MockPlayerMetrics{
		LoadCount:   mp.loadCount.Load(),
		PlayCount:   mp.playCount.Load(),
		PauseCount:  mp.pauseCount.Load(),
		ResumeCount: mp.resumeCount.Load(),
		StopCount:   mp.stopCount.Load(),
		BeepCount:   mp.beepCount.Load(),
	}
}

// WaitForCompletion polls until playback ends naturally. Returns false on
// timeout.
func (mp *MockPlayer) WaitForCompletion(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !mp.Busy() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
