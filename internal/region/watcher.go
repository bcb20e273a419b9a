package region

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// Defaults for Config.
const (
	DefaultPollInterval    = 2500 * time.Millisecond
	DefaultChangeThreshold = 0.5
	DefaultMinTextLength   = 3
	DefaultSelectTimeout   = 120 * time.Second

	// stopWait bounds how long Deactivate waits for the poll loop.
	stopWait = time.Second
)

var (
	// ErrNoRegion is returned when an operation needs an active region.
	ErrNoRegion = errors.New("no active region")

	// ErrNoCapturer is returned by NewWatcher without a capturer or recognizer.
	ErrNoCapturer = errors.New("region watcher needs a capturer and a recognizer")
)

// Picker lets the user draw a rectangle. ok is false when the user
// cancelled.
type Picker interface {
	Select(ctx context.Context) (r Rect, ok bool, err error)
}

// Capturer grabs the pixels inside a rectangle.
type Capturer interface {
	Grab(ctx context.Context, r Rect) (image.Image, error)
}

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Border shows a visible outline around the active region.
type Border interface {
	Start(r Rect) error
	Stop() error
}

// Config configures a Watcher. Picker and Border may be nil; Activate then
// fails and no outline is drawn, respectively.
type Config struct {
	Picker     Picker
	Capturer   Capturer
	Recognizer Recognizer
	Border     Border

	PollInterval time.Duration
	// ChangeThreshold is the minimum dissimilarity, in [0,1], that counts
	// as new text.
	ChangeThreshold float64
	// MinTextLength drops OCR results shorter than this many runes.
	MinTextLength int
	SelectTimeout time.Duration

	// OnChange receives new text found by the auto-read loop. It runs on
	// the loop goroutine.
	OnChange func(text string)
}

// Watcher owns the persistent region and its auto-read loop.
type Watcher struct {
	cfg Config

	mu     sync.Mutex
	rect   Rect
	active bool

	// snapshot is the last text observed in the region.
	snapshot  string
	firstPoll bool

	autoRead bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWatcher creates a watcher with defaults applied.
func NewWatcher(cfg Config) (*Watcher, error) {
	if cfg.Capturer == nil || cfg.Recognizer == nil {
		return nil, ErrNoCapturer
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ChangeThreshold < 0 || cfg.ChangeThreshold > 1 {
		log.Warn("Change threshold out of range, using default",
			"threshold", cfg.ChangeThreshold, "default", DefaultChangeThreshold)
		cfg.ChangeThreshold = DefaultChangeThreshold
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = DefaultMinTextLength
	}
	if cfg.SelectTimeout <= 0 {
		cfg.SelectTimeout = DefaultSelectTimeout
	}
	return &Watcher{cfg: cfg}, nil
}

// SetOnChange replaces the auto-read callback.
func (w *Watcher) SetOnChange(fn func(text string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg.OnChange = fn
}

// Activate asks the user for a region. It returns false, leaving the
// watcher untouched, when the selection is cancelled, times out, fails or
// is too small.
func (w *Watcher) Activate(ctx context.Context) bool {
	if w.cfg.Picker == nil {
		log.Warn("No region picker configured")
		return false
	}

	log.Info("Select region for continuous OCR")
	ctx, cancel := context.WithTimeout(ctx, w.cfg.SelectTimeout)
	defer cancel()

	r, ok, err := w.cfg.Picker.Select(ctx)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Warn("Region selection timed out", "timeout", w.cfg.SelectTimeout)
		return false
	case ctx.Err() != nil:
		log.Info("Region selection cancelled")
		return false
	case err != nil:
		log.Error("Region selection failed", "err", err)
		return false
	case !ok:
		log.Info("Region selection cancelled")
		return false
	}

	r = r.Canon()
	if !r.Valid() {
		log.Warn("Region too small", "region", r, "min", MinRegionSize)
		return false
	}

	if w.Active() {
		w.Deactivate()
	}

	w.mu.Lock()
	w.rect = r
	w.active = true
	w.snapshot = ""
	w.mu.Unlock()

	if w.cfg.Border != nil {
		if err := w.cfg.Border.Start(r); err != nil {
			log.Error("Unable to show region border", "err", err)
		}
	}

	log.Info("Persistent region set", "region", r)
	return true
}

// Deactivate stops auto-read, removes the border and forgets the region.
func (w *Watcher) Deactivate() {
	w.stopAutoRead()

	w.mu.Lock()
	wasActive := w.active
	w.active = false
	w.rect = Rect{}
	w.snapshot = ""
	w.mu.Unlock()

	if !wasActive {
		return
	}
	if w.cfg.Border != nil {
		if err := w.cfg.Border.Stop(); err != nil {
			log.Debug("Region border did not stop cleanly", "err", err)
		}
	}
	log.Info("Persistent region deactivated")
}

// Toggle deactivates an active region or activates a new one. It returns
// whether a region is active afterwards.
func (w *Watcher) Toggle(ctx context.Context) bool {
	if w.Active() {
		w.Deactivate()
		return false
	}
	return w.Activate(ctx)
}

// ReadNow captures and recognizes the region immediately.
func (w *Watcher) ReadNow(ctx context.Context) (string, bool) {
	r, ok := w.Region()
	if !ok {
		log.Warn("No persistent region active")
		return "", false
	}

	text, err := w.read(ctx, r)
	if err != nil {
		log.Error("Unable to read region", "err", err)
		return "", false
	}
	if text == "" {
		return "", false
	}

	w.mu.Lock()
	w.snapshot = text
	w.mu.Unlock()
	return text, true
}

// SetAutoRead starts or stops the poll loop. Starting requires an active
// region and resets the snapshot so the first poll always reports. It
// returns whether auto-read is running afterwards.
func (w *Watcher) SetAutoRead(enabled bool) bool {
	if !enabled {
		w.stopAutoRead()
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active {
		log.Warn("Auto-read needs an active region")
		return false
	}
	if w.autoRead {
		return true
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.autoRead = true
	w.cancel = cancel
	w.done = done
	w.snapshot = ""
	w.firstPoll = true

	go w.loop(ctx, done)

	log.Info("Auto-read started",
		"poll", w.cfg.PollInterval, "threshold", w.cfg.ChangeThreshold)
	return true
}

func (w *Watcher) stopAutoRead() {
	w.mu.Lock()
	if !w.autoRead {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.autoRead = false
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopWait):
		log.Warn("Auto-read loop did not stop in time", "wait", stopWait)
	}
	log.Info("Auto-read stopped")
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(w.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		w.poll(ctx)
		timer.Reset(w.cfg.PollInterval)
	}
}

// poll runs one auto-read iteration. Failures are logged and never end
// the loop.
func (w *Watcher) poll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Auto-read poll panicked", "panic", r)
		}
	}()

	r, ok := w.Region()
	if !ok {
		return
	}

	text, err := w.read(ctx, r)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("Auto-read error", "err", err)
		}
		return
	}
	if utf8.RuneCountInString(text) < w.cfg.MinTextLength {
		log.Debug("Ignoring short OCR result", "chars", utf8.RuneCountInString(text))
		return
	}

	w.mu.Lock()
	if ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	fire := w.changedLocked(text)
	if fire {
		w.snapshot = text
		w.firstPoll = false
	}
	onChange := w.cfg.OnChange
	w.mu.Unlock()

	if fire {
		log.Info("Text changed, triggering read", "chars", utf8.RuneCountInString(text))
		if onChange != nil {
			onChange(text)
		}
	}
}

// changedLocked decides whether text differs enough from the snapshot.
func (w *Watcher) changedLocked(text string) bool {
	if w.firstPoll {
		return true
	}
	if text == w.snapshot {
		return false
	}
	similarity := Similarity(w.snapshot, text)
	change := 1 - similarity
	log.Debug("Text similarity", "similarity", similarity, "change", change)
	return change >= w.cfg.ChangeThreshold
}

func (w *Watcher) read(ctx context.Context, r Rect) (string, error) {
	img, err := w.cfg.Capturer.Grab(ctx, r)
	if err != nil {
		return "", err
	}
	text, err := w.cfg.Recognizer.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Region returns the active rectangle.
func (w *Watcher) Region() (Rect, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rect, w.active
}

// Active reports whether a region is set.
func (w *Watcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// AutoRead reports whether the poll loop is running.
func (w *Watcher) AutoRead() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.autoRead
}

// Snapshot returns the last observed text.
func (w *Watcher) Snapshot() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// Close deactivates the watcher.
func (w *Watcher) Close() error {
	w.Deactivate()
	return nil
}
