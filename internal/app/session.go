package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ityeti/herald/internal/hotkey"
	"github.com/ityeti/herald/internal/queue"
	"github.com/ityeti/herald/internal/region"
	"github.com/ityeti/herald/internal/settings"
	"github.com/ityeti/herald/internal/tts"
)

// Defaults for Config.
const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultSettleDelay  = 150 * time.Millisecond
)

// Preferences is the persistent settings store.
type Preferences interface {
	tts.SettingsWriter
	Snapshot() settings.Settings
	Watch(ctx context.Context, fn func(settings.Settings)) error
}

// Clipboard supplies text to speak, or an image to recognize when it holds
// no text.
type Clipboard interface {
	Text() (string, error)
	Image() (image.Image, error)
}

// Copier copies the current selection to the clipboard.
type Copier interface {
	Copy(ctx context.Context) error
}

// Config wires a Session. Watcher, Copier, Recognizer and Notifier may be
// nil. Without a Recognizer clipboard images are ignored.
type Config struct {
	Settings   Preferences
	NewBackend BackendFactory
	Clipboard  Clipboard
	Copier     Copier
	Recognizer region.Recognizer
	Watcher    *region.Watcher
	Notifier   Notifier

	TickInterval time.Duration
	// SettleDelay is the pause between the copy keystroke and reading the
	// clipboard.
	SettleDelay time.Duration
	// WatchSettings reloads settings edited on disk while Run is active.
	WatchSettings bool
}

// Session coordinates every component. Its methods are safe to call from
// hotkey handlers while Run is active.
type Session struct {
	cfg     Config
	hotkeys *hotkey.Registry
	queue   *queue.Controller
	notify  Notifier

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	backend tts.Backend
	prefs   settings.Settings

	// Last values sent to the notifier.
	lastState  tts.State
	lastStatus Status

	quit     chan struct{}
	quitOnce sync.Once
}

// New builds a session from the stored settings.
func New(cfg Config) (*Session, error) {
	if cfg.Settings == nil || cfg.NewBackend == nil || cfg.Clipboard == nil {
		return nil, errors.New("session needs settings, a backend factory and a clipboard")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	notify := cfg.Notifier
	if notify == nil {
		notify = nopNotifier{}
	}

	prefs := cfg.Settings.Snapshot()
	kind, err := tts.ParseKind(prefs.Engine)
	if err != nil {
		log.Warn("Unknown engine in settings, using default", "engine", prefs.Engine)
		kind = tts.KindRemote
	}
	// A voice from the other table decides the engine.
	if k, ok := tts.KindForVoice(prefs.Voice); ok && k != kind {
		log.Warn("Voice belongs to another engine", "voice", prefs.Voice, "engine", k)
		kind = k
	}

	backend, err := cfg.NewBackend(kind, prefs.Rate, prefs.Voice)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s backend: %w", kind, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:       cfg,
		hotkeys:   hotkey.New(),
		notify:    notify,
		ctx:       ctx,
		cancel:    cancel,
		backend:   backend,
		prefs:     prefs,
		lastState: tts.StateIdle,
		quit:      make(chan struct{}),
	}
	s.queue = queue.New(backend, queueOptions(prefs))

	if err := s.bindHotkeys(prefs.HotkeySpeak, prefs.HotkeyPause); err != nil {
		log.Warn("Unable to bind configured hotkeys, using defaults", "err", err)
		s.hotkeys = hotkey.New()
		if err := s.bindHotkeys("alt+s", "alt+p"); err != nil {
			cancel()
			_ = backend.Close()
			return nil, err
		}
	}

	if cfg.Watcher != nil {
		cfg.Watcher.SetOnChange(s.onRegionText)
	}

	log.Info("Session ready", "engine", backend.Kind(), "voice", backend.Voice(), "rate", backend.Rate())
	return s, nil
}

func queueOptions(p settings.Settings) queue.Options {
	mode, err := queue.ParseMode(p.ReadMode)
	if err != nil {
		log.Warn("Unknown read mode, using lines", "mode", p.ReadMode)
	}
	return queue.Options{
		FilterCode: p.FilterCode,
		Mode:       mode,
		LineDelay:  p.LineDelay,
		LogPreview: p.LogPreview,
	}
}

// Hotkeys returns the registry the input layer dispatches into.
func (s *Session) Hotkeys() *hotkey.Registry { return s.hotkeys }

// Queue returns the line queue.
func (s *Session) Queue() *queue.Controller { return s.queue }

// Backend returns the current speech backend.
func (s *Session) Backend() tts.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// Run drives the session until ctx ends or Quit is called.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	if s.cfg.WatchSettings {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := s.cfg.Settings.Watch(watchCtx, s.applySettings); err != nil {
				log.Warn("Settings will not reload automatically", "err", err)
			}
		}()
	}

	s.publish()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.quit:
			return nil
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}

// Tick advances the queue and reports changes to the notifier.
func (s *Session) Tick(now time.Time) {
	s.queue.OnTick(now)
	s.publish()
}

func (s *Session) publish() {
	state := s.Backend().State()
	status := s.Status()

	s.mu.Lock()
	stateChanged := state != s.lastState
	statusChanged := status != s.lastStatus
	s.lastState = state
	s.lastStatus = status
	s.mu.Unlock()

	if stateChanged {
		s.notify.SetState(state)
	}
	if statusChanged {
		s.notify.SetStatus(status)
	}
}

// Status returns the current configuration and queue position.
func (s *Session) Status() Status {
	s.mu.Lock()
	b, p := s.backend, s.prefs
	s.mu.Unlock()

	st := Status{
		Engine:     b.Kind(),
		Voice:      b.Voice(),
		Rate:       b.Rate(),
		ReadMode:   s.queue.Options().Mode,
		FilterCode: s.queue.Options().FilterCode,
		AutoCopy:   p.AutoCopy,
	}
	if w := s.cfg.Watcher; w != nil {
		st.RegionActive = w.Active()
		st.AutoRead = w.AutoRead()
	}
	if n := s.queue.Len(); n > 0 {
		st.Line = min(s.queue.Index()+1, n)
		st.Lines = n
	}
	return st
}

// Quit makes Run return.
func (s *Session) Quit() {
	s.quitOnce.Do(func() {
		log.Info("Quitting")
		close(s.quit)
	})
}

// Done is closed once Quit has been called.
func (s *Session) Done() <-chan struct{} { return s.quit }

// Close stops speech, drops the region and releases the backend.
func (s *Session) Close() error {
	s.cancel()
	s.queue.Stop()
	if s.cfg.Watcher != nil {
		_ = s.cfg.Watcher.Close()
	}
	return s.Backend().Close()
}

// SpeakSelection reads the active region, or the clipboard after copying
// the selection, and starts reading it.
func (s *Session) SpeakSelection() {
	if w := s.cfg.Watcher; w != nil && w.Active() {
		text, ok := w.ReadNow(s.ctx)
		if !ok {
			log.Warn("No text found in region")
			return
		}
		s.Speak(text)
		return
	}

	s.mu.Lock()
	autoCopy := s.prefs.AutoCopy
	s.mu.Unlock()

	if autoCopy && s.cfg.Copier != nil {
		if err := s.cfg.Copier.Copy(s.ctx); err != nil {
			log.Debug("Copy keystroke failed", "err", err)
		}
		select {
		case <-time.After(s.cfg.SettleDelay):
		case <-s.ctx.Done():
			return
		}
	}

	text, err := s.cfg.Clipboard.Text()
	if err != nil {
		log.Debug("Unable to read clipboard text", "err", err)
	}
	if strings.TrimSpace(text) == "" {
		text = s.clipboardImageText()
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("No text to speak (clipboard empty)")
		return
	}
	s.Speak(text)
}

// clipboardImageText recognizes the text of an image on the clipboard.
func (s *Session) clipboardImageText() string {
	if s.cfg.Recognizer == nil {
		return ""
	}
	img, err := s.cfg.Clipboard.Image()
	if err != nil {
		log.Debug("No clipboard image", "err", err)
		return ""
	}
	text, err := s.cfg.Recognizer.Recognize(s.ctx, img)
	if err != nil {
		log.Warn("Unable to read clipboard image", "err", err)
		return ""
	}
	log.Info("Read clipboard image", "size", img.Bounds().Size(), "chars", len(text))
	return text
}

// Speak replaces the queue with text.
func (s *Session) Speak(text string) {
	err := s.queue.Start(text)
	if errors.Is(err, queue.ErrNothingToSpeak) {
		log.Warn("No speakable text after filtering")
	}
	s.publish()
}

func (s *Session) onRegionText(text string) {
	log.Info("Region text changed", "chars", len(text))
	s.Speak(text)
}

// PauseResume toggles between speaking and paused.
func (s *Session) PauseResume() {
	b := s.Backend()
	switch {
	case b.IsPaused():
		b.Resume()
		log.Info("Resumed")
	case b.IsSpeaking():
		b.Pause()
		log.Info("Paused")
	}
	s.publish()
}

// Stop halts speech and clears the queue.
func (s *Session) Stop() {
	if s.Backend().State().Active() || s.queue.Active() {
		log.Info("Stopped")
	}
	s.queue.Stop()
	s.publish()
}

// NextLine skips to the next queued line.
func (s *Session) NextLine() {
	s.queue.SkipNext()
	s.publish()
}

// PrevLine goes back one queued line.
func (s *Session) PrevLine() {
	s.queue.SkipPrev()
	s.publish()
}

// SpeedUp raises the rate by one step.
func (s *Session) SpeedUp() { s.stepRate(tts.RateStep) }

// SpeedDown lowers the rate by one step.
func (s *Session) SpeedDown() { s.stepRate(-tts.RateStep) }

func (s *Session) stepRate(delta int) {
	b := s.Backend()
	lo, hi := tts.RateRange(b.Kind())
	rate := b.Rate()

	switch {
	case delta > 0 && rate >= hi:
		s.announce("Maximum speed")
		return
	case delta < 0 && rate <= lo:
		s.announce("Minimum speed")
		return
	}

	if err := b.SetRate(rate + delta); err != nil {
		log.Error("Unable to save rate", "err", err)
	}
	log.Info("Speed changed", "rate", b.Rate())
	if delta > 0 {
		s.announce("Faster")
	} else {
		s.announce("Slower")
	}
	s.publish()
}

// SetRate sets an exact rate.
func (s *Session) SetRate(wpm int) error {
	b := s.Backend()
	err := b.SetRate(wpm)
	s.announce(fmt.Sprintf("Speed set to %d words per minute", b.Rate()))
	s.publish()
	return err
}

// SetVoice switches voice, changing engine when the voice belongs to the
// other one.
func (s *Session) SetVoice(name string) error {
	v, ok := tts.LookupVoice(name)
	if !ok {
		return fmt.Errorf("%w: %q", tts.ErrUnknownVoice, name)
	}

	if v.Kind != s.Backend().Kind() {
		if err := s.switchEngine(v.Kind, v.Name); err != nil {
			return err
		}
	} else if err := s.Backend().SetVoice(v.Name); err != nil {
		log.Error("Unable to save voice", "err", err)
	}

	log.Info("Voice changed", "voice", v.Name, "engine", v.Kind)
	s.announce("Voice changed to " + cases.Title(language.English).String(v.Name))
	s.publish()
	return nil
}

// SetEngine switches to kind with its default voice.
func (s *Session) SetEngine(kind tts.Kind) error {
	if kind == s.Backend().Kind() {
		return nil
	}
	if err := s.switchEngine(kind, tts.DefaultVoice(kind).Name); err != nil {
		return err
	}
	s.publish()
	return nil
}

// switchEngine replaces the backend with a fresh one of kind.
func (s *Session) switchEngine(kind tts.Kind, voice string) error {
	old := s.Backend()
	rate := tts.ClampRate(kind, old.Rate())

	next, err := s.cfg.NewBackend(kind, rate, voice)
	if err != nil {
		return fmt.Errorf("unable to switch to %s: %w", kind, err)
	}

	s.queue.SetBackend(next)
	s.mu.Lock()
	s.backend = next
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		log.Debug("Previous backend did not close cleanly", "err", err)
	}

	for _, kv := range []struct {
		key   string
		value any
	}{
		{settings.KeyEngine, kind.String()},
		{settings.KeyVoice, next.Voice()},
		{settings.KeyRate, next.Rate()},
	} {
		if err := s.cfg.Settings.Set(kv.key, kv.value); err != nil {
			log.Error("Unable to save setting", "key", kv.key, "err", err)
		}
	}
	log.Info("Engine switched", "engine", kind, "voice", next.Voice(), "rate", next.Rate())
	return nil
}

// ToggleRegion selects a persistent region or drops the active one.
func (s *Session) ToggleRegion() {
	w := s.cfg.Watcher
	if w == nil {
		log.Warn("Screen regions are not available")
		return
	}

	if w.Toggle(s.ctx) {
		s.mu.Lock()
		autoRead := s.prefs.AutoRead
		s.mu.Unlock()
		if autoRead {
			w.SetAutoRead(true)
		}
	}
	s.publish()
}

// ToggleAutoRead starts or stops reading the region whenever it changes.
func (s *Session) ToggleAutoRead() {
	w := s.cfg.Watcher
	if w == nil || !w.Active() {
		log.Warn("Select a region before enabling auto-read")
		return
	}

	enabled := w.SetAutoRead(!w.AutoRead())
	s.setPref(settings.KeyAutoRead, enabled, func(p *settings.Settings) { p.AutoRead = enabled })
	s.publish()
}

// CycleReadMode switches between line-by-line and continuous reading.
func (s *Session) CycleReadMode() {
	opts := s.queue.Options()
	if opts.Mode == queue.ModeLines {
		opts.Mode = queue.ModeContinuous
	} else {
		opts.Mode = queue.ModeLines
	}
	s.queue.SetOptions(opts)
	s.setPref(settings.KeyReadMode, opts.Mode.String(), func(p *settings.Settings) { p.ReadMode = opts.Mode.String() })

	log.Info("Read mode changed", "mode", opts.Mode)
	if opts.Mode == queue.ModeContinuous {
		s.announce("Continuous mode")
	} else {
		s.announce("Line mode")
	}
	s.publish()
}

// ToggleFilterCode turns dropping of code-like lines on or off.
func (s *Session) ToggleFilterCode() {
	opts := s.queue.Options()
	opts.FilterCode = !opts.FilterCode
	s.queue.SetOptions(opts)
	s.setPref(settings.KeyFilterCode, opts.FilterCode, func(p *settings.Settings) { p.FilterCode = opts.FilterCode })

	log.Info("Code filter changed", "enabled", opts.FilterCode)
	if opts.FilterCode {
		s.announce("Code filter on")
	} else {
		s.announce("Code filter off")
	}
	s.publish()
}

// SetAutoCopy controls whether the selection is copied before reading the
// clipboard.
func (s *Session) SetAutoCopy(enabled bool) {
	s.setPref(settings.KeyAutoCopy, enabled, func(p *settings.Settings) { p.AutoCopy = enabled })
	s.publish()
}

// SetLineDelay sets the pause between auto-advanced lines.
func (s *Session) SetLineDelay(d time.Duration) {
	d = max(d, 0)
	opts := s.queue.Options()
	opts.LineDelay = d
	s.queue.SetOptions(opts)
	s.setPref(settings.KeyLineDelay, d.Milliseconds(), func(p *settings.Settings) { p.LineDelay = d })
}

func (s *Session) setPref(key string, value any, apply func(*settings.Settings)) {
	s.mu.Lock()
	apply(&s.prefs)
	s.mu.Unlock()

	if err := s.cfg.Settings.Set(key, value); err != nil {
		log.Error("Unable to save setting", "key", key, "err", err)
	}
}

// announce speaks short feedback when nothing else is being read, so it
// never cuts into a queue.
func (s *Session) announce(text string) {
	b := s.Backend()
	if s.queue.Active() || b.State().Active() {
		log.Debug("Skipping announcement while reading", "text", text)
		return
	}
	b.Speak(text)
}

// applySettings reacts to the settings file being edited by hand.
func (s *Session) applySettings(next settings.Settings) {
	s.mu.Lock()
	prev := s.prefs
	s.prefs = next
	s.mu.Unlock()

	s.rebind(ActionSpeak, prev.HotkeySpeak, next.HotkeySpeak)
	s.rebind(ActionPause, prev.HotkeyPause, next.HotkeyPause)
	s.queue.SetOptions(queueOptions(next))

	b := s.Backend()
	if kind, err := tts.ParseKind(next.Engine); err == nil && kind != b.Kind() {
		if err := s.SetEngine(kind); err != nil {
			log.Error("Unable to apply engine", "err", err)
		}
		b = s.Backend()
	}
	if next.Voice != "" && next.Voice != b.Voice() {
		if k, ok := tts.KindForVoice(next.Voice); ok && k == b.Kind() {
			if err := b.SetVoice(next.Voice); err != nil {
				log.Error("Unable to apply voice", "err", err)
			}
		}
	}
	if next.Rate != 0 && next.Rate != b.Rate() {
		if err := b.SetRate(next.Rate); err != nil {
			log.Error("Unable to apply rate", "err", err)
		}
	}
	s.publish()
}

func (s *Session) rebind(action, oldSpec, newSpec string) {
	if oldSpec == newSpec || newSpec == "" {
		return
	}
	current, ok := s.hotkeys.SpecFor(action)
	if !ok {
		current = oldSpec
	}
	if err := s.hotkeys.Rebind(current, newSpec); err != nil {
		log.Warn("Unable to change hotkey", "action", action, "hotkey", newSpec, "err", err)
	}
}

// CurrentLine returns the queued line being read, or "" when idle.
func (s *Session) CurrentLine() string {
	req, ok := s.queue.Current()
	if !ok {
		return ""
	}
	return req.Raw
}
