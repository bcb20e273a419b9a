package queue

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ityeti/herald/internal/textfilter"
	"github.com/ityeti/herald/internal/tts"
)

// ErrNothingToSpeak is returned by Start when no line survives filtering.
var ErrNothingToSpeak = errors.New("nothing to speak")

// Mode decides how multi-line text is split into queue entries.
type Mode int

const (
	// ModeLines speaks one line at a time.
	ModeLines Mode = iota
	// ModeContinuous joins every line into a single entry.
	ModeContinuous
)

func (m Mode) String() string {
	if m == ModeContinuous {
		return "continuous"
	}
	return "lines"
}

// ParseMode maps a settings value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lines", "line", "":
		return ModeLines, nil
	case "continuous":
		return ModeContinuous, nil
	default:
		return ModeLines, fmt.Errorf("unknown read mode %q", s)
	}
}

// Options tune how text is queued.
type Options struct {
	FilterCode bool
	Mode       Mode
	// LineDelay is the pause inserted between auto-advanced lines.
	LineDelay time.Duration
	// LogPreview logs a short preview of every line as it is spoken.
	LogPreview bool
}

var lineBreak = regexp.MustCompile(`\r\n|\n|\r`)

// SplitLines splits text on any line break style, trims each line and
// drops the empty ones.
func SplitLines(text string) []string {
	var lines []string
	for _, l := range lineBreak.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Controller drives a backend through a queue of lines. It is safe for use
// from hotkey handlers and the tick loop at the same time.
type Controller struct {
	mu sync.Mutex

	backend tts.Backend
	opts    Options

	lines []string
	index int

	// wasActive remembers that the backend was busy on a previous tick, so
	// the falling edge can be detected.
	wasActive bool
	// pendingAt is when a delayed auto-advance should speak; zero when none
	// is scheduled.
	pendingAt time.Time
}

// New creates a controller for b.
func New(b tts.Backend, opts Options) *Controller {
	return &Controller{backend: b, opts: opts}
}

// SetBackend replaces the backend after stopping the old one. The queue is
// cleared.
func (c *Controller) SetBackend(b tts.Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.haltLocked()
	c.backend = b
}

// Backend returns the current backend.
func (c *Controller) Backend() tts.Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// SetOptions replaces the options. They apply from the next Start.
func (c *Controller) SetOptions(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts = opts
}

// Options returns the current options.
func (c *Controller) Options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// Start replaces the queue with the lines of raw and speaks the first one.
// When nothing speakable remains the queue is left empty and
// ErrNothingToSpeak is returned.
func (c *Controller) Start(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := textfilter.FilterLines(SplitLines(raw), c.opts.FilterCode)
	c.haltLocked()

	if len(lines) == 0 {
		return ErrNothingToSpeak
	}
	if c.opts.Mode == ModeContinuous {
		lines = []string{strings.Join(lines, " ")}
	}

	c.lines = lines
	c.index = 0
	log.Debug("Queued lines", "count", len(lines), "mode", c.opts.Mode)

	c.speakCurrentLocked()
	return nil
}

// SkipNext moves to the next line. From the last line it ends the queue.
func (c *Controller) SkipNext() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return
	}
	if c.index >= len(c.lines)-1 {
		log.Debug("Skipped past the last line")
		c.backend.Stop()
		c.clearLocked()
		return
	}

	c.backend.Stop()
	c.index++
	c.speakCurrentLocked()
}

// SkipPrev moves to the previous line. From the first line it restarts
// that line.
func (c *Controller) SkipPrev() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return
	}

	c.backend.Stop()
	if c.index > 0 {
		c.index--
	}
	c.speakCurrentLocked()
}

// Stop halts speech and clears the queue and any prefetched audio.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.haltLocked()
}

// OnTick advances the queue once the backend finishes a line. It must be
// called periodically; now drives the inter-line delay.
func (c *Controller) OnTick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		c.wasActive = false
		return
	}

	if !c.pendingAt.IsZero() {
		if now.Before(c.pendingAt) {
			return
		}
		c.pendingAt = time.Time{}
		c.speakCurrentLocked()
		return
	}

	if c.backend.State().Active() {
		c.wasActive = true
		return
	}
	if !c.wasActive {
		return
	}
	c.wasActive = false

	c.index++
	if c.index >= len(c.lines) {
		log.Debug("Finished queue", "lines", len(c.lines))
		c.clearLocked()
		return
	}

	if c.opts.LineDelay > 0 {
		c.pendingAt = now.Add(c.opts.LineDelay)
		return
	}
	c.speakCurrentLocked()
}

// Lines returns a copy of the queued lines.
func (c *Controller) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// Index returns the cursor. It equals Len when the queue is exhausted.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Len returns the number of queued lines.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Active reports whether a queue is installed.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) > 0
}

// Current returns the request for the line under the cursor.
func (c *Controller) Current() (tts.Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index >= len(c.lines) {
		return tts.Request{}, false
	}
	raw := c.lines[c.index]
	return tts.NewRequest(raw, textfilter.Normalize(raw)), true
}

func (c *Controller) speakCurrentLocked() {
	raw := c.lines[c.index]
	text := textfilter.Normalize(raw)

	if c.opts.LogPreview {
		log.Info("Speaking", "line", c.index+1, "of", len(c.lines), "text", textfilter.Preview(text))
	}

	c.backend.Speak(text)
	c.wasActive = true
	c.pendingAt = time.Time{}

	if p, ok := c.backend.(tts.Prefetcher); ok && c.index+1 < len(c.lines) {
		p.Prefetch(textfilter.Normalize(c.lines[c.index+1]))
	}
}

// haltLocked stops the backend and drops the queue and prefetched audio.
func (c *Controller) haltLocked() {
	if c.backend == nil {
		return
	}
	c.backend.Stop()
	if p, ok := c.backend.(tts.Prefetcher); ok {
		p.ClearPrefetch()
	}
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.lines = nil
	c.index = 0
	c.wasActive = false
	c.pendingAt = time.Time{}
}
