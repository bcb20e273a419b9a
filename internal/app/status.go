package app

import (
	"github.com/charmbracelet/log"

	"github.com/ityeti/herald/internal/queue"
	"github.com/ityeti/herald/internal/tts"
)

// Status is the configuration shown on the status surface.
type Status struct {
	Engine     tts.Kind
	Voice      string
	Rate       int
	ReadMode   queue.Mode
	FilterCode bool
	AutoCopy   bool

	RegionActive bool
	AutoRead     bool

	// Line is the 1-based line being read; zero when the queue is empty.
	Line  int
	Lines int
}

// Notifier receives state and configuration changes.
type Notifier interface {
	SetState(tts.State)
	SetStatus(Status)
}

// LogNotifier reports changes to the log. It is used without a UI.
type LogNotifier struct{}

func (LogNotifier) SetState(s tts.State) {
	log.Info("State", "state", s)
}

func (LogNotifier) SetStatus(s Status) {
	log.Debug("Status",
		"engine", s.Engine, "voice", s.Voice, "rate", s.Rate, "mode", s.ReadMode,
		"region", s.RegionActive, "auto_read", s.AutoRead, "line", s.Line, "lines", s.Lines)
}

// nopNotifier discards everything.
type nopNotifier struct{}

func (nopNotifier) SetState(tts.State) {}
func (nopNotifier) SetStatus(Status)   {}
