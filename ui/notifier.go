package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ityeti/herald/internal/app"
	"github.com/ityeti/herald/internal/tts"
)

type (
	stateMsg  tts.State
	statusMsg app.Status
)

// Notifier forwards session changes to a running program. Changes that
// arrive before Attach are replayed once a program is attached.
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program

	state     tts.State
	status    app.Status
	hasStatus bool
}

var _ app.Notifier = (*Notifier)(nil)

// Attach starts delivering messages to p. It may be called before p runs.
func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	n.program = p
	state, status, hasStatus := n.state, n.status, n.hasStatus
	n.mu.Unlock()

	// Send blocks until the program's event loop starts.
	go func() {
		p.Send(stateMsg(state))
		if hasStatus {
			p.Send(statusMsg(status))
		}
	}()
}

func (n *Notifier) SetState(s tts.State) {
	n.mu.Lock()
	n.state = s
	p := n.program
	n.mu.Unlock()

	if p != nil {
		p.Send(stateMsg(s))
	}
}

func (n *Notifier) SetStatus(s app.Status) {
	n.mu.Lock()
	n.status = s
	n.hasStatus = true
	p := n.program
	n.mu.Unlock()

	if p != nil {
		p.Send(statusMsg(s))
	}
}
