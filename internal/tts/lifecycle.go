package tts

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// utterance is the handle a worker goroutine holds for one Speak call.
type utterance struct {
	seq  uint64
	ctx  context.Context
	prev <-chan struct{} // closed once the previous worker has exited
	done chan struct{}   // closed by this worker on exit
}

// waitPrevious blocks until the previous worker released the engine.
func (u utterance) waitPrevious() {
	if u.prev != nil {
		<-u.prev
	}
}

// lifecycle tracks the state machine shared by both backends. Every Speak
// gets a fresh sequence number and context; bumping the sequence on Stop
// makes late state updates from a canceled worker no-ops.
type lifecycle struct {
	mu     sync.Mutex
	state  atomic.Int32
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// begin cancels the current utterance and starts a new one in state s.
func (l *lifecycle) begin(s State) utterance {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	ctx, cancel := context.WithCancel(context.Background())
	u := utterance{
		seq:  l.seq,
		ctx:  ctx,
		prev: l.done,
		done: make(chan struct{}),
	}
	l.cancel = cancel
	l.done = u.done
	l.state.Store(int32(s))
	return u
}

// halt cancels the current utterance and returns to Idle.
func (l *lifecycle) halt() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
	l.state.Store(int32(StateIdle))
}

// transition moves to s if seq is still the current utterance.
func (l *lifecycle) transition(seq uint64, s State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seq != seq {
		return false
	}
	l.state.Store(int32(s))
	return true
}

// finish returns to Idle if seq is still the current utterance.
func (l *lifecycle) finish(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seq != seq {
		return
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state.Store(int32(StateIdle))
}

// swap moves from one state to another, reporting whether it did.
func (l *lifecycle) swap(from, to State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.CompareAndSwap(int32(from), int32(to))
}

// current reports whether seq is still the live utterance.
func (l *lifecycle) current(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq == seq
}

func (l *lifecycle) get() State {
	return State(l.state.Load())
}

// drain waits up to timeout for the most recent worker to exit.
func (l *lifecycle) drain(timeout time.Duration) bool {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
