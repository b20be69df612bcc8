package runtime

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aretw0/quire/pkg/domain"
)

// State is the lifecycle state of a render pass.
type State int32

const (
	StateStarted State = iota
	StateAccumulating
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateAccumulating:
		return "accumulating"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// IsTerminal reports whether no further transition is allowed out of s.
func IsTerminal(s State) bool {
	return s == StateCompleted || s == StateFailed
}

var passSeq atomic.Uint64

// Pass is one render pass. Transitions into Completed or Failed fire at
// most once; whichever wins the race decides the outcome.
type Pass struct {
	ID         uint64
	Output     domain.OutputKind
	Generation uint64 // container generation observed when the pass started
	StartedAt  time.Time

	state    atomic.Int32
	bytes    atomic.Int64
	notified atomic.Bool
}

// NewPass starts a pass for output over the tree at generation.
func NewPass(output domain.OutputKind, generation uint64) *Pass {
	return &Pass{
		ID:         passSeq.Add(1),
		Output:     output,
		Generation: generation,
		StartedAt:  time.Now(),
	}
}

// State returns the current state.
func (p *Pass) State() State {
	return State(p.state.Load())
}

// Bytes returns the number of bytes observed so far.
func (p *Pass) Bytes() int64 {
	return p.bytes.Load()
}

// Duration returns the time elapsed since the pass started.
func (p *Pass) Duration() time.Duration {
	return time.Since(p.StartedAt)
}

// Accumulate records n bytes of output. It reports false once the pass is terminal.
func (p *Pass) Accumulate(n int) bool {
	for {
		cur := p.State()
		switch cur {
		case StateStarted:
			if !p.state.CompareAndSwap(int32(cur), int32(StateAccumulating)) {
				continue
			}
		case StateAccumulating:
		default:
			return false
		}
		p.bytes.Add(int64(n))
		return true
	}
}

// Complete moves the pass to Completed. It reports whether this call made the transition.
func (p *Pass) Complete() bool {
	return p.terminate(StateCompleted)
}

// Fail moves the pass to Failed. It reports whether this call made the transition.
func (p *Pass) Fail() bool {
	return p.terminate(StateFailed)
}

func (p *Pass) terminate(to State) bool {
	for {
		cur := p.State()
		if IsTerminal(cur) {
			return false
		}
		if p.state.CompareAndSwap(int32(cur), int32(to)) {
			return true
		}
	}
}

// MarkNotified claims the single render-callback slot of the pass.
// It reports false if the callback already ran or the pass failed.
func (p *Pass) MarkNotified() bool {
	if p.State() == StateFailed {
		return false
	}
	return p.notified.CompareAndSwap(false, true)
}

// Notified reports whether the render callback slot was claimed.
func (p *Pass) Notified() bool {
	return p.notified.Load()
}
