package reveal

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules on the runtime's timers
type RealClock struct{}

// AfterFunc wraps time.AfterFunc
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Player drives a Machine: Delay, then one character every Interval.
// OnUpdate receives the visible prefix and whether the reveal is done.
type Player struct {
	Delay    time.Duration
	Interval time.Duration
	OnUpdate func(prefix string, done bool)

	clock   Clock
	mu      sync.Mutex
	cbMu    sync.Mutex // held while OnUpdate runs
	machine *Machine
	timer   Timer
	started bool
	stopped bool
	done    chan struct{}
	once    sync.Once
}

// NewPlayer creates a player for text using clock (RealClock when nil)
func NewPlayer(text string, clock Clock) *Player {
	if clock == nil {
		clock = RealClock{}
	}
	return &Player{
		Delay:    DefaultDelay,
		Interval: DefaultInterval,
		clock:    clock,
		machine:  New(text),
		done:     make(chan struct{}),
	}
}

// Start schedules the reveal. Calling it more than once has no effect.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true
	p.timer = p.clock.AfterFunc(p.Delay, p.begin)
}

// Stop cancels pending steps and waits for an update in progress to
// return. No update is reported once Stop returns. Stop must not be
// called from OnUpdate.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	p.cbMu.Lock()
	p.closeDone()
	p.cbMu.Unlock()
}

// Done is closed when the reveal is stopped or after the final update
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Prefix returns the visible text
func (p *Player) Prefix() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.Prefix()
}

// State returns the machine state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.State()
}

func (p *Player) begin() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.machine.Begin()
	p.afterStepLocked()
}

func (p *Player) tick() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.machine.Tick()
	p.afterStepLocked()
}

// afterStepLocked reports progress and schedules the next tick.
// Called with the lock held; releases it before invoking OnUpdate, and
// schedules the next step only after OnUpdate returns so updates never overlap.
func (p *Player) afterStepLocked() {
	prefix := p.machine.Prefix()
	done := !p.machine.Animating()
	onUpdate := p.OnUpdate
	p.timer = nil
	p.mu.Unlock()

	p.cbMu.Lock()
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		p.cbMu.Unlock()
		return
	}
	if onUpdate != nil {
		onUpdate(prefix, done)
	}
	p.cbMu.Unlock()

	if done {
		p.closeDone()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		p.timer = p.clock.AfterFunc(p.Interval, p.tick)
	}
}

func (p *Player) closeDone() {
	p.once.Do(func() { close(p.done) })
}
