package gameclock

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultTickInterval is how often a running timer notifies listeners.
const DefaultTickInterval = 250 * time.Millisecond

type State int8

const (
	Ready State = iota
	Running
	Paused
	Expired
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int8(s))
	}
}

type EventKind int8

const (
	// EventTransition reports a state change (Previous -> State).
	EventTransition EventKind = iota
	// EventTick is the periodic notification while running.
	EventTick
	// EventAdjust reports an increment or an explicit SetRemaining.
	EventAdjust
)

type Event struct {
	Kind      EventKind
	State     State
	Previous  State
	Remaining time.Duration
}

type Listener func(Event)

type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

type options struct {
	clk  clock.Clock
	tick time.Duration
}

type Option func(*options)

// WithClock swaps the wall clock, e.g. for clock.NewMock() in tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clk = c
		}
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clk: clock.New(), tick: DefaultTickInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Timer is one player's countdown. Elapsed time is sampled from the clock on
// every query and tick, so tick jitter never drifts the remaining time.
// Listeners are called after the internal lock is released and must not call
// Timer mutators synchronously.
type Timer struct {
	mu        sync.Mutex
	clk       clock.Clock
	tick      time.Duration
	initial   time.Duration
	increment time.Duration
	remaining time.Duration
	state     State
	since     time.Time
	stop      chan struct{}
	listeners []listenerEntry
	nextID    ListenerID
}

func New(initial, increment time.Duration, opts ...Option) *Timer {
	o := buildOptions(opts)
	if initial < 0 {
		initial = 0
	}
	if increment < 0 {
		increment = 0
	}
	return &Timer{
		clk:       o.clk,
		tick:      o.tick,
		initial:   initial,
		increment: increment,
		remaining: initial,
		state:     Ready,
	}
}

func (t *Timer) Increment() time.Duration { return t.increment }

func (t *Timer) Initial() time.Duration { return t.initial }

// Start runs the timer from Ready or Paused. It is a no-op when Running or
// Expired. Starting with nothing left expires immediately.
func (t *Timer) Start() {
	t.apply(func() []Event {
		if t.state == Running || t.state == Expired {
			return nil
		}
		return t.startLocked()
	})
}

// Resume runs a paused timer; any other state is left alone.
func (t *Timer) Resume() {
	t.apply(func() []Event {
		if t.state != Paused {
			return nil
		}
		return t.startLocked()
	})
}

func (t *Timer) Pause() {
	t.apply(func() []Event {
		if t.state != Running {
			return nil
		}
		if evs := t.sampleLocked(); len(evs) > 0 {
			return evs
		}
		t.stopTickerLocked()
		return []Event{t.transitionLocked(Paused)}
	})
}

// AddIncrement credits the configured increment. Expired timers stay at zero.
func (t *Timer) AddIncrement() {
	t.apply(func() []Event {
		if t.state == Expired {
			return nil
		}
		if evs := t.sampleLocked(); len(evs) > 0 {
			return evs
		}
		t.remaining += t.increment
		return []Event{t.eventLocked(EventAdjust, t.state)}
	})
}

// SetRemaining overrides the remaining time (negative clamps to zero). A
// running timer set to zero expires; an expired timer ignores the call.
func (t *Timer) SetRemaining(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.apply(func() []Event {
		if t.state == Expired {
			return nil
		}
		if evs := t.sampleLocked(); len(evs) > 0 {
			return evs
		}
		t.remaining = d
		evs := []Event{t.eventLocked(EventAdjust, t.state)}
		if t.state == Running && d == 0 {
			t.stopTickerLocked()
			evs = append(evs, t.transitionLocked(Expired))
		}
		return evs
	})
}

// Reset restores the configured time and returns to Ready from any state.
func (t *Timer) Reset() {
	t.apply(func() []Event {
		t.stopTickerLocked()
		t.remaining = t.initial
		return []Event{t.transitionLocked(Ready)}
	})
}

func (t *Timer) Remaining() time.Duration {
	var d time.Duration
	t.apply(func() []Event {
		evs := t.sampleLocked()
		d = t.remaining
		return evs
	})
	return d
}

func (t *Timer) State() State {
	var s State
	t.apply(func() []Event {
		evs := t.sampleLocked()
		s = t.state
		return evs
	})
	return s
}

func (t *Timer) IsExpired() bool { return t.State() == Expired }

// Formatted renders the remaining time as MM:SS, or H:MM:SS from one hour up.
// Partial seconds are truncated.
func (t *Timer) Formatted() string { return Format(t.Remaining()) }

func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h, m, s := secs/3600, (secs/60)%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func (t *Timer) AddListener(fn Listener) ListenerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.listeners = append(t.listeners, listenerEntry{id: t.nextID, fn: fn})
	return t.nextID
}

func (t *Timer) RemoveListener(id ListenerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, l := range t.listeners {
		if l.id == id {
			t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
			return
		}
	}
}

// apply runs fn under the lock and delivers the events it produced to a
// snapshot of the listeners once the lock is dropped.
func (t *Timer) apply(fn func() []Event) {
	t.mu.Lock()
	evs := fn()
	var ls []Listener
	if len(evs) > 0 {
		ls = make([]Listener, len(t.listeners))
		for i, l := range t.listeners {
			ls[i] = l.fn
		}
	}
	t.mu.Unlock()

	for _, ev := range evs {
		for _, fn := range ls {
			fn(ev)
		}
	}
}

func (t *Timer) startLocked() []Event {
	if t.remaining <= 0 {
		t.remaining = 0
		return []Event{t.transitionLocked(Expired)}
	}
	t.since = t.clk.Now()
	ev := t.transitionLocked(Running)
	tk := t.clk.Ticker(t.tick)
	stop := make(chan struct{})
	t.stop = stop
	go t.run(tk, stop)
	return []Event{ev}
}

// sampleLocked charges the time elapsed since the last sample and expires
// the timer when nothing is left.
func (t *Timer) sampleLocked() []Event {
	if t.state != Running {
		return nil
	}
	now := t.clk.Now()
	t.remaining -= now.Sub(t.since)
	t.since = now
	if t.remaining > 0 {
		return nil
	}
	t.remaining = 0
	t.stopTickerLocked()
	return []Event{t.transitionLocked(Expired)}
}

func (t *Timer) transitionLocked(to State) Event {
	prev := t.state
	t.state = to
	return Event{Kind: EventTransition, State: to, Previous: prev, Remaining: t.remaining}
}

func (t *Timer) eventLocked(kind EventKind, s State) Event {
	return Event{Kind: kind, State: s, Previous: s, Remaining: t.remaining}
}

func (t *Timer) stopTickerLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) run(tk *clock.Ticker, stop chan struct{}) {
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			t.onTick(stop)
		}
	}
}

func (t *Timer) onTick(stop chan struct{}) {
	t.apply(func() []Event {
		// a stale ticker from an earlier run
		if t.stop != stop {
			return nil
		}
		if evs := t.sampleLocked(); len(evs) > 0 {
			return evs
		}
		return []Event{t.eventLocked(EventTick, Running)}
	})
}
