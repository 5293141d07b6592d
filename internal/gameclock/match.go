package gameclock

import (
	"sync"
	"time"

	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

// MatchClock pairs one Timer per side and keeps at most one of them running.
type MatchClock struct {
	mu       sync.Mutex
	timers   [2]*Timer
	onExpire func(xiangqi.Color)
	fired    bool
}

func NewMatchClock(initial, increment time.Duration, opts ...Option) *MatchClock {
	m := &MatchClock{}
	for _, c := range []xiangqi.Color{xiangqi.Red, xiangqi.Black} {
		side := c
		t := New(initial, increment, opts...)
		t.AddListener(func(ev Event) {
			if ev.Kind == EventTransition && ev.State == Expired {
				m.expired(side)
			}
		})
		m.timers[side] = t
	}
	return m
}

func (m *MatchClock) Timer(c xiangqi.Color) *Timer { return m.timers[c] }

// OnExpire registers the flag-fall callback. It runs at most once per clock,
// on the goroutine that observed expiry.
func (m *MatchClock) OnExpire(fn func(xiangqi.Color)) {
	m.mu.Lock()
	m.onExpire = fn
	m.mu.Unlock()
}

func (m *MatchClock) expired(c xiangqi.Color) {
	m.mu.Lock()
	fn := m.onExpire
	if m.fired {
		fn = nil
	}
	m.fired = true
	m.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

// Begin starts c's clock without crediting anyone.
func (m *MatchClock) Begin(c xiangqi.Color) {
	m.timers[c.Opponent()].Pause()
	m.timers[c].Start()
}

// Switch ends mover's turn: pause, credit the increment, start the opponent.
func (m *MatchClock) Switch(mover xiangqi.Color) {
	t := m.timers[mover]
	t.Pause()
	t.AddIncrement()
	m.timers[mover.Opponent()].Start()
}

// Hand gives the move back to c (takeback). No increment is credited or
// refunded.
func (m *MatchClock) Hand(to xiangqi.Color) {
	m.Begin(to)
}

func (m *MatchClock) Stop() {
	m.timers[xiangqi.Red].Pause()
	m.timers[xiangqi.Black].Pause()
}

// Running reports whose clock is ticking, if any.
func (m *MatchClock) Running() (xiangqi.Color, bool) {
	for _, c := range []xiangqi.Color{xiangqi.Red, xiangqi.Black} {
		if m.timers[c].State() == Running {
			return c, true
		}
	}
	return xiangqi.Red, false
}

// Remaining returns both sides' time, sampling the running one.
func (m *MatchClock) Remaining() (red, black time.Duration) {
	return m.timers[xiangqi.Red].Remaining(), m.timers[xiangqi.Black].Remaining()
}
