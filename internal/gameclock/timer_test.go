package gameclock

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-xiangqi/internal/xiangqi"
)

func newMockTimer(initial, inc time.Duration) (*Timer, *clock.Mock) {
	mock := clock.NewMock()
	return New(initial, inc, WithClock(mock), WithTickInterval(time.Second)), mock
}

type recorder struct {
	mu  sync.Mutex
	evs []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
}

func (r *recorder) transitions() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, ev := range r.evs {
		if ev.Kind == EventTransition {
			out = append(out, ev.State)
		}
	}
	return out
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.evs {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestTimer_InitialState(t *testing.T) {
	tm, _ := newMockTimer(180*time.Second, 2*time.Second)
	require.Equal(t, 180*time.Second, tm.Remaining())
	require.Equal(t, Ready, tm.State())
	require.Equal(t, "03:00", tm.Formatted())
	require.False(t, tm.IsExpired())
}

func TestTimer_CountsDownWhileRunning(t *testing.T) {
	tm, mock := newMockTimer(180*time.Second, 2*time.Second)
	tm.Start()
	require.Equal(t, Running, tm.State())

	mock.Add(10 * time.Second)
	require.Equal(t, 170*time.Second, tm.Remaining())
	require.Equal(t, "02:50", tm.Formatted())
}

func TestTimer_PauseFreezes(t *testing.T) {
	tm, mock := newMockTimer(60*time.Second, 0)
	tm.Start()
	mock.Add(5 * time.Second)
	tm.Pause()
	require.Equal(t, Paused, tm.State())
	require.Equal(t, 55*time.Second, tm.Remaining())

	mock.Add(30 * time.Second)
	require.Equal(t, 55*time.Second, tm.Remaining())

	tm.Resume()
	mock.Add(5 * time.Second)
	require.Equal(t, 50*time.Second, tm.Remaining())
}

func TestTimer_ExpiresAtZero(t *testing.T) {
	tm, mock := newMockTimer(180*time.Second, 2*time.Second)
	tm.SetRemaining(time.Second)
	tm.Start()
	mock.Add(2 * time.Second)

	require.Equal(t, Expired, tm.State())
	require.Zero(t, tm.Remaining())
	require.True(t, tm.IsExpired())
	require.Equal(t, "00:00", tm.Formatted())

	// terminal until Reset
	tm.Start()
	tm.AddIncrement()
	tm.SetRemaining(time.Minute)
	require.Equal(t, Expired, tm.State())
	require.Zero(t, tm.Remaining())

	tm.Reset()
	require.Equal(t, Ready, tm.State())
	require.Equal(t, 180*time.Second, tm.Remaining())
}

func TestTimer_NoOps(t *testing.T) {
	tm, mock := newMockTimer(time.Minute, 3*time.Second)
	rec := &recorder{}
	tm.AddListener(rec.listen)

	tm.Pause()
	tm.Resume()
	require.Equal(t, Ready, tm.State())
	require.Empty(t, rec.transitions())

	tm.Start()
	mock.Add(time.Second)
	tm.Start()
	require.Equal(t, []State{Running}, rec.transitions())
	require.Equal(t, 59*time.Second, tm.Remaining())
}

func TestTimer_IncrementAndSetRemaining(t *testing.T) {
	tm, _ := newMockTimer(time.Minute, 3*time.Second)
	tm.AddIncrement()
	require.Equal(t, 63*time.Second, tm.Remaining())
	require.Equal(t, Ready, tm.State())

	tm.SetRemaining(-5 * time.Second)
	require.Zero(t, tm.Remaining())
	require.Equal(t, Ready, tm.State())

	tm.Start()
	require.Equal(t, Expired, tm.State())
}

func TestTimer_SetRemainingZeroWhileRunning(t *testing.T) {
	tm, _ := newMockTimer(time.Minute, 0)
	tm.Start()
	tm.SetRemaining(0)
	require.Equal(t, Expired, tm.State())
}

func TestTimer_ListenersSeeTransitionsAndTicks(t *testing.T) {
	tm, mock := newMockTimer(3*time.Second, 0)
	rec := &recorder{}
	id := tm.AddListener(rec.listen)

	tm.Start()
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return rec.count(EventTick) >= 1 }, time.Second, 5*time.Millisecond)

	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool {
		tr := rec.transitions()
		return len(tr) == 2 && tr[1] == Expired
	}, time.Second, 5*time.Millisecond)

	tm.RemoveListener(id)
	tm.Reset()
	require.Len(t, rec.transitions(), 2)
}

func TestTimer_ListenerMayQueryTimer(t *testing.T) {
	tm, _ := newMockTimer(time.Minute, 0)
	var seen time.Duration
	tm.AddListener(func(ev Event) {
		if ev.Kind == EventTransition && ev.State == Paused {
			seen = tm.Remaining()
		}
	})
	tm.Start()
	tm.Pause()
	require.Equal(t, time.Minute, seen)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "00:00", Format(-time.Second))
	require.Equal(t, "00:09", Format(9999*time.Millisecond))
	require.Equal(t, "59:59", Format(time.Hour-time.Millisecond))
	require.Equal(t, "1:00:00", Format(time.Hour))
	require.Equal(t, "1:30:05", Format(90*time.Minute+5*time.Second))
}

func TestMatchClock_Switch(t *testing.T) {
	mock := clock.NewMock()
	mc := NewMatchClock(time.Minute, 5*time.Second, WithClock(mock), WithTickInterval(time.Second))

	mc.Begin(xiangqi.Red)
	c, ok := mc.Running()
	require.True(t, ok)
	require.Equal(t, xiangqi.Red, c)

	mock.Add(10 * time.Second)
	mc.Switch(xiangqi.Red)
	red, black := mc.Remaining()
	require.Equal(t, 55*time.Second, red)
	require.Equal(t, time.Minute, black)
	require.Equal(t, Paused, mc.Timer(xiangqi.Red).State())
	require.Equal(t, Running, mc.Timer(xiangqi.Black).State())

	mock.Add(20 * time.Second)
	mc.Hand(xiangqi.Red)
	red, black = mc.Remaining()
	require.Equal(t, 55*time.Second, red)
	require.Equal(t, 40*time.Second, black)
	c, _ = mc.Running()
	require.Equal(t, xiangqi.Red, c)

	mc.Stop()
	_, ok = mc.Running()
	require.False(t, ok)
}

func TestMatchClock_OnExpireFiresOnce(t *testing.T) {
	mock := clock.NewMock()
	mc := NewMatchClock(2*time.Second, 0, WithClock(mock), WithTickInterval(time.Second))

	var mu sync.Mutex
	var flagged []xiangqi.Color
	mc.OnExpire(func(c xiangqi.Color) {
		mu.Lock()
		flagged = append(flagged, c)
		mu.Unlock()
	})

	snapshot := func() []xiangqi.Color {
		mu.Lock()
		defer mu.Unlock()
		return append([]xiangqi.Color(nil), flagged...)
	}

	mc.Begin(xiangqi.Black)
	mock.Add(3 * time.Second)
	require.True(t, mc.Timer(xiangqi.Black).IsExpired())
	require.Eventually(t, func() bool { return len(snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	mc.Timer(xiangqi.Red).SetRemaining(0)
	mc.Timer(xiangqi.Red).Start()
	require.True(t, mc.Timer(xiangqi.Red).IsExpired())
	require.Equal(t, []xiangqi.Color{xiangqi.Black}, snapshot())
}
