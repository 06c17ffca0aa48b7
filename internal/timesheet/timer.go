package timesheet

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Phase of the live duration display
type Phase int

const (
	Idle Phase = iota
	Running
)

func (p Phase) String() string {
	if p == Running {
		return "running"
	}
	return "idle"
}

// TimerState is the live duration baseline. A zero OpenSince means no
// session is open. Transitions return new values and never mutate.
type TimerState struct {
	PastSeconds int64
	OpenSince   time.Time
}

// TimerFrom seeds the state from a reconstructed day so an employee who is
// mid-session starts Running instead of at zero.
func TimerFrom(r Reconstruction) TimerState {
	st := TimerState{PastSeconds: int64(r.Closed / time.Second)}
	if open := r.Open(); open != nil {
		st.OpenSince = time.UnixMilli(open.In.TimeStamp)
	}
	return st
}

func (s TimerState) Phase() Phase {
	if s.OpenSince.IsZero() {
		return Idle
	}
	return Running
}

func (s TimerState) Running() bool {
	return s.Phase() == Running
}

// CheckIn moves Idle to Running. Already running states are returned unchanged.
func (s TimerState) CheckIn(at time.Time) TimerState {
	if s.Running() {
		return s
	}
	s.OpenSince = at
	return s
}

// CheckOut folds the open session into PastSeconds and goes Idle
func (s TimerState) CheckOut(at time.Time) TimerState {
	if !s.Running() {
		return s
	}
	s.PastSeconds += elapsedSeconds(s.OpenSince, at)
	s.OpenSince = time.Time{}
	return s
}

// Seconds is the value to display at now
func (s TimerState) Seconds(now time.Time) int64 {
	if !s.Running() {
		return s.PastSeconds
	}
	return s.PastSeconds + elapsedSeconds(s.OpenSince, now)
}

// Display renders Seconds(now) as H:MM:SS
func (s TimerState) Display(now time.Time) string {
	return FormatClock(s.Seconds(now))
}

// FormatClock renders seconds as H:MM:SS
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

func elapsedSeconds(from, to time.Time) int64 {
	ms := to.UnixMilli() - from.UnixMilli()
	if ms < 0 {
		return 0
	}
	return ms / 1000
}

// Ticker emits the display value of a TimerState once per interval while the
// state is Running. At most one run is active; starting a new one cancels the
// previous.
type Ticker struct {
	Interval time.Duration
	Now      func() time.Time

	// runMu serializes Run so stopping the old run and installing the new
	// one happen as a unit
	runMu  sync.Mutex
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTicker() *Ticker {
	return &Ticker{Interval: time.Second, Now: time.Now}
}

// Run emits the current value immediately. Idle states stop there; Running
// states keep emitting until ctx is done, Stop is called, or Run is called again.
func (t *Ticker) Run(ctx context.Context, state TimerState, emit func(string)) {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	t.Stop()

	emit(state.Display(t.Now()))
	if !state.Running() {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.mu.Lock()
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	go func() {
		defer close(done)
		tick := time.NewTicker(t.Interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				emit(state.Display(t.Now()))
			}
		}
	}()
}

// Stop cancels the active run and waits for it to exit
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Active reports whether a run is in progress
func (t *Ticker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Wait blocks until the active run exits, if any
func (t *Ticker) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}
