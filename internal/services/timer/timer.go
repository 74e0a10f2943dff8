package timer

import (
	"sync"
	"time"
)

// Schedule returns the next fire time strictly after t.
type Schedule func(t time.Time) time.Time

// Every fires at a fixed interval.
func Every(d time.Duration) Schedule {
	return func(t time.Time) time.Time { return t.Add(d) }
}

// DailyAt fires once a day at the given UTC hour.
func DailyAt(hour int) Schedule {
	return func(t time.Time) time.Time {
		t = t.UTC()
		next := time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.UTC)
		if !next.After(t) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

type RepeatedTimer struct {
	schedule  Schedule
	function  func()
	now       func() time.Time
	mu        sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	isRunning bool
}

// NewRepeatedTimer starts a timer that calls function at every point of
// schedule. Calls never overlap: the next fire time is computed after the
// previous call returns.
func NewRepeatedTimer(schedule Schedule, function func()) *RepeatedTimer {
	rt := &RepeatedTimer{
		schedule: schedule,
		function: function,
		now:      time.Now,
	}
	rt.Start()
	return rt
}

func (rt *RepeatedTimer) Start() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.isRunning {
		return
	}

	rt.isRunning = true
	rt.stopChan = make(chan struct{})
	rt.done = make(chan struct{})
	go rt.loop(rt.stopChan, rt.done)
}

func (rt *RepeatedTimer) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		now := rt.now()
		t := time.NewTimer(rt.schedule(now).Sub(now))
		select {
		case <-t.C:
			rt.function()
		case <-stop:
			t.Stop()
			return
		}
	}
}

// Stop halts the timer and waits for an in-flight call to return.
func (rt *RepeatedTimer) Stop() {
	rt.mu.Lock()
	if !rt.isRunning {
		rt.mu.Unlock()
		return
	}
	rt.isRunning = false
	close(rt.stopChan)
	done := rt.done
	rt.mu.Unlock()
	<-done
}

// Next reports when the timer fires next.
func (rt *RepeatedTimer) Next() time.Time {
	return rt.schedule(rt.now())
}
