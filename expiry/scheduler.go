// Package expiry arms the single one-shot timer that ends a session when its
// token expires.
package expiry

import (
	"sync"
	"time"
)

// Scheduler holds at most one pending callback.
type Scheduler interface {
	// Arm schedules fire to run once after d. Any previously armed callback is
	// disarmed first.
	Arm(d time.Duration, fire func())

	// Disarm cancels the pending callback, if any.
	Disarm()
}

var _ Scheduler = (*TimerScheduler)(nil)

// TimerScheduler implements Scheduler on time.AfterFunc.
type TimerScheduler struct {
	lock  sync.Mutex
	timer *time.Timer
	seq   uint64 // Identifies the armed timer; bumped on every Arm and Disarm
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

func (ts *TimerScheduler) Arm(d time.Duration, fire func()) {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	ts.stopLocked()
	id := ts.seq
	ts.timer = time.AfterFunc(d, func() {
		ts.lock.Lock()
		current := ts.seq == id
		if current {
			ts.timer = nil
			ts.seq++
		}
		ts.lock.Unlock()

		// A timer that lost the race with Disarm or a re-Arm stays silent
		if current {
			fire()
		}
	})
}

func (ts *TimerScheduler) Disarm() {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	ts.stopLocked()
}

// Armed reports whether a callback is pending.
func (ts *TimerScheduler) Armed() bool {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	return ts.timer != nil
}

func (ts *TimerScheduler) stopLocked() {
	ts.seq++
	if ts.timer != nil {
		ts.timer.Stop()
		ts.timer = nil
	}
}
