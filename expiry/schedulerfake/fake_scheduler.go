package schedulerfake

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-session/expiry"
)

var _ expiry.Scheduler = (*FakeScheduler)(nil)

// FakeScheduler records Arm and Disarm calls and only fires when told to.
type FakeScheduler struct {
	lock      sync.Mutex
	fire      func()
	durations []time.Duration
	disarms   int
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (fs *FakeScheduler) Arm(d time.Duration, fire func()) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.fire = fire
	fs.durations = append(fs.durations, d)
}

func (fs *FakeScheduler) Disarm() {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.fire = nil
	fs.disarms++
}

// Armed reports whether a callback is pending.
func (fs *FakeScheduler) Armed() bool {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.fire != nil
}

// Fire runs the pending callback as if its timer had elapsed. It reports false
// when nothing was armed.
func (fs *FakeScheduler) Fire() bool {
	fs.lock.Lock()
	fire := fs.fire
	fs.fire = nil
	fs.lock.Unlock()

	if fire == nil {
		return false
	}
	fire()
	return true
}

// Callback returns the pending callback without consuming it, so tests can
// invoke it late, as a timer racing a disarm would.
func (fs *FakeScheduler) Callback() func() {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.fire
}

// Durations returns every duration passed to Arm, oldest first.
func (fs *FakeScheduler) Durations() []time.Duration {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return append([]time.Duration(nil), fs.durations...)
}

// LastDuration returns the most recently armed duration.
func (fs *FakeScheduler) LastDuration() time.Duration {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if len(fs.durations) == 0 {
		return 0
	}
	return fs.durations[len(fs.durations)-1]
}

func (fs *FakeScheduler) Disarms() int {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.disarms
}
