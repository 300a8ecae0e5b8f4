package auth

import (
	"slices"
	"sync"

	"github.com/jrsteele09/go-auth-session/sessions"
)

// Observer receives the new session on every change; nil means no session.
type Observer func(*sessions.Session)

// publisher is an observer registry that remembers the last published value
// and replays it to new subscribers.
type publisher struct {
	deliver sync.Mutex // Serializes deliveries so a replay is never overtaken

	lock      sync.Mutex // Guards the fields below; never held while calling observers
	last      *sessions.Session
	observers map[uint64]Observer
	nextID    uint64
}

func newPublisher() *publisher {
	return &publisher{
		observers: make(map[uint64]Observer),
	}
}

// subscribe registers o and delivers the cached value to it.
func (p *publisher) subscribe(o Observer) func() {
	p.deliver.Lock()
	defer p.deliver.Unlock()

	p.lock.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = o
	last := p.last
	p.lock.Unlock()

	o(last)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.lock.Lock()
			delete(p.observers, id)
			p.lock.Unlock()
		})
	}
}

// publish caches s and calls every observer synchronously, in subscription
// order.
func (p *publisher) publish(s *sessions.Session) {
	p.deliver.Lock()
	defer p.deliver.Unlock()

	p.lock.Lock()
	p.last = s
	ids := make([]uint64, 0, len(p.observers))
	for id := range p.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, p.observers[id])
	}
	p.lock.Unlock()

	for _, o := range observers {
		o(s)
	}
}

func (p *publisher) current() *sessions.Session {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.last
}
