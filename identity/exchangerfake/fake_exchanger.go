package exchangerfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-session/identity"
)

var _ identity.Exchanger = (*FakeExchanger)(nil)

// Call records one Exchange invocation.
type Call struct {
	Mode     identity.Mode
	Email    string
	Password string
}

type result struct {
	resp *identity.Response
	err  error
}

// FakeExchanger returns queued results in order. When the queue is empty it
// answers with the default response. Setting a gate makes Exchange block until
// the gate is released, for exercising in-flight races.
type FakeExchanger struct {
	lock     sync.Mutex
	queue    []result
	fallback result
	calls    []Call
	gate     chan struct{}
	started  chan struct{}
}

func NewFakeExchanger() *FakeExchanger {
	return &FakeExchanger{
		fallback: result{resp: &identity.Response{
			IDToken:   "fake-id-token",
			Email:     "fake@example.com",
			ExpiresIn: "3600",
			LocalID:   "fake-local-id",
		}},
	}
}

// Respond queues a successful response.
func (fe *FakeExchanger) Respond(resp *identity.Response) *FakeExchanger {
	fe.lock.Lock()
	defer fe.lock.Unlock()

	fe.queue = append(fe.queue, result{resp: resp})
	return fe
}

// Fail queues an error.
func (fe *FakeExchanger) Fail(err error) *FakeExchanger {
	fe.lock.Lock()
	defer fe.lock.Unlock()

	fe.queue = append(fe.queue, result{err: err})
	return fe
}

// Hold makes subsequent exchanges block until Release is called. The returned
// channel receives once per exchange that reaches the gate.
func (fe *FakeExchanger) Hold() <-chan struct{} {
	fe.lock.Lock()
	defer fe.lock.Unlock()

	fe.gate = make(chan struct{})
	fe.started = make(chan struct{}, 16)
	return fe.started
}

// Release unblocks held exchanges.
func (fe *FakeExchanger) Release() {
	fe.lock.Lock()
	defer fe.lock.Unlock()

	if fe.gate != nil {
		close(fe.gate)
		fe.gate = nil
	}
}

func (fe *FakeExchanger) Exchange(ctx context.Context, mode identity.Mode, email, password string) (*identity.Response, error) {
	fe.lock.Lock()
	fe.calls = append(fe.calls, Call{Mode: mode, Email: email, Password: password})
	next := fe.fallback
	if len(fe.queue) > 0 {
		next = fe.queue[0]
		fe.queue = fe.queue[1:]
	}
	gate, started := fe.gate, fe.started
	fe.lock.Unlock()

	if gate != nil {
		started <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return next.resp, next.err
}

// Calls returns every recorded invocation.
func (fe *FakeExchanger) Calls() []Call {
	fe.lock.Lock()
	defer fe.lock.Unlock()

	return append([]Call(nil), fe.calls...)
}
