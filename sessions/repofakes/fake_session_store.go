package repofakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-session/sessions"
)

var _ sessions.Store = (*FakeSessionStore)(nil)

// FakeSessionStore is an in-memory sessions.Store that keeps the raw encoded
// record, so tests can seed it with corrupt data.
type FakeSessionStore struct {
	data   []byte
	saves  int
	clears int
	lock   sync.RWMutex
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{}
}

func (fs *FakeSessionStore) Save(_ context.Context, s *sessions.Session) error {
	data, err := sessions.NewRecord(s).Marshal()
	if err != nil {
		return err
	}

	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.data = data
	fs.saves++
	return nil
}

func (fs *FakeSessionStore) Load(_ context.Context) *sessions.Record {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.data == nil {
		return nil
	}
	rec, err := sessions.ParseRecord(fs.data)
	if err != nil {
		return nil
	}
	return rec
}

func (fs *FakeSessionStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.data = nil
	fs.clears++
	return nil
}

// Seed replaces the stored bytes without counting as a save.
func (fs *FakeSessionStore) Seed(data []byte) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.data = data
}

// SeedRecord stores rec as-is, without validation.
func (fs *FakeSessionStore) SeedRecord(rec sessions.Record) {
	data, _ := rec.Marshal()
	fs.Seed(data)
}

// Raw returns the stored bytes, nil when empty.
func (fs *FakeSessionStore) Raw() []byte {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.data
}

func (fs *FakeSessionStore) Saves() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.saves
}

func (fs *FakeSessionStore) Clears() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.clears
}
