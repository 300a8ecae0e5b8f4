package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/expiry"
	"github.com/jrsteele09/go-auth-session/expiry/schedulerfake"
	"github.com/jrsteele09/go-auth-session/identity"
	"github.com/jrsteele09/go-auth-session/identity/exchangerfake"
	autherrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/sessions"
	"github.com/jrsteele09/go-auth-session/sessions/repofakes"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@b.com"
	testPassword = "pw"
	testUserID   = "uid-1"
	testToken    = "id-token-1"
)

var testStart = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// fakeClock is a settable time source
type fakeClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// recorder collects every published value
type recorder struct {
	lock   sync.Mutex
	values []*sessions.Session
}

func (r *recorder) observe(s *sessions.Session) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values = append(r.values, s)
}

func (r *recorder) all() []*sessions.Session {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]*sessions.Session(nil), r.values...)
}

func (r *recorder) count(match func(*sessions.Session) bool) int {
	n := 0
	for _, v := range r.all() {
		if match(v) {
			n++
		}
	}
	return n
}

func isNil(s *sessions.Session) bool    { return s == nil }
func isNotNil(s *sessions.Session) bool { return s != nil }

// testFixture holds all test dependencies
type testFixture struct {
	exchanger *exchangerfake.FakeExchanger
	store     *repofakes.FakeSessionStore
	scheduler *schedulerfake.FakeScheduler
	clock     *fakeClock
	observed  *recorder
	manager   *auth.Manager
}

// setupTestFixture creates a new test fixture with all dependencies. The
// recorder is subscribed straight away, so its first value is the initial nil.
func setupTestFixture(t *testing.T, options ...auth.ManagerOption) *testFixture {
	t.Helper()

	f := &testFixture{
		exchanger: exchangerfake.NewFakeExchanger(),
		store:     repofakes.NewFakeSessionStore(),
		scheduler: schedulerfake.NewFakeScheduler(),
		clock:     &fakeClock{now: testStart},
		observed:  &recorder{},
	}

	options = append([]auth.ManagerOption{
		auth.WithNowTime(f.clock.Now),
		auth.WithLogger(zerolog.Nop()),
	}, options...)

	m, err := auth.NewManager(auth.Dependencies{
		Exchanger: f.exchanger,
		Store:     f.store,
		Scheduler: f.scheduler,
	}, options...)
	require.NoError(t, err)
	f.manager = m

	unsubscribe := m.Subscribe(f.observed.observe)
	t.Cleanup(unsubscribe)
	return f
}

func successResponse(expiresIn string) *identity.Response {
	return &identity.Response{
		IDToken:   testToken,
		Email:     testEmail,
		ExpiresIn: expiresIn,
		LocalID:   testUserID,
	}
}

func providerError(code string) error {
	return &identity.ProviderError{
		StatusCode: 400,
		Body:       &identity.ErrorBody{Error: &identity.ErrorDetail{Code: 400, Message: code}},
	}
}

func validRecord(expiresAt time.Time) sessions.Record {
	return sessions.NewRecord(sessions.New(testEmail, testUserID, testToken, expiresAt))
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	full := auth.Dependencies{
		Exchanger: exchangerfake.NewFakeExchanger(),
		Store:     repofakes.NewFakeSessionStore(),
		Scheduler: schedulerfake.NewFakeScheduler(),
	}

	_, err := auth.NewManager(full)
	require.NoError(t, err)

	missing := map[string]func(d *auth.Dependencies){
		"Exchanger": func(d *auth.Dependencies) { d.Exchanger = nil },
		"Store":     func(d *auth.Dependencies) { d.Store = nil },
		"Scheduler": func(d *auth.Dependencies) { d.Scheduler = nil },
	}
	for name, unset := range missing {
		t.Run(name, func(t *testing.T) {
			deps := full
			unset(&deps)
			m, err := auth.NewManager(deps)
			require.Error(t, err)
			require.Contains(t, err.Error(), name+" is required")
			require.Nil(t, m)
		})
	}
}

func TestManager_LogIn(t *testing.T) {
	f := setupTestFixture(t)
	f.exchanger.Respond(successResponse("3600"))

	s, err := f.manager.LogIn(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.Equal(t, testEmail, s.Email())
	require.Equal(t, testUserID, s.UserID())
	require.Equal(t, testToken, s.Token())
	require.Equal(t, testStart.Add(3600*time.Second), s.ExpiresAt())

	require.Equal(t, []exchangerfake.Call{{Mode: identity.SignIn, Email: testEmail, Password: testPassword}}, f.exchanger.Calls())

	// Initial replay of nil, then exactly one authenticated publish
	require.Equal(t, []*sessions.Session{nil, s}, f.observed.all())
	require.Same(t, s, f.manager.Current())

	require.Equal(t, []time.Duration{time.Hour}, f.scheduler.Durations())
	require.True(t, f.scheduler.Armed())

	require.Equal(t, 1, f.store.Saves())
	rec := f.store.Load(context.Background())
	require.NotNil(t, rec)
	require.Equal(t, testUserID, rec.ID)
	require.Equal(t, "2026-10-19T13:00:00Z", rec.TokenExpirationDate)
}

func TestManager_SignUp(t *testing.T) {
	f := setupTestFixture(t)
	f.exchanger.Respond(successResponse("60"))

	s, err := f.manager.SignUp(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, testStart.Add(time.Minute), s.ExpiresAt())

	calls := f.exchanger.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, identity.SignUp, calls[0].Mode)
	require.Equal(t, time.Minute, f.scheduler.LastDuration())
}

func TestManager_ExchangeFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		resp    *identity.Response
		kind    auth.Kind
		message string
	}{
		{name: "email exists", err: providerError("EMAIL_EXISTS"), kind: auth.KindEmailExists, message: auth.MessageEmailExists},
		{name: "email not found", err: providerError("EMAIL_NOT_FOUND"), kind: auth.KindEmailNotFound, message: auth.MessageEmailNotFound},
		{name: "invalid password", err: providerError("INVALID_PASSWORD"), kind: auth.KindInvalidPassword, message: auth.MessageInvalidPassword},
		{name: "unknown code", err: providerError("TOO_MANY_ATTEMPTS_TRY_LATER"), kind: auth.KindUnknown, message: auth.MessageUnknown},
		{name: "transport", err: errors.New("dial tcp: connection refused"), kind: auth.KindUnknown, message: auth.MessageUnknown},
		{name: "bad expiry", resp: successResponse("soon"), kind: auth.KindUnknown, message: auth.MessageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			if tt.err != nil {
				f.exchanger.Fail(tt.err)
			} else {
				f.exchanger.Respond(tt.resp)
			}

			s, err := f.manager.LogIn(context.Background(), testEmail, testPassword)
			require.Nil(t, s)

			var classified *auth.ClassifiedError
			require.True(t, errors.As(err, &classified))
			require.Equal(t, tt.kind, classified.Kind)
			require.Equal(t, tt.message, classified.Message)

			require.Nil(t, f.manager.Current())
			require.Equal(t, []*sessions.Session{nil}, f.observed.all(), "failures publish nothing")
			require.Empty(t, f.scheduler.Durations())
			require.Equal(t, 0, f.store.Saves())
		})
	}
}

func TestManager_LogOut(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.manager.LogIn(ctx, testEmail, testPassword)
	require.NoError(t, err)

	f.manager.LogOut(ctx)

	require.Nil(t, f.manager.Current())
	require.Nil(t, f.store.Raw(), "store cleared")
	require.Equal(t, 1, f.store.Clears())
	require.False(t, f.scheduler.Armed())
	require.Equal(t, 1, f.scheduler.Disarms())
	require.Equal(t, 2, f.observed.count(isNil), "initial nil plus one logout publish")
}

func TestManager_LogOutWhenAnonymous(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.manager.LogOut(ctx)
	f.manager.LogOut(ctx)

	require.Nil(t, f.manager.Current())
	require.Equal(t, 2, f.store.Clears())
	require.Equal(t, 2, f.scheduler.Disarms())
	require.Equal(t, []*sessions.Session{nil, nil, nil}, f.observed.all(), "one publish per logout")
}

func TestManager_ExpiryLogsOut(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.exchanger.Respond(successResponse("3600"))

	s, err := f.manager.LogIn(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	require.Equal(t, testStart.Add(3600*time.Second), s.ExpiresAt())

	f.clock.Advance(3600 * time.Second)
	require.True(t, f.scheduler.Fire())

	require.Nil(t, f.manager.Current())
	require.Nil(t, f.store.Raw(), "storage cleared on expiry")
	require.Equal(t, []*sessions.Session{nil, s, nil}, f.observed.all())
}

func TestManager_SecondLogInSupersedesFirst(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.exchanger.Respond(successResponse("3600"))
	first, err := f.manager.LogIn(ctx, testEmail, testPassword)
	require.NoError(t, err)
	staleExpiry := f.scheduler.Callback()

	f.clock.Advance(10 * time.Minute)
	f.exchanger.Respond(&identity.Response{IDToken: "id-token-2", Email: "c@d.com", ExpiresIn: "1800", LocalID: "uid-2"})
	second, err := f.manager.LogIn(ctx, "c@d.com", testPassword)
	require.NoError(t, err)

	require.NotSame(t, first, second)
	require.Same(t, second, f.manager.Current())
	require.Equal(t, "uid-2", f.store.Load(ctx).ID)
	require.Equal(t, []time.Duration{time.Hour, 30 * time.Minute}, f.scheduler.Durations())
	require.True(t, f.scheduler.Armed())

	// A late fire from the first session's timer must not end the second
	staleExpiry()
	require.Same(t, second, f.manager.Current())
	require.Equal(t, 0, f.store.Clears())
}

func TestManager_StaleExpiryAfterLogOut(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.manager.LogIn(ctx, testEmail, testPassword)
	require.NoError(t, err)
	staleExpiry := f.scheduler.Callback()
	require.NotNil(t, staleExpiry)

	f.manager.LogOut(ctx)
	staleExpiry()

	require.Equal(t, 1, f.store.Clears(), "no double clear")
	require.Equal(t, 2, f.observed.count(isNil), "no second logout publish")
}

func TestManager_LogOutDuringExchange(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	started := f.exchanger.Hold()

	results := f.manager.LogInAsync(ctx, testEmail, testPassword)
	<-started

	f.manager.LogOut(ctx)
	f.exchanger.Release()

	res := <-results
	require.Nil(t, res.Session)
	require.ErrorIs(t, res.Err, autherrors.ErrExchangeSuperseded)

	require.Nil(t, f.manager.Current())
	require.Equal(t, 0, f.store.Saves())
	require.Empty(t, f.scheduler.Durations())
	require.Equal(t, 0, f.observed.count(isNotNil))
}

func TestManager_Async(t *testing.T) {
	f := setupTestFixture(t)
	f.exchanger.Respond(successResponse("3600")).Fail(providerError("EMAIL_EXISTS"))

	res, ok := <-f.manager.LogInAsync(context.Background(), testEmail, testPassword)
	require.True(t, ok)
	require.NoError(t, res.Err)
	require.Equal(t, testUserID, res.Session.UserID())

	results := f.manager.SignUpAsync(context.Background(), testEmail, testPassword)
	res = <-results
	require.True(t, auth.IsKind(res.Err, auth.KindEmailExists))
	_, ok = <-results
	require.False(t, ok, "channel is closed after the result")
}

func TestManager_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("valid record", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.SeedRecord(validRecord(testStart.Add(25 * time.Minute)))

		s := f.manager.Restore(ctx)
		require.NotNil(t, s)
		require.Equal(t, testUserID, s.UserID())
		require.Same(t, s, f.manager.Current())
		require.Equal(t, []time.Duration{25 * time.Minute}, f.scheduler.Durations())
		require.Equal(t, []*sessions.Session{nil, s}, f.observed.all())
		require.Equal(t, 0, f.store.Saves(), "restored session is not rewritten")
	})

	t.Run("expired record", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.SeedRecord(validRecord(testStart.Add(-time.Second)))

		require.Nil(t, f.manager.Restore(ctx))
		require.Nil(t, f.manager.Current())
		require.Empty(t, f.scheduler.Durations(), "expired record never arms the timer")
		require.Nil(t, f.store.Raw(), "stale record cleared")
		require.Equal(t, 0, f.observed.count(isNotNil))
	})

	t.Run("expires exactly now", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.SeedRecord(validRecord(testStart))

		require.Nil(t, f.manager.Restore(ctx))
		require.Empty(t, f.scheduler.Durations())
	})

	t.Run("missing record", func(t *testing.T) {
		f := setupTestFixture(t)

		require.Nil(t, f.manager.Restore(ctx))
		require.Nil(t, f.manager.Current())
		require.Empty(t, f.scheduler.Durations())
		require.Equal(t, 0, f.store.Clears())
	})

	t.Run("malformed record", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.Seed([]byte(`{"email": "a@b.com", "_token": `))

		require.NotPanics(t, func() {
			require.Nil(t, f.manager.Restore(ctx))
		})
		require.Nil(t, f.manager.Current())
		require.Empty(t, f.scheduler.Durations())
	})

	t.Run("partial record", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := validRecord(testStart.Add(time.Hour))
		rec.Token = ""
		f.store.SeedRecord(rec)

		require.Nil(t, f.manager.Restore(ctx))
		require.Empty(t, f.scheduler.Durations())
		require.Nil(t, f.store.Raw())
	})

	t.Run("already authenticated", func(t *testing.T) {
		f := setupTestFixture(t)
		s, err := f.manager.LogIn(ctx, testEmail, testPassword)
		require.NoError(t, err)
		f.store.SeedRecord(validRecord(testStart.Add(5 * time.Minute)))

		require.Same(t, s, f.manager.Restore(ctx))
		require.Len(t, f.scheduler.Durations(), 1)
		require.Len(t, f.observed.all(), 2)
	})
}

func TestManager_RestoreThenExpire(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.store.SeedRecord(validRecord(testStart.Add(time.Minute)))

	s := f.manager.Restore(ctx)
	require.NotNil(t, s)

	f.clock.Advance(time.Minute)
	require.True(t, f.scheduler.Fire())
	require.Nil(t, f.manager.Current())
	require.Nil(t, f.store.Raw())
}

func TestManager_SubscribeReplaysLast(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	s, err := f.manager.LogIn(ctx, testEmail, testPassword)
	require.NoError(t, err)

	late := &recorder{}
	unsubscribe := f.manager.Subscribe(late.observe)
	require.Equal(t, []*sessions.Session{s}, late.all(), "late subscriber sees the current session")

	f.manager.LogOut(ctx)
	require.Equal(t, []*sessions.Session{s, nil}, late.all())

	unsubscribe()
	unsubscribe()
	_, err = f.manager.LogIn(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.Len(t, late.all(), 2, "no deliveries after unsubscribe")
}

func TestManager_ObserverMayReadCurrent(t *testing.T) {
	f := setupTestFixture(t)
	var seen []*sessions.Session
	f.manager.Subscribe(func(s *sessions.Session) {
		seen = append(seen, f.manager.Current())
	})

	s, err := f.manager.LogIn(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, []*sessions.Session{nil, s}, seen)
}

func TestManager_Close(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.manager.LogIn(ctx, testEmail, testPassword)
	require.NoError(t, err)

	f.manager.Close()
	require.False(t, f.scheduler.Armed())
	require.NotNil(t, f.store.Raw(), "close keeps the stored session")
	require.Equal(t, 0, f.store.Clears())
}

type stubVerifier struct {
	claims *token.Claims
	err    error
}

func (v stubVerifier) Verify(_ context.Context, _ string) (*token.Claims, error) {
	return v.claims, v.err
}

func TestManager_TokenVerifier(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithTokenVerifier(stubVerifier{claims: &token.Claims{Subject: testUserID}}))
		f.exchanger.Respond(successResponse("3600"))

		_, err := f.manager.LogIn(ctx, testEmail, testPassword)
		require.NoError(t, err)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithTokenVerifier(stubVerifier{claims: &token.Claims{Subject: "someone-else"}}))
		f.exchanger.Respond(successResponse("3600"))

		_, err := f.manager.LogIn(ctx, testEmail, testPassword)
		require.True(t, auth.IsKind(err, auth.KindUnknown))
		require.Nil(t, f.manager.Current())
	})

	t.Run("rejected", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithTokenVerifier(stubVerifier{err: errors.New("bad signature")}))
		f.exchanger.Respond(successResponse("3600"))

		_, err := f.manager.LogIn(ctx, testEmail, testPassword)
		require.True(t, auth.IsKind(err, auth.KindUnknown))
		require.Equal(t, 0, f.store.Saves())
	})
}

func TestManager_RealTimerExpiry(t *testing.T) {
	exchanger := exchangerfake.NewFakeExchanger().Respond(successResponse("1"))
	store := repofakes.NewFakeSessionStore()

	m, err := auth.NewManager(auth.Dependencies{
		Exchanger: exchanger,
		Store:     store,
		Scheduler: expiry.NewTimerScheduler(),
	}, auth.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = m.LogIn(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NotNil(t, m.Current())

	require.Eventually(t, func() bool { return m.Current() == nil }, 3*time.Second, 10*time.Millisecond)
	require.Nil(t, store.Raw())
}
