package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-session/expiry"
	"github.com/jrsteele09/go-auth-session/identity"
	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/sessions"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dependencies holds the collaborators a Manager drives.
type Dependencies struct {
	Exchanger identity.Exchanger // Trades credentials for a token
	Store     sessions.Store     // Persists the current session
	Scheduler expiry.Scheduler   // Ends the session when its token expires
}

// Result is delivered by the asynchronous sign up and log in variants.
type Result struct {
	Session *sessions.Session
	Err     error
}

// Manager owns the current session. It is either authenticated, holding one
// Session, or anonymous. All state transitions are serialized by lock.
type Manager struct {
	deps      Dependencies
	verifier  token.Verifier   // Optional ID token verification
	publisher *publisher       // Replays the last session to observers
	logger    zerolog.Logger   // Structured logger
	nowTime   func() time.Time // nowTime function (injectable for testing)

	lock    sync.Mutex
	current *sessions.Session
	epoch   uint64 // Bumped by every logout; exchanges started in an older epoch are discarded
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTokenVerifier verifies every ID token before a session is created. The
// token's subject must match the user id returned by the provider.
func WithTokenVerifier(v token.Verifier) ManagerOption {
	return func(m *Manager) {
		m.verifier = v
	}
}

// NewManager creates an anonymous Manager.
func NewManager(deps Dependencies, options ...ManagerOption) (*Manager, error) {
	if deps.Exchanger == nil {
		return nil, errors.New("[NewManager] Exchanger is required")
	}
	if deps.Store == nil {
		return nil, errors.New("[NewManager] Store is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("[NewManager] Scheduler is required")
	}

	m := &Manager{
		deps:      deps,
		publisher: newPublisher(),
		logger:    log.Logger,
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// SignUp registers a new account and authenticates as it. Failures are
// returned as *ClassifiedError, or ErrExchangeSuperseded when a logout happened
// while the exchange was in flight.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*sessions.Session, error) {
	return m.authenticate(ctx, identity.SignUp, email, password)
}

// LogIn authenticates an existing account. Errors are as for SignUp.
func (m *Manager) LogIn(ctx context.Context, email, password string) (*sessions.Session, error) {
	return m.authenticate(ctx, identity.SignIn, email, password)
}

// SignUpAsync runs SignUp on its own goroutine. The channel yields exactly one
// Result and is then closed.
func (m *Manager) SignUpAsync(ctx context.Context, email, password string) <-chan Result {
	return m.async(ctx, identity.SignUp, email, password)
}

// LogInAsync runs LogIn on its own goroutine.
func (m *Manager) LogInAsync(ctx context.Context, email, password string) <-chan Result {
	return m.async(ctx, identity.SignIn, email, password)
}

// LogOut ends the current session: observers are told there is no session,
// the stored record is cleared and the expiry timer disarmed. It is safe to
// call when already anonymous.
func (m *Manager) LogOut(ctx context.Context) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.logOutLocked(ctx)
}

// Restore resumes a session persisted by an earlier process. A missing,
// unreadable, incomplete or expired record leaves the manager anonymous; a
// record that could be read but is unusable is removed. When already
// authenticated the current session is returned untouched.
func (m *Manager) Restore(ctx context.Context) *sessions.Session {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.current != nil {
		return m.current
	}

	rec := m.deps.Store.Load(ctx)
	if rec == nil {
		m.logger.Debug().Msg("No stored session to restore")
		m.publisher.publish(nil)
		return nil
	}

	s, err := sessions.FromRecord(rec)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Discarding invalid stored session")
		m.discardStoredLocked(ctx)
		return nil
	}

	now := m.nowTime()
	if !s.Valid(now) {
		m.logger.Info().Time("expires_at", s.ExpiresAt()).Msg("Discarding expired stored session")
		m.discardStoredLocked(ctx)
		return nil
	}

	m.logger.Info().Str("user_id", s.UserID()).Time("expires_at", s.ExpiresAt()).Msg("Session restored")
	m.authenticatedLocked(ctx, s, now, false)
	return s
}

// Subscribe registers o for session changes. o is called immediately with the
// current session (nil when anonymous) and then synchronously on every change.
// Observers must not call LogIn, SignUp, LogOut or Restore from the callback
// goroutine; Current is safe. The returned function unsubscribes.
func (m *Manager) Subscribe(o Observer) (unsubscribe func()) {
	return m.publisher.subscribe(o)
}

// Current returns the last published session, nil when anonymous.
func (m *Manager) Current() *sessions.Session {
	return m.publisher.current()
}

// Close releases the expiry timer at process shutdown. The stored session is
// kept so a later process can restore it.
func (m *Manager) Close() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.deps.Scheduler.Disarm()
}

func (m *Manager) async(ctx context.Context, mode identity.Mode, email, password string) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		s, err := m.authenticate(ctx, mode, email, password)
		results <- Result{Session: s, Err: err}
	}()
	return results
}

func (m *Manager) authenticate(ctx context.Context, mode identity.Mode, email, password string) (*sessions.Session, error) {
	m.lock.Lock()
	epoch := m.epoch
	m.lock.Unlock()

	logger := m.logger.With().Str("mode", mode.String()).Logger()

	resp, err := m.deps.Exchanger.Exchange(ctx, mode, email, password)
	if err != nil {
		classified := Classify(err)
		logger.Info().Err(err).Stringer("kind", classified.Kind).Msg("Credential exchange failed")
		return nil, classified
	}
	if resp == nil {
		logger.Error().Msg("Credential exchange returned no response")
		return nil, Classify(errors.ErrInternal)
	}

	expiresIn, err := resp.ExpiresInDuration()
	if err != nil {
		logger.Error().Err(err).Msg("Provider returned an unusable expiry")
		return nil, Classify(err)
	}

	if err := m.verify(ctx, resp); err != nil {
		logger.Error().Err(err).Msg("ID token rejected")
		return nil, Classify(err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.epoch != epoch {
		logger.Warn().Msg("Discarding credential exchange that completed after logout")
		return nil, errors.ErrExchangeSuperseded
	}

	now := m.nowTime()
	s := sessions.NewWithDuration(resp.Email, resp.LocalID, resp.IDToken, now, expiresIn)
	logger.Info().Str("user_id", s.UserID()).Time("expires_at", s.ExpiresAt()).Msg("Authenticated")
	m.authenticatedLocked(ctx, s, now, true)
	return s, nil
}

func (m *Manager) verify(ctx context.Context, resp *identity.Response) error {
	if m.verifier == nil {
		return nil
	}
	claims, err := m.verifier.Verify(ctx, resp.IDToken)
	if err != nil {
		return err
	}
	if claims.Subject != resp.LocalID {
		return errors.Wrapf(errors.ErrSubjectMismatch, "subject %q, user id %q", claims.Subject, resp.LocalID)
	}
	return nil
}

// authenticatedLocked makes s the current session: publish, persist, then arm
// the expiry timer for exactly the time remaining at now.
func (m *Manager) authenticatedLocked(ctx context.Context, s *sessions.Session, now time.Time, persist bool) {
	m.current = s
	m.publisher.publish(s)

	if persist {
		// The session is already live; a cancelled caller context must not stop it being stored
		if err := m.deps.Store.Save(context.WithoutCancel(ctx), s); err != nil {
			m.logger.Warn().Err(err).Msg("Unable to persist session")
		}
	}

	m.deps.Scheduler.Arm(s.ExpiresAt().Sub(now), func() {
		m.expire(s)
	})
}

// expire is the scheduler callback for s. It is a no-op once s has been
// replaced or logged out.
func (m *Manager) expire(s *sessions.Session) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.current != s {
		return
	}
	m.logger.Info().Str("user_id", s.UserID()).Msg("Session expired")
	m.logOutLocked(context.Background())
}

func (m *Manager) logOutLocked(ctx context.Context) {
	m.epoch++
	m.current = nil
	m.publisher.publish(nil)

	if err := m.deps.Store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn().Err(err).Msg("Unable to clear stored session")
	}
	m.deps.Scheduler.Disarm()
}

func (m *Manager) discardStoredLocked(ctx context.Context) {
	m.publisher.publish(nil)
	if err := m.deps.Store.Clear(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Unable to clear stored session")
	}
}
