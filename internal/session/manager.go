package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Authenticator verifies credentials against the admin API
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*LoginPayload, error)
}

// RemoteVerifier is implemented by authenticators that can ask the API
// whether a token is still accepted.
type RemoteVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used for session diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

type subscriber struct {
	id int
	fn func(Session)
}

// Manager is the single owner of the admin session and of the persisted
// credential record. All transitions go through its methods.
type Manager struct {
	mu          sync.Mutex
	store       Store
	authn       Authenticator
	validate    *validator.Validate
	logger      zerolog.Logger
	state       Session
	subscribers []subscriber
	nextSubID   int
}

// NewManager creates a manager with an Empty session. Call LoadFromStorage to
// pick up a previously persisted session.
func NewManager(store Store, authn Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		authn:    authn,
		validate: validator.New(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns a copy of the current session
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// GetToken returns the current bearer token, if any
func (m *Manager) GetToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.IsAuthenticated {
		return "", false
	}
	return m.state.AuthToken, true
}

// Subscribe registers fn to be called after every committed transition. The
// returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subscribers = slices.DeleteFunc(m.subscribers, func(s subscriber) bool {
			return s.id == id
		})
	}
}

// LoadFromStorage rebuilds the session from the persisted record. It never
// fails: missing, corrupt or under-privileged records all end in an Empty
// session, and the last two also clear storage.
func (m *Manager) LoadFromStorage() Session {
	m.mu.Lock()
	token, user, state := m.readRecordLocked()

	var next Session
	switch state {
	case recordAdmin:
		next = adminSession(user, token)
		m.logger.Debug().Int64("user_id", user.ID).Msg("Restored admin session from storage")
	case recordInvalid:
		if err := m.clearStorageLocked(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to clear invalid credential record")
		}
	}

	subs := m.commitLocked(next)
	m.mu.Unlock()

	m.notify(subs, next)
	return next.clone()
}

// Login sends credentials to the admin API. Rejected credentials and
// non-admin accounts fail with the same AuthenticationError. Transport
// failures are returned as NetworkError.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*LoginPayload, error) {
	if err := m.validate.Struct(creds); err != nil {
		m.logger.Debug().Err(err).Msg("Login refused: malformed credentials")
		return nil, NewAuthenticationError()
	}

	payload, err := m.authn.Login(ctx, creds)
	if err != nil {
		if IsNetworkError(err) {
			return nil, err
		}
		m.logger.Debug().Err(err).Msg("Login rejected by admin API")
		return nil, NewAuthenticationError()
	}
	if payload == nil || payload.Token == "" {
		m.logger.Debug().Msg("Login response carried no token")
		return nil, NewAuthenticationError()
	}

	user := payload.User()
	if !user.IsAdmin() {
		m.logger.Debug().Int64("user_id", user.ID).Msg("Login refused: admin role missing")
		return nil, NewAuthenticationError()
	}

	m.mu.Lock()
	if err := m.persistLocked(payload.Token, user); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	next := adminSession(user, payload.Token)
	subs := m.commitLocked(next)
	m.mu.Unlock()

	m.notify(subs, next)
	m.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("Admin logged in")

	return payload, nil
}

// VerifyAuth checks the persisted record without any network call. A corrupt
// or under-privileged record forces a logout.
func (m *Manager) VerifyAuth() bool {
	_, ok := m.verifyLocal()
	return ok
}

// VerifyRemote runs VerifyAuth and then asks the API whether the token is
// still valid. A rejected token forces a logout. Network failures are
// returned and leave the session untouched.
func (m *Manager) VerifyRemote(ctx context.Context) (bool, error) {
	token, ok := m.verifyLocal()
	if !ok {
		return false, nil
	}

	verifier, ok := m.authn.(RemoteVerifier)
	if !ok {
		return true, nil
	}

	valid, err := verifier.Verify(ctx, token)
	if err != nil {
		if IsNetworkError(err) {
			return false, err
		}
		m.logger.Debug().Err(err).Msg("Token rejected by admin API")
		valid = false
	}
	if !valid {
		m.endSessionIfToken(token, "token rejected by admin API")
		return false, nil
	}
	return true, nil
}

// Logout clears the persisted record and resets the session. Calling it on
// an Empty session is harmless. The session is reset even when clearing
// storage fails; the storage error is returned.
func (m *Manager) Logout() error {
	m.mu.Lock()
	err := m.clearStorageLocked()
	subs := m.commitLocked(Session{})
	m.mu.Unlock()

	m.notify(subs, Session{})
	return err
}

// UpdateUser replaces the stored user record, keeping the token. A record
// without the admin marker ends the session.
func (m *Manager) UpdateUser(user UserRecord) error {
	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if !user.IsAdmin() {
		subs := m.endSessionLocked("updated user lacks admin role")
		m.mu.Unlock()

		m.notify(subs, Session{})
		return NewAuthenticationError()
	}

	updated := user.clone()
	data, err := json.Marshal(updated)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to marshal user record: %w", err)
	}
	if err := m.store.Set(UserKey, string(data)); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to save user record: %w", err)
	}

	next := adminSession(updated, m.state.AuthToken)
	subs := m.commitLocked(next)
	m.mu.Unlock()

	m.notify(subs, next)
	return nil
}

type recordState int

const (
	recordMissing recordState = iota
	recordInvalid
	recordAdmin
)

// readRecordLocked reads both credential slots and classifies them
func (m *Manager) readRecordLocked() (string, *UserRecord, recordState) {
	token, ok, err := m.store.Get(TokenKey)
	if err != nil {
		return "", nil, m.readFailure(TokenKey, err)
	}
	if !ok || token == "" {
		return "", nil, recordMissing
	}

	raw, ok, err := m.store.Get(UserKey)
	if err != nil {
		return "", nil, m.readFailure(UserKey, err)
	}
	if !ok || raw == "" {
		return "", nil, recordMissing
	}

	var user UserRecord
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.logger.Warn().
			Err(&StorageCorruptionError{Key: UserKey, Err: err}).
			Msg("Discarding unreadable credential record")
		return "", nil, recordInvalid
	}

	if !user.IsAdmin() {
		m.logger.Info().Int64("user_id", user.ID).Msg("Discarding stored session without admin role")
		return "", nil, recordInvalid
	}

	return token, &user, recordAdmin
}

// readFailure classifies a store read error. A backend that reports
// corruption gets the record cleared; any other failure is treated as no
// record at all.
func (m *Manager) readFailure(key string, err error) recordState {
	var corrupt *StorageCorruptionError
	if errors.As(err, &corrupt) {
		m.logger.Warn().Err(err).Msg("Discarding unreadable credential record")
		return recordInvalid
	}
	m.logger.Warn().Err(err).Str("key", key).Msg("Failed to read credential store")
	return recordMissing
}

// verifyLocal classifies the stored record and ends the session under the
// same lock when the record is invalid.
func (m *Manager) verifyLocal() (string, bool) {
	m.mu.Lock()
	token, _, state := m.readRecordLocked()
	if state != recordInvalid {
		m.mu.Unlock()
		return token, state == recordAdmin
	}

	subs := m.endSessionLocked("stored credential record is invalid")
	m.mu.Unlock()

	m.notify(subs, Session{})
	return "", false
}

// endSessionIfToken ends the session only while token is still the stored
// one. A login that completed during the remote check is kept.
func (m *Manager) endSessionIfToken(token, reason string) {
	m.mu.Lock()
	current, _, err := m.store.Get(TokenKey)
	if err == nil && current != token {
		m.mu.Unlock()
		m.logger.Debug().Str("reason", reason).Msg("Stored token changed, keeping session")
		return
	}

	subs := m.endSessionLocked(reason)
	m.mu.Unlock()

	m.notify(subs, Session{})
}

// endSessionLocked clears storage and commits an Empty session. The caller
// notifies the returned subscribers after unlocking.
func (m *Manager) endSessionLocked(reason string) []subscriber {
	m.logger.Info().Str("reason", reason).Msg("Ending admin session")
	if err := m.clearStorageLocked(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear credential store")
	}
	return m.commitLocked(Session{})
}

func (m *Manager) persistLocked(token string, user *UserRecord) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}

	if err := m.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}
	if err := m.store.Set(UserKey, string(data)); err != nil {
		// Never leave a token without its user record behind
		_ = m.store.Delete(TokenKey)
		return fmt.Errorf("failed to save user record: %w", err)
	}
	return nil
}

func (m *Manager) clearStorageLocked() error {
	return errors.Join(
		m.store.Delete(TokenKey),
		m.store.Delete(UserKey),
	)
}

// commitLocked installs next and returns the subscribers to notify once the
// lock is released.
func (m *Manager) commitLocked(next Session) []subscriber {
	m.state = next.clone()
	return slices.Clone(m.subscribers)
}

func (m *Manager) notify(subs []subscriber, next Session) {
	for _, s := range subs {
		s.fn(next.clone())
	}
}
