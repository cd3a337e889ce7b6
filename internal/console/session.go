// Package console implements the admin-desk controllers: session
// restore, the verification console, attendance marking and the queue
// dashboard. Each controller drives the admissions API through a narrow
// interface satisfiable by the typed client.
package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/pkg/localstore"
)

// SessionKey is the local-store key the admin session lives under, the
// same key the browser app used.
const SessionKey = "adminSession"

// AdminSession is the durable record of a logged-in admin.
type AdminSession struct {
	Token     string           `json:"token"`
	Admin     models.AdminInfo `json:"admin"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

type tokenCarrier interface {
	SetToken(token string)
	ClearToken()
}

// SessionContext owns the admin session lifecycle: restore on startup,
// set on login, clear on logout or expiry. Components receive it
// injected instead of reading stored state ad hoc.
type SessionContext struct {
	store *localstore.Store
	api   tokenCarrier
	now   func() time.Time

	mu      sync.Mutex
	session *AdminSession
}

// NewSessionContext wires the context to its store and API client.
func NewSessionContext(store *localstore.Store, api tokenCarrier) *SessionContext {
	return &SessionContext{store: store, api: api, now: time.Now}
}

// Init restores a persisted session. An expired session is cleared
// rather than restored; a missing one is not an error, the desk just
// starts logged out.
func (s *SessionContext) Init() error {
	var session AdminSession
	err := s.store.Get(SessionKey, &session)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !s.now().Before(session.ExpiresAt) {
		return s.Clear()
	}

	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	s.api.SetToken(session.Token)
	return nil
}

// Set installs a fresh session from a login response and persists it.
func (s *SessionContext) Set(res *dto.AdminLoginResponse) error {
	session := AdminSession{
		Token:     res.Token,
		Admin:     res.Admin,
		ExpiresAt: s.now().Add(time.Duration(res.ExpiresIn) * time.Second),
	}
	if err := s.store.Put(SessionKey, session); err != nil {
		return err
	}

	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	s.api.SetToken(session.Token)
	return nil
}

// Clear logs the desk out: the stored session is deleted and the client
// token dropped. Called on logout and on a 401 from any console call.
func (s *SessionContext) Clear() error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	s.api.ClearToken()
	return s.store.Delete(SessionKey)
}

// Current returns a copy of the active session, or nil when logged out.
func (s *SessionContext) Current() *AdminSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// Active reports whether a non-expired session is installed.
func (s *SessionContext) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && s.now().Before(s.session.ExpiresAt)
}

// ExpiresIn reports the time left on the session, zero when logged out
// or already expired.
func (s *SessionContext) ExpiresIn() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return 0
	}
	if remaining := s.session.ExpiresAt.Sub(s.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Watch clears the session when it expires and invokes onExpire, so the
// desk can redirect to login. Returns immediately when logged out.
func (s *SessionContext) Watch(ctx context.Context, onExpire func()) {
	remaining := s.ExpiresIn()
	if remaining <= 0 {
		return
	}

	go func() {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			_ = s.Clear()
			if onExpire != nil {
				onExpire()
			}
		}
	}()
}
