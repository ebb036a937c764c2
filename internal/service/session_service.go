package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type claimsKey struct{}

// WithClaims returns a context carrying the authenticated caller.
func WithClaims(ctx context.Context, claims *models.JWTClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the caller stored by WithClaims, or nil.
func ClaimsFrom(ctx context.Context) *models.JWTClaims {
	claims, _ := ctx.Value(claimsKey{}).(*models.JWTClaims)
	return claims
}

// SessionEventType enumerates session changes.
type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionRefreshed SessionEventType = "refreshed"
	SessionSignedOut SessionEventType = "signed_out"
)

// SessionEvent describes a change to a user's session.
type SessionEvent struct {
	Type   SessionEventType
	UserID string
	Role   models.UserRole
	At     time.Time
}

// SessionService is the read side of authentication: who is calling, with
// which role, and a subscription to session changes. It exposes no way to
// alter a session.
type SessionService struct {
	mu     sync.RWMutex
	subs   map[int]func(SessionEvent)
	nextID int
	logger *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{subs: make(map[int]func(SessionEvent)), logger: logger}
}

// CurrentUser returns the caller or an unauthorized error.
func (s *SessionService) CurrentUser(ctx context.Context) (*models.JWTClaims, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// CurrentRole returns the caller's role or an unauthorized error.
func (s *SessionService) CurrentRole(ctx context.Context) (models.UserRole, error) {
	claims, err := s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

// OnSessionChange registers cb for every session event and returns a
// function that removes it.
func (s *SessionService) OnSessionChange(cb func(SessionEvent)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = cb
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// publish delivers evt synchronously to every subscriber. A panicking
// subscriber is logged and skipped.
func (s *SessionService) publish(evt SessionEvent) {
	if s == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	s.mu.RLock()
	subs := make([]func(SessionEvent), 0, len(s.subs))
	for _, cb := range s.subs {
		subs = append(subs, cb)
	}
	s.mu.RUnlock()

	for _, cb := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("session subscriber panicked", zap.Any("panic", r), zap.String("event", string(evt.Type)))
				}
			}()
			cb(evt)
		}()
	}
}
