package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type fakeProfiles struct {
	byID    map[string]*models.Profile
	ensured []string
	audits  []string
}

func (f *fakeProfiles) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	for _, p := range f.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
}

func (f *fakeProfiles) FindByID(_ context.Context, id string) (*models.Profile, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
}

func (f *fakeProfiles) EnsureExists(_ context.Context, p *models.Profile) (*models.Profile, error) {
	f.ensured = append(f.ensured, p.ID)
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeProfiles) UpdatePassword(_ context.Context, id, hash string) error {
	p, ok := f.byID[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	p.PasswordHash = hash
	return nil
}

func (f *fakeProfiles) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.audits = append(f.audits, log.Action)
	return nil
}

type fakeTokens struct {
	mu      sync.Mutex
	byHash  map[string]*models.RefreshToken
	revoked []string
}

func (f *fakeTokens) Create(_ context.Context, t *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[t.TokenHash] = t
	return nil
}

func (f *fakeTokens) FindByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byHash[hash]; ok {
		return t, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "refresh token not found")
}

func (f *fakeTokens) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range f.byHash {
		if t.ID == id {
			t.RevokedAt = &now
		}
	}
	f.revoked = append(f.revoked, id)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range f.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

type fakeAccounts struct {
	profiles *fakeProfiles
	err      error
}

func (f *fakeAccounts) CreateStudentAccount(_ context.Context, p *models.Profile, _ *models.StudentRecord) error {
	if f.err != nil {
		return f.err
	}
	p.Role = models.RoleStudent
	f.profiles.byID[p.ID] = p
	return nil
}

func (f *fakeAccounts) CreateInstructorAccount(_ context.Context, p *models.Profile, _ *models.InstructorRecord) error {
	if f.err != nil {
		return f.err
	}
	p.Role = models.RoleInstructor
	f.profiles.byID[p.ID] = p
	return nil
}

type authFixture struct {
	svc      *AuthService
	profiles *fakeProfiles
	tokens   *fakeTokens
	accounts *fakeAccounts
	sessions *SessionService
}

func newAuthFixture(t *testing.T, cfg AuthConfig) authFixture {
	t.Helper()
	profiles := &fakeProfiles{byID: make(map[string]*models.Profile)}
	tokens := &fakeTokens{byHash: make(map[string]*models.RefreshToken)}
	accounts := &fakeAccounts{profiles: profiles}
	sessions := NewSessionService(nil)
	if cfg.AccessTokenSecret == "" {
		cfg.AccessTokenSecret = "test-secret"
	}
	if cfg.AccessTokenExpiry == 0 {
		cfg.AccessTokenExpiry = time.Hour
	}
	if cfg.RefreshTokenExpiry == 0 {
		cfg.RefreshTokenExpiry = 24 * time.Hour
	}
	svc := NewAuthService(AuthDeps{
		Profiles:    profiles,
		Tokens:      tokens,
		Accounts:    accounts,
		Sessions:    sessions,
		Coordinator: NewRefreshCoordinator(RefreshCoordinatorConfig{}),
	}, cfg)
	return authFixture{svc: svc, profiles: profiles, tokens: tokens, accounts: accounts, sessions: sessions}
}

func (f authFixture) seed(t *testing.T, id, email, password string, role models.UserRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	f.profiles.byID[id] = &models.Profile{ID: id, Email: email, PasswordHash: string(hash), FirstName: "Jane", LastName: "Doe", Role: role}
}

func TestSignupIssuesTokensAndPublishes(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{Issuer: "djschool"})
	var events []SessionEvent
	f.sessions.OnSessionChange(func(evt SessionEvent) { events = append(events, evt) })

	resp, err := f.svc.Signup(context.Background(), models.SignupRequest{
		Email: "jane@example.com", Password: "secret123", FirstName: "Jane", LastName: "Doe", Role: models.RoleInstructor,
	}, models.LoginRequest{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, resp.User.Role)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := f.svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "djschool", claims.Issuer)

	require.Len(t, events, 1)
	assert.Equal(t, SessionSignedIn, events[0].Type)
	assert.Contains(t, f.profiles.audits, models.AuditActionSignup)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{})
	f.accounts.err = appErrors.Clone(appErrors.ErrConflict, "duplicate key")

	_, err := f.svc.Signup(context.Background(), models.SignupRequest{
		Email: "jane@example.com", Password: "secret123", FirstName: "Jane", LastName: "Doe", Role: models.RoleStudent,
	}, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, "email is already registered", appErrors.FromError(err).Message)
}

func TestSignupShortPasswordFailsBeforeIO(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{PasswordMinLength: 10})
	f.accounts.err = errBoom

	_, err := f.svc.Signup(context.Background(), models.SignupRequest{
		Email: "jane@example.com", Password: "short", FirstName: "Jane", LastName: "Doe", Role: models.RoleStudent,
	}, models.LoginRequest{})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{})
	f.seed(t, "u1", "jane@example.com", "secret123", models.RoleStudent)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	resp, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{})
	f.seed(t, "u1", "jane@example.com", "secret123", models.RoleStudent)

	first, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	second, err := f.svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Len(t, f.tokens.revoked, 1)

	_, err = f.svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.True(t, appErrors.IsKind(err, appErrors.KindUnauthorized))
}

func TestLogoutRequiresOwnToken(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{})
	f.seed(t, "u1", "jane@example.com", "secret123", models.RoleStudent)
	resp, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = f.svc.Logout(context.Background(), resp.RefreshToken, "someone-else", models.LoginRequest{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, f.svc.Logout(context.Background(), resp.RefreshToken, "u1", models.LoginRequest{}))
}

func TestMeSynthesizesMissingProfile(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{})
	ctx := WithClaims(context.Background(), &models.JWTClaims{UserID: "u9", Email: "new@example.com", FirstName: "New", Role: "bogus"})

	profile, err := f.svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, profile.Role)
	assert.Equal(t, []string{"u9"}, f.profiles.ensured)

	_, err = f.svc.Me(ctx)
	require.NoError(t, err)
	assert.Len(t, f.profiles.ensured, 1)
}

func TestResetPasswordAdminOnly(t *testing.T) {
	f := newAuthFixture(t, AuthConfig{})
	f.seed(t, "u1", "jane@example.com", "secret123", models.RoleStudent)
	req := models.AdminResetPasswordRequest{NewPassword: "another-secret"}

	err := f.svc.ResetPassword(asUser(context.Background(), "u1", models.RoleStudent), "u1", req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, f.svc.ResetPassword(asUser(context.Background(), "admin-1", models.RoleAdmin), "u1", req))
	_, err = f.svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "another-secret"})
	assert.NoError(t, err)
}
