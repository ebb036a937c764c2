package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type authProfileRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	EnsureExists(ctx context.Context, p *models.Profile) (*models.Profile, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type authTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type authAccountRepository interface {
	CreateStudentAccount(ctx context.Context, profile *models.Profile, student *models.StudentRecord) error
	CreateInstructorAccount(ctx context.Context, profile *models.Profile, instructor *models.InstructorRecord) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	SingleSession      bool
	PasswordMinLength  int
}

// AuthService provides signup, login and token rotation.
type AuthService struct {
	profiles    authProfileRepository
	tokens      authTokenRepository
	accounts    authAccountRepository
	sessions    *SessionService
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Profiles    authProfileRepository
	Tokens      authTokenRepository
	Accounts    authAccountRepository
	Sessions    *SessionService
	Coordinator *RefreshCoordinator
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(deps AuthDeps, config AuthConfig) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		profiles:    deps.Profiles,
		tokens:      deps.Tokens,
		accounts:    deps.Accounts,
		sessions:    deps.Sessions,
		coordinator: deps.Coordinator,
		validator:   ensureValidator(deps.Validator),
		logger:      logger,
		config:      config,
	}
}

// Signup creates a profile and a pending role record, then signs the new
// account in.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest, meta models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := checkPassword(req.Password, s.config.PasswordMinLength); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	profile := &models.Profile{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	switch req.Role {
	case models.RoleInstructor:
		err = s.accounts.CreateInstructorAccount(ctx, profile, &models.InstructorRecord{})
	default:
		err = s.accounts.CreateStudentAccount(ctx, profile, &models.StudentRecord{})
	}
	if err != nil {
		if appErrors.IsKind(err, appErrors.KindConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		return nil, err
	}

	s.coordinator.InvalidateTags(ctx, TagProfiles, TagStudents, TagInstructors)
	s.audit(ctx, profile.ID, models.AuditActionSignup, meta, `{"role":"`+string(profile.Role)+`"}`)
	return s.issue(ctx, profile, meta, SessionSignedIn)
}

// Login authenticates a user and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	profile, err := s.profiles.FindByEmail(ctx, req.Email)
	if err != nil {
		if appErrors.IsKind(err, appErrors.KindNotFound) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if profile.PasswordHash == "" {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if s.config.SingleSession {
		if err := s.tokens.RevokeAllForUser(ctx, profile.ID); err != nil {
			s.logger.Warn("failed to revoke previous refresh tokens", zap.Error(err))
		}
	}

	s.audit(ctx, profile.ID, models.AuditActionLogin, req, `{"status":"success"}`)
	return s.issue(ctx, profile, req, SessionSignedIn)
}

// Refresh exchanges a refresh token for a new pair. The used token is revoked.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	stored, err := s.tokens.FindByHash(ctx, hashToken(req.RefreshToken))
	if err != nil {
		if appErrors.IsKind(err, appErrors.KindNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, err
	}
	if !stored.Active(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	profile, err := s.profiles.FindByID(ctx, stored.UserID)
	if err != nil {
		if appErrors.IsKind(err, appErrors.KindNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, err
	}

	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.Error(err))
	}
	return s.issue(ctx, profile, models.LoginRequest{IP: req.IP, UserAgent: req.UserAgent}, SessionRefreshed)
}

// Logout revokes the provided refresh token of userID.
func (s *AuthService) Logout(ctx context.Context, refreshToken, userID string, meta models.LoginRequest) error {
	stored, err := s.tokens.FindByHash(ctx, hashToken(refreshToken))
	if err != nil {
		if appErrors.IsKind(err, appErrors.KindNotFound) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return err
	}
	if stored.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}
	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		return err
	}

	s.audit(ctx, userID, models.AuditActionLogout, meta, `{"status":"logout"}`)
	s.sessions.publish(SessionEvent{Type: SessionSignedOut, UserID: userID})
	return nil
}

// Me returns the caller's profile, rebuilding it from the token when the row
// is missing.
func (s *AuthService) Me(ctx context.Context) (*models.Profile, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.EnsureProfile(ctx, claims)
}

// EnsureProfile returns the profile of claims, creating it from the token's
// signup metadata if no row exists.
func (s *AuthService) EnsureProfile(ctx context.Context, claims *models.JWTClaims) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, claims.UserID)
	if err == nil {
		return profile, nil
	}
	if !appErrors.IsKind(err, appErrors.KindNotFound) {
		return nil, err
	}

	role := claims.Role
	if !role.Valid() {
		role = models.RoleStudent
	}
	s.logger.Info("synthesizing missing profile", zap.String("user_id", claims.UserID))
	profile, err = s.profiles.EnsureExists(ctx, &models.Profile{
		ID:        claims.UserID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      role,
	})
	if err != nil {
		return nil, err
	}
	s.coordinator.InvalidateTags(ctx, TagProfiles)
	return profile, nil
}

// ChangePassword changes the password for the given user ID.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if err := checkPassword(req.NewPassword, s.config.PasswordMinLength); err != nil {
		return err
	}

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	if err := s.setPassword(ctx, userID, req.NewPassword); err != nil {
		return err
	}
	s.audit(ctx, userID, models.AuditActionPasswordChange, models.LoginRequest{}, `{"status":"changed"}`)
	return nil
}

// ResetPassword sets a new password for any account. Callers must be admins.
func (s *AuthService) ResetPassword(ctx context.Context, targetID string, req models.AdminResetPasswordRequest) error {
	if claims := ClaimsFrom(ctx); claims == nil || claims.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if strings.TrimSpace(targetID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if err := checkPassword(req.NewPassword, s.config.PasswordMinLength); err != nil {
		return err
	}
	if err := s.setPassword(ctx, targetID, req.NewPassword); err != nil {
		return err
	}
	s.audit(ctx, targetID, models.AuditActionPasswordReset, models.LoginRequest{}, `{"by":"`+ClaimsFrom(ctx).UserID+`"}`)
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.profiles.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after password change", zap.Error(err))
	}
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) issue(ctx context.Context, profile *models.Profile, meta models.LoginRequest, evt SessionEventType) (*models.LoginResponse, error) {
	now := time.Now().UTC()
	accessToken, err := s.generateAccessToken(profile, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshValue, err := generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}
	refresh := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    profile.ID,
		TokenHash: hashToken(refreshValue),
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	s.sessions.publish(SessionEvent{Type: evt, UserID: profile.ID, Role: profile.Role, At: now})
	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     now,
		User: models.UserInfo{
			ID:        profile.ID,
			Email:     profile.Email,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Role:      profile.Role,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(profile *models.Profile, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:    profile.ID,
		Role:      profile.Role,
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   profile.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) audit(ctx context.Context, userID, action string, meta models.LoginRequest, values string) {
	if err := s.profiles.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &userID,
		NewValues:  []byte(values),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
