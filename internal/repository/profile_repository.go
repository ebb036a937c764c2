package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
)

const profileColumns = `id, email, password_hash, first_name, last_name, role, avatar_url, phone, bio, created_at, updated_at`

// ProfileRepository persists identity records and their audit trail.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByEmail returns a profile, including its password hash, by email.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("profile")
		}
		return nil, storeErr(err, "find profile by email")
	}
	return &p, nil
}

// FindByID returns a profile, including its password hash, by id.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("profile")
		}
		return nil, storeErr(err, "find profile")
	}
	return &p, nil
}

// Create inserts a profile.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	return r.CreateTx(ctx, r.db, p)
}

// CreateTx inserts a profile using ext, which may be a transaction.
func (r *ProfileRepository) CreateTx(ctx context.Context, ext sqlx.ExtContext, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	const query = `INSERT INTO profiles (id, email, password_hash, first_name, last_name, role, avatar_url, phone, bio, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :first_name, :last_name, :role, :avatar_url, :phone, :bio, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, p); err != nil {
		return storeErr(err, "create profile")
	}
	return nil
}

// EnsureExists inserts p unless a profile with its id already exists, then
// returns the stored row.
func (r *ProfileRepository) EnsureExists(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	const query = `INSERT INTO profiles (id, email, password_hash, first_name, last_name, role, created_at, updated_at)
        VALUES ($1, $2, '', $3, $4, $5, $6, $6) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.FirstName, p.LastName, p.Role, now); err != nil {
		return nil, storeErr(err, "ensure profile")
	}
	return r.FindByID(ctx, p.ID)
}

// Update applies the non-nil fields of in and returns the stored row.
func (r *ProfileRepository) Update(ctx context.Context, id string, in models.ProfileUpdate) (*models.Profile, error) {
	const query = `UPDATE profiles SET
            first_name = COALESCE($2, first_name),
            last_name = COALESCE($3, last_name),
            phone = COALESCE($4, phone),
            bio = COALESCE($5, bio),
            avatar_url = COALESCE($6, avatar_url),
            updated_at = $7
        WHERE id = $1 RETURNING ` + profileColumns
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, id, in.FirstName, in.LastName, in.Phone, in.Bio, in.AvatarURL, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("profile")
		}
		return nil, storeErr(err, "update profile")
	}
	return &p, nil
}

// SetRoleTx changes a profile's role inside an admin conversion.
func (r *ProfileRepository) SetRoleTx(ctx context.Context, ext sqlx.ExtContext, id string, role models.UserRole) error {
	res, err := ext.ExecContext(ctx, `UPDATE profiles SET role = $2, updated_at = $3 WHERE id = $1`, id, role, time.Now().UTC())
	if err != nil {
		return storeErr(err, "set profile role")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("profile")
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *ProfileRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, time.Now().UTC())
	if err != nil {
		return storeErr(err, "update password")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("profile")
	}
	return nil
}

// CreateAuditLog records an audit entry.
func (r *ProfileRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :user_id, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return storeErr(err, "create audit log")
	}
	return nil
}
