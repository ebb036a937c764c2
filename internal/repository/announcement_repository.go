package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
)

// AnnouncementRepository writes announcements and read receipts.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates an AnnouncementRepository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create publishes an announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}
	const query = `INSERT INTO announcements (id, title, content, author_id, target_roles, published_at, created_at)
        VALUES (:id, :title, :content, :author_id, :target_roles, :published_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return storeErr(err, "create announcement")
	}
	return nil
}

// Delete removes an announcement together with its receipts.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return storeErr(err, "delete announcement")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("announcement")
	}
	return nil
}

// MarkRead stores a receipt. The first read time is kept on repeats.
func (r *AnnouncementRepository) MarkRead(ctx context.Context, announcementID, userID string) (*models.AnnouncementRead, error) {
	const query = `INSERT INTO announcement_reads (announcement_id, user_id, read_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (announcement_id, user_id) DO UPDATE SET read_at = announcement_reads.read_at
        RETURNING announcement_id, user_id, read_at`
	var read models.AnnouncementRead
	if err := r.db.GetContext(ctx, &read, query, announcementID, userID, time.Now().UTC()); err != nil {
		return nil, storeErr(err, "mark announcement read")
	}
	return &read, nil
}
