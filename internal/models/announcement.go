package models

import (
	"time"

	"github.com/lib/pq"
)

// Announcement is a broadcast message targeted at one or more roles.
type Announcement struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Content     string         `db:"content" json:"content"`
	AuthorID    *string        `db:"author_id" json:"author_id,omitempty"`
	TargetRoles pq.StringArray `db:"target_roles" json:"target_roles"`
	PublishedAt time.Time      `db:"published_at" json:"published_at"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// AnnouncementRead records that a user has read an announcement.
type AnnouncementRead struct {
	AnnouncementID string    `db:"announcement_id" json:"announcement_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	ReadAt         time.Time `db:"read_at" json:"read_at"`
}

// CreateAnnouncementRequest publishes an announcement.
type CreateAnnouncementRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Content     string     `json:"content" validate:"required,max=20000"`
	TargetRoles []string   `json:"target_roles" validate:"required,min=1,dive,role"`
	PublishedAt *time.Time `json:"published_at"`
}
