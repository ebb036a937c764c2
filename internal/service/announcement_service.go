package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/htmlsanitize"
	"github.com/noah-isme/djschool-api/pkg/join"
	"github.com/noah-isme/djschool-api/pkg/query"
)

type announcementRepository interface {
	Create(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id string) error
	MarkRead(ctx context.Context, announcementID, userID string) (*models.AnnouncementRead, error)
}

// AnnouncementOptions controls how read state is reported.
type AnnouncementOptions struct {
	// NewWindow is how long an announcement counts as new for callers
	// without stored receipts.
	NewWindow time.Duration
	// StudentReceipts stores read receipts for students too.
	StudentReceipts bool
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	collections *Collections
	repo        announcementRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
	opts        AnnouncementOptions
	now         func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(collections *Collections, repo announcementRepository, coordinator *RefreshCoordinator, validate *validator.Validate, logger *zap.Logger, opts AnnouncementOptions) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.NewWindow <= 0 {
		opts.NewWindow = 7 * 24 * time.Hour
	}
	return &AnnouncementService{
		collections: collections,
		repo:        repo,
		coordinator: coordinator,
		validator:   ensureValidator(validate),
		logger:      logger,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *AnnouncementService) receipts(role models.UserRole) bool {
	return role != models.RoleStudent || s.opts.StudentReceipts
}

// List returns published announcements visible to the caller, newest
// first. Admins see every announcement.
func (s *AnnouncementService) List(ctx context.Context) ([]dto.AnnouncementView, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var where []query.Condition
	if claims.Role != models.RoleAdmin {
		where = append(where, schema.Announcements.TargetRoles.Contains(string(claims.Role)))
	}
	all, err := s.collections.Announcements.Fetch(ctx, where...).Unwrap()
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]dto.AnnouncementView, 0, len(all))
	for _, a := range all {
		if a.PublishedAt.After(now) {
			continue
		}
		views = append(views, dto.AnnouncementView{Announcement: a})
	}

	if !s.receipts(claims.Role) {
		for i := range views {
			views[i].IsNew = now.Sub(views[i].PublishedAt) < s.opts.NewWindow
		}
		return views, nil
	}

	reads, err := s.collections.Reads.Fetch(ctx, schema.Reads.UserID.Eq(claims.UserID)).Unwrap()
	if err != nil {
		return nil, err
	}
	byAnnouncement := join.Index(reads, func(r models.AnnouncementRead) string { return r.AnnouncementID })
	return join.Attach(views, byAnnouncement,
		func(v dto.AnnouncementView) (string, bool) { return join.Required(v.ID) },
		func(v *dto.AnnouncementView, r *models.AnnouncementRead) {
			v.Read = r != nil
			v.IsNew = r == nil
			if r != nil {
				at := r.ReadAt
				v.ReadAt = &at
			}
		}), nil
}

// UnreadCount counts views still flagged new.
func UnreadCount(views []dto.AnnouncementView) int {
	n := 0
	for _, v := range views {
		if v.IsNew {
			n++
		}
	}
	return n
}

// Create publishes an announcement authored by the caller.
func (s *AnnouncementService) Create(ctx context.Context, req models.CreateAnnouncementRequest) (Result[*models.Announcement], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.Announcement]{
		Name:         "announcements.create",
		RequireActor: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.Announcement, error) {
			a := &models.Announcement{
				Title:       htmlsanitize.PlainText(req.Title),
				Content:     htmlsanitize.Sanitize(req.Content),
				TargetRoles: normaliseRoles(req.TargetRoles),
			}
			if claims := ClaimsFrom(ctx); claims != nil {
				author := claims.UserID
				a.AuthorID = &author
			}
			if req.PublishedAt != nil {
				a.PublishedAt = req.PublishedAt.UTC()
			}
			if err := s.repo.Create(ctx, a); err != nil {
				return nil, err
			}
			return a, nil
		},
		Success:    "Announcement published",
		Invalidate: []string{TagAnnouncements},
	})
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id string) (Result[struct{}], error) {
	return RunMutation(ctx, s.coordinator, Mutation[struct{}]{
		Name:          "announcements.delete",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Write: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, id)
		},
		Success:    "Announcement deleted",
		Invalidate: []string{TagAnnouncements, TagReads},
	})
}

// MarkRead records that the caller read announcement id. Callers without
// stored receipts get an unsaved receipt back.
func (s *AnnouncementService) MarkRead(ctx context.Context, id string) (Result[*models.AnnouncementRead], error) {
	var persist bool
	return RunMutation(ctx, s.coordinator, Mutation[*models.AnnouncementRead]{
		Name:          "announcements.read",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			found, err := s.collections.Announcements.MaybeOne(ctx, schema.Announcements.ID.Eq(id))
			if err != nil {
				return err
			}
			if found == nil {
				return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
			}
			persist = s.receipts(ClaimsFrom(ctx).Role)
			return nil
		},
		Write: func(ctx context.Context) (*models.AnnouncementRead, error) {
			userID := ClaimsFrom(ctx).UserID
			if !persist {
				return &models.AnnouncementRead{AnnouncementID: id, UserID: userID, ReadAt: s.now().UTC()}, nil
			}
			return s.repo.MarkRead(ctx, id, userID)
		},
		Success:    "Marked as read",
		Invalidate: []string{TagReads},
	})
}

func normaliseRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if _, ok := seen[r]; ok || r == "" {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
