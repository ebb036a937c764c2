package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
)

type fakeAnnouncementRepo struct {
	created *models.Announcement
	reads   []string
}

func (f *fakeAnnouncementRepo) Create(_ context.Context, a *models.Announcement) error {
	a.ID = "an-new"
	f.created = a
	return nil
}

func (f *fakeAnnouncementRepo) Delete(context.Context, string) error { return nil }

func (f *fakeAnnouncementRepo) MarkRead(_ context.Context, announcementID, userID string) (*models.AnnouncementRead, error) {
	f.reads = append(f.reads, announcementID+":"+userID)
	return &models.AnnouncementRead{AnnouncementID: announcementID, UserID: userID, ReadAt: time.Now()}, nil
}

var announcementNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func announcementFixture(opts AnnouncementOptions, repo *fakeAnnouncementRepo) *AnnouncementService {
	readAt := announcementNow.Add(-time.Hour)
	collections := &Collections{
		Announcements: staticCollection(TagAnnouncements, []models.Announcement{
			{ID: "future", Title: "Soon", PublishedAt: announcementNow.Add(time.Hour)},
			{ID: "fresh", Title: "Fresh", PublishedAt: announcementNow.Add(-24 * time.Hour)},
			{ID: "old", Title: "Old", PublishedAt: announcementNow.Add(-30 * 24 * time.Hour)},
		}, nil),
		Reads: staticCollection(TagReads, []models.AnnouncementRead{{AnnouncementID: "old", UserID: "u1", ReadAt: readAt}}, nil),
	}
	svc := NewAnnouncementService(collections, repo, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil, nil, opts)
	svc.now = func() time.Time { return announcementNow }
	return svc
}

func TestStudentAnnouncementsUseNewWindow(t *testing.T) {
	svc := announcementFixture(AnnouncementOptions{NewWindow: 7 * 24 * time.Hour}, &fakeAnnouncementRepo{})

	views, err := svc.List(asUser(context.Background(), "u1", models.RoleStudent))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "fresh", views[0].ID)
	assert.True(t, views[0].IsNew)
	assert.False(t, views[1].IsNew)
	assert.False(t, views[1].Read)
	assert.Equal(t, 1, UnreadCount(views))
}

func TestInstructorAnnouncementsUseReceipts(t *testing.T) {
	svc := announcementFixture(AnnouncementOptions{}, &fakeAnnouncementRepo{})

	views, err := svc.List(asUser(context.Background(), "u1", models.RoleInstructor))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.False(t, views[0].Read)
	assert.True(t, views[1].Read)
	require.NotNil(t, views[1].ReadAt)
	assert.Equal(t, 1, UnreadCount(views))
}

func TestMarkReadPersistsOnlyWithReceipts(t *testing.T) {
	repo := &fakeAnnouncementRepo{}
	svc := announcementFixture(AnnouncementOptions{}, repo)

	res, err := svc.MarkRead(asUser(context.Background(), "u1", models.RoleStudent), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", res.Value.AnnouncementID)
	assert.Empty(t, repo.reads)

	_, err = svc.MarkRead(asUser(context.Background(), "u2", models.RoleInstructor), "fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh:u2"}, repo.reads)

	svc.opts.StudentReceipts = true
	_, err = svc.MarkRead(asUser(context.Background(), "u1", models.RoleStudent), "fresh")
	require.NoError(t, err)
	assert.Len(t, repo.reads, 2)
}

func TestCreateAnnouncementSanitises(t *testing.T) {
	repo := &fakeAnnouncementRepo{}
	svc := announcementFixture(AnnouncementOptions{}, repo)

	res, err := svc.Create(asUser(context.Background(), "admin-1", models.RoleAdmin), models.CreateAnnouncementRequest{
		Title:       "<b>Gig night</b>",
		Content:     `<p>Bring headphones</p><script>alert(1)</script>`,
		TargetRoles: []string{"student", "instructor"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Gig night", res.Value.Title)
	assert.NotContains(t, res.Value.Content, "<script>")
	assert.Contains(t, res.Value.Content, "Bring headphones")
	require.NotNil(t, res.Value.AuthorID)
	assert.Equal(t, "admin-1", *res.Value.AuthorID)
	assert.ElementsMatch(t, []string{"student", "instructor"}, []string(res.Value.TargetRoles))
}
