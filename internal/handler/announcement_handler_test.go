package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type fakeAnnouncementSrv struct {
	views   []dto.AnnouncementView
	created bool
}

func (f *fakeAnnouncementSrv) List(context.Context) ([]dto.AnnouncementView, error) {
	return f.views, nil
}

func (f *fakeAnnouncementSrv) Create(context.Context, models.CreateAnnouncementRequest) (service.Result[*models.Announcement], error) {
	f.created = true
	return service.Result[*models.Announcement]{Value: &models.Announcement{ID: "a1"}, Notice: "Announcement published"}, nil
}

func (f *fakeAnnouncementSrv) Delete(context.Context, string) (service.Result[struct{}], error) {
	return service.Result[struct{}]{}, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
}

func (f *fakeAnnouncementSrv) MarkRead(context.Context, string) (service.Result[*models.AnnouncementRead], error) {
	return service.Result[*models.AnnouncementRead]{Value: &models.AnnouncementRead{AnnouncementID: "a1"}, Notice: "Saved"}, nil
}

func TestAnnouncementHandlerListCountsUnread(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAnnouncementSrv{views: []dto.AnnouncementView{{IsNew: true}, {IsNew: false}, {IsNew: true}}}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/announcements", nil)

	NewAnnouncementHandler(srv).List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":2`)
}

func TestAnnouncementHandlerCreateRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAnnouncementSrv{}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/announcements", bytes.NewBufferString(`{"title":`))
	c.Request.Header.Set("Content-Type", "application/json")

	NewAnnouncementHandler(srv).Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, srv.created)
}

func TestAnnouncementHandlerDeleteMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	c.Request = httptest.NewRequest(http.MethodDelete, "/announcements/nope", nil)

	NewAnnouncementHandler(&fakeAnnouncementSrv{}).Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "announcement not found", decode(t, rec).Error.Message)
}

func TestAnnouncementHandlerMarkRead(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/announcements/a1/read", nil)

	NewAnnouncementHandler(&fakeAnnouncementSrv{}).MarkRead(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Saved", decode(t, rec).Notice)
}
