package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/dto"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type fakeMediaSrv struct {
	dir         string
	contentType string
	body        []byte
}

func (f *fakeMediaSrv) Upload(_ context.Context, filename, contentType string, size int64, body io.Reader) (*dto.MediaObject, error) {
	f.contentType = contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &dto.MediaObject{Path: "backgrounds/" + filename, Size: size}, nil
}

func (f *fakeMediaSrv) List(context.Context) ([]dto.MediaObject, error) {
	return []dto.MediaObject{}, nil
}

func (f *fakeMediaSrv) Open(token string) (*os.File, string, error) {
	if token != "good" {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "media link is invalid or expired")
	}
	file, err := os.Open(filepath.Join(f.dir, "loop.mp4"))
	return file, "loop.mp4", err
}

func TestMediaHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/media", nil)

	NewMediaHandler(&fakeMediaSrv{}).Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaHandlerUploadMultipart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="loop.mp4"`)
	header.Set("Content-Type", "video/mp4")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, _ = part.Write([]byte("frames"))
	require.NoError(t, writer.Close())

	srv := &fakeMediaSrv{}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/media", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	NewMediaHandler(srv).Upload(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "video/mp4", srv.contentType)
	assert.Equal(t, "frames", string(srv.body))
	assert.Equal(t, "backgrounds/loop.mp4", decode(t, rec).Data["path"])
}

func TestMediaHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loop.mp4"), []byte("frames"), 0o644))
	handler := NewMediaHandler(&fakeMediaSrv{dir: dir})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "token", Value: "good"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/media/public/good", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frames", rec.Body.String())

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "token", Value: "forged"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/media/public/forged", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
