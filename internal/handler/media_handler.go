package handler

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/dto"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/response"
)

type mediaService interface {
	Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (*dto.MediaObject, error)
	List(ctx context.Context) ([]dto.MediaObject, error)
	Open(token string) (*os.File, string, error)
}

// MediaHandler serves background video uploads.
type MediaHandler struct {
	media mediaService
}

// NewMediaHandler constructs the handler.
func NewMediaHandler(media mediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload godoc
// @Summary Upload a background video
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Video file"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /media [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read upload"))
		return
	}
	defer file.Close()

	obj, err := h.media.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, obj)
}

// List godoc
// @Summary Stored background videos
// @Tags Media
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /media [get]
func (h *MediaHandler) List(c *gin.Context) {
	items, err := h.media.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Download godoc
// @Summary Download a video through a signed link
// @Tags Media
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /media/public/{token} [get]
func (h *MediaHandler) Download(c *gin.Context) {
	file, name, err := h.media.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media not found"))
		return
	}
	c.Header("Content-Disposition", "inline; filename=\""+name+"\"")
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), file)
}
