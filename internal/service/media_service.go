package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/djschool-api/internal/dto"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/storage"
)

// MediaBucket holds the background videos shown on the landing pages.
const MediaBucket = "backgrounds"

var defaultMediaTypes = []string{"video/mp4", "video/webm", "video/quicktime"}

type objectStore interface {
	SaveStream(bucket, name string, r io.Reader, maxBytes int64) (string, int64, error)
	Open(relPath string) (*os.File, error)
	List(bucket string) ([]storage.Object, error)
}

type urlSigner interface {
	Sign(relPath string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// MediaConfig tunes upload limits and public URLs.
type MediaConfig struct {
	APIPrefix    string
	MaxBytes     int64
	AllowedTypes []string
}

// MediaService stores uploaded media and issues signed public links.
type MediaService struct {
	store  objectStore
	signer urlSigner
	cfg    MediaConfig
	logger *zap.Logger
}

// NewMediaService constructs a MediaService.
func NewMediaService(store objectStore, signer urlSigner, cfg MediaConfig, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = defaultMediaTypes
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &MediaService{store: store, signer: signer, cfg: cfg, logger: logger}
}

// Upload saves a background video. The size limit is enforced while
// streaming so an oversized body never lands on disk.
func (s *MediaService) Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (*dto.MediaObject, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if s.cfg.MaxBytes > 0 && size > s.cfg.MaxBytes {
		return nil, tooLarge(s.cfg.MaxBytes)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !s.allowed(mediaType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported media type %q", contentType))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	name := uuid.NewString() + ext
	rel, written, err := s.store.SaveStream(MediaBucket, name, body, s.cfg.MaxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, tooLarge(s.cfg.MaxBytes)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	s.logger.Info("media uploaded", zap.String("path", rel), zap.Int64("bytes", written), zap.String("by", claims.UserID))
	return s.object(storage.Object{Path: rel, Size: written, UpdatedAt: time.Now().UTC()})
}

// List returns every stored background with a fresh public URL.
func (s *MediaService) List(ctx context.Context) ([]dto.MediaObject, error) {
	objects, err := s.store.List(MediaBucket)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list media")
	}
	out := make([]dto.MediaObject, 0, len(objects))
	for _, o := range objects {
		obj, err := s.object(o)
		if err != nil {
			return nil, err
		}
		out = append(out, *obj)
	}
	return out, nil
}

// PublicURL signs relPath for unauthenticated download.
func (s *MediaService) PublicURL(relPath string) (string, time.Time, error) {
	token, expires, err := s.signer.Sign(relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign media url")
	}
	return strings.TrimRight(s.cfg.APIPrefix, "/") + "/media/public/" + token, expires, nil
}

// Open resolves a signed token to its stored file.
func (s *MediaService) Open(token string) (*os.File, string, error) {
	rel, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "media link is invalid or expired")
	}
	file, err := s.store.Open(rel)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "media not found")
	}
	return file, filepath.Base(rel), nil
}

func (s *MediaService) object(o storage.Object) (*dto.MediaObject, error) {
	url, _, err := s.PublicURL(o.Path)
	if err != nil {
		return nil, err
	}
	return &dto.MediaObject{Path: o.Path, Size: o.Size, UpdatedAt: o.UpdatedAt, URL: url}, nil
}

func (s *MediaService) allowed(mediaType string) bool {
	for _, t := range s.cfg.AllowedTypes {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

func tooLarge(limit int64) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d MB", limit/(1024*1024)))
}
