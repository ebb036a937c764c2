package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/middleware"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindJSON decodes the request body and renders a validation error on failure.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// respond renders the outcome of a mutation with its notice.
func respond[T any](c *gin.Context, status int, res service.Result[T], err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, status, res.Value, res.Notice)
}

// optionalDate parses a YYYY-MM-DD query parameter.
func optionalDate(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+key+", expected YYYY-MM-DD"))
		return nil, false
	}
	return &parsed, true
}

// withCacheMeta responds with cache hit metadata.
func withCacheMeta(c *gin.Context, data interface{}, hit bool, start time.Time) {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{middleware.MetaCacheHit: hit}
	}
	meta[middleware.MetaProcessingTime] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
