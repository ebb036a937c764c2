package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Keys written into the response meta block.
const (
	MetaCacheHit       = "cache_hit"
	MetaProcessingTime = "processing_time_ms"
)

const metaKey = "djschool.meta"

type responseMeta struct {
	started time.Time
	fields  map[string]interface{}
}

// WithResponseMeta starts a per-request meta block that handlers annotate and
// response.JSON renders.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaKey, &responseMeta{started: time.Now(), fields: map[string]interface{}{}})
		c.Next()
	}
}

// Annotate sets one meta field for the current response.
func Annotate(c *gin.Context, key string, value interface{}) {
	if m := metaOf(c); m != nil {
		m.fields[key] = value
	}
}

// SetCacheHit records whether the payload came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	Annotate(c, MetaCacheHit, hit)
}

// ExtractMeta snapshots the meta block with the elapsed processing time.
// It returns nil when WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	m := metaOf(c)
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m.fields)+1)
	for k, v := range m.fields {
		out[k] = v
	}
	if _, ok := out[MetaProcessingTime]; !ok {
		out[MetaProcessingTime] = time.Since(m.started).Milliseconds()
	}
	return out
}

func metaOf(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	v, ok := c.Get(metaKey)
	if !ok {
		return nil
	}
	m, _ := v.(*responseMeta)
	return m
}
