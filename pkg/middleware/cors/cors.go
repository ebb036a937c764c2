package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Options controls the CORS policy. An empty Origins list admits any origin
// without credentials.
type Options struct {
	Origins []string
	Headers []string
	Methods []string
	MaxAge  time.Duration
}

var (
	defaultHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	defaultMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
)

// New returns middleware for origins with the default headers and methods.
func New(origins []string) gin.HandlerFunc {
	return WithOptions(Options{Origins: origins})
}

// WithOptions returns middleware enforcing opts. Preflight requests are
// answered directly with 204.
func WithOptions(opts Options) gin.HandlerFunc {
	if len(opts.Headers) == 0 {
		opts.Headers = defaultHeaders
	}
	if len(opts.Methods) == 0 {
		opts.Methods = defaultMethods
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 10 * time.Minute
	}
	allowed := make(map[string]bool, len(opts.Origins))
	for _, o := range opts.Origins {
		if o = normalize(o); o != "" {
			allowed[o] = true
		}
	}
	open := len(allowed) == 0 || allowed["*"]
	headers := strings.Join(opts.Headers, ", ")
	methods := strings.Join(opts.Methods, ", ")
	maxAge := strconv.Itoa(int(opts.MaxAge.Seconds()))

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
		case open:
			h.Set("Access-Control-Allow-Origin", "*")
		case allowed[normalize(origin)]:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		default:
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
