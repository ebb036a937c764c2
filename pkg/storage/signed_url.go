package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Link verification failures.
var (
	ErrLinkMalformed = errors.New("storage: malformed link token")
	ErrLinkSignature = errors.New("storage: link signature mismatch")
	ErrLinkExpired   = errors.New("storage: link expired")
)

const (
	linkSep = "~"
	sigSize = 18
)

// LinkSigner issues expiring tokens that grant unauthenticated read access to
// one stored object. A token is path~expiry~mac, each part URL-safe.
type LinkSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewLinkSigner builds a signer. A non-positive ttl means one day.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkSigner{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for relPath and the instant it stops working.
func (s *LinkSigner) Sign(relPath string) (string, time.Time, error) {
	if relPath == "" {
		return "", time.Time{}, ErrLinkMalformed
	}
	if len(s.key) == 0 {
		return "", time.Time{}, errors.New("storage: link signing secret is empty")
	}
	expires := s.now().Add(s.ttl).Truncate(time.Second)
	body := base64.RawURLEncoding.EncodeToString([]byte(relPath)) + linkSep + strconv.FormatInt(expires.Unix(), 36)
	return body + linkSep + s.mac(body), expires, nil
}

// Verify checks the token and returns the object path it grants.
func (s *LinkSigner) Verify(token string) (string, error) {
	cut := strings.LastIndex(token, linkSep)
	if cut <= 0 {
		return "", ErrLinkMalformed
	}
	body, sig := token[:cut], token[cut+1:]
	encPath, encExp, ok := strings.Cut(body, linkSep)
	if !ok {
		return "", ErrLinkMalformed
	}
	if !hmac.Equal([]byte(sig), []byte(s.mac(body))) {
		return "", ErrLinkSignature
	}
	exp, err := strconv.ParseInt(encExp, 36, 64)
	if err != nil {
		return "", ErrLinkMalformed
	}
	if !s.now().Before(time.Unix(exp, 0)) {
		return "", ErrLinkExpired
	}
	path, err := base64.RawURLEncoding.DecodeString(encPath)
	if err != nil || len(path) == 0 {
		return "", ErrLinkMalformed
	}
	return string(path), nil
}

func (s *LinkSigner) mac(body string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:sigSize])
}
