package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSignerRoundTrip(t *testing.T) {
	signer := NewLinkSigner("secret", time.Hour)
	token, expires, err := signer.Sign("backgrounds/loop.mp4")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 2*time.Second)

	path, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "backgrounds/loop.mp4", path)
}

func TestLinkSignerRejectsForgedTokens(t *testing.T) {
	signer := NewLinkSigner("secret", time.Hour)
	token, _, err := signer.Sign("backgrounds/loop.mp4")
	require.NoError(t, err)

	parts := strings.Split(token, linkSep)
	parts[0] = "YmFja2dyb3VuZHMvb3RoZXIubXA0"
	_, err = signer.Verify(strings.Join(parts, linkSep))
	assert.ErrorIs(t, err, ErrLinkSignature)

	_, err = NewLinkSigner("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrLinkSignature)

	_, err = signer.Verify("garbage")
	assert.ErrorIs(t, err, ErrLinkMalformed)
}

func TestLinkSignerExpiry(t *testing.T) {
	signer := NewLinkSigner("secret", time.Minute)
	token, _, err := signer.Sign("backgrounds/loop.mp4")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestLinkSignerNeedsSecretAndPath(t *testing.T) {
	_, _, err := NewLinkSigner("", time.Hour).Sign("a.mp4")
	assert.Error(t, err)
	_, _, err = NewLinkSigner("secret", time.Hour).Sign("")
	assert.ErrorIs(t, err, ErrLinkMalformed)
}
