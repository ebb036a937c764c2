package htmlsanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
	assert.Equal(t, "Bring headphones", Sanitize("Bring headphones"))
	assert.Equal(t, "<p><strong>Mixing</strong> night</p>", Sanitize("<p><strong>Mixing</strong> night</p>"))
	assert.Equal(t, "<p>Hello</p>", Sanitize("<p>Hello</p><script>alert('x')</script>"))
	assert.NotContains(t, Sanitize(`<a href="javascript:alert(1)">x</a>`), "javascript:")
	assert.NotContains(t, Sanitize(`<button onclick="alert(1)">x</button>`), "onclick")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Beatmatching basics", PlainText("<h1>Beatmatching <em>basics</em></h1>"))
	assert.Equal(t, "", PlainText("<script>alert(1)</script>"))
}
