package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statement() Dataset {
	return Dataset{
		Title:   "Instructor payments",
		Headers: []string{"Instructor", "Hours", "Amount"},
		Rows: []map[string]string{
			{"Instructor": "Jane Doe", "Hours": "4.00", "Amount": "120.00"},
		},
		Footer: []map[string]string{{"Instructor": "Total", "Amount": "120.00"}},
	}
}

func TestCSVExporterRendersFooter(t *testing.T) {
	out, err := NewCSVExporter().Render(statement())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Instructor,Hours,Amount", lines[0])
	assert.Equal(t, "Jane Doe,4.00,120.00", lines[1])
	assert.Equal(t, ",,", lines[2])
	assert.Equal(t, "Total,,120.00", lines[3])
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(statement())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
