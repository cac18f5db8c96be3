package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtract_Text(t *testing.T) {
	path := writeFile(t, "doc.txt", "Inspect the brake calipers weekly.")
	text, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Inspect the brake calipers weekly.", text)
}

func TestExtract_MarkdownStripsMarkup(t *testing.T) {
	path := writeFile(t, "doc.md", "# Door Maintenance\n\nInspect the **door seal** weekly.\n\n- check alignment\n- check the 24V supply\n")
	text, err := Extract(path)
	require.NoError(t, err)

	assert.Contains(t, text, "Door Maintenance")
	assert.Contains(t, text, "door seal")
	assert.Contains(t, text, "24V supply")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "doc.xyz", "data")
	_, err := Extract(path)
	assert.ErrorContains(t, err, "unsupported file format")
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", MimeType("manual.PDF"))
	assert.Equal(t, "text/plain", MimeType("notes.txt"))
	assert.Equal(t, "text/markdown", MimeType("readme.md"))
	assert.Equal(t, "application/octet-stream", MimeType("image.png"))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.docx"))
	assert.True(t, Supported("b.xlsx"))
	assert.False(t, Supported("c.png"))
}
