package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFilePlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some lecture notes"), 0o644))

	doc, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "some lecture notes", doc.Text)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.Zero(t, doc.Pages)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestFromFileInvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := FromFile(path)
	assert.Error(t, err)
}
