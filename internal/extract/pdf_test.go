package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_MissingFile(t *testing.T) {
	e := NewPDFExtractor()

	_, err := e.Extract(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "missing file should surface as fs error, got %v", err)
	assert.NotErrorIs(t, err, ErrExtraction)
}

func TestExtract_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a PDF"), 0o644))

	e := NewPDFExtractor()
	_, err := e.Extract(path)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtract_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	e := NewPDFExtractor()
	_, err := e.Extract(path)
	assert.ErrorIs(t, err, ErrExtraction)
}
