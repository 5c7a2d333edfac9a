package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandradar/bandradar/internal/core"
)

func TestReadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	content := "# shortlist\nVelvet Fox\n\nsong: Neon Rain\nband: The Hollow Suns\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := readBatchFile(path, core.NameTypeBand)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, batchEntry{name: "Velvet Fox", nameType: core.NameTypeBand}, entries[0])
	assert.Equal(t, batchEntry{name: "Neon Rain", nameType: core.NameTypeSong}, entries[1])
	assert.Equal(t, batchEntry{name: "The Hollow Suns", nameType: core.NameTypeBand}, entries[2])
}

func TestReadBatchFileMissing(t *testing.T) {
	_, err := readBatchFile(filepath.Join(t.TempDir(), "nope.txt"), core.NameTypeBand)
	assert.Error(t, err)
}

func TestNormalizeSources(t *testing.T) {
	assert.Nil(t, normalizeSources(nil))
	assert.Nil(t, normalizeSources([]string{" ", ""}))
	assert.Equal(t, []string{"spotify", "itunes"}, normalizeSources([]string{"Spotify, itunes", "spotify"}))
}
