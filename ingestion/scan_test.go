package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/relayout/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_second.layout.json"), tableLayout)
	writeFile(t, filepath.Join(dir, "a_first.json"), napaLayout)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	inputs, err := Scan(dir, core.CategoryPharma)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, "a_first", inputs[0].Name)
	assert.Equal(t, "b_second", inputs[1].Name)
	assert.Equal(t, core.CategoryPharma, inputs[0].Category)
	assert.Equal(t, napaLayout, string(inputs[0].Layout))
	assert.Equal(t, filepath.Join(dir, "a_first.json"), inputs[0].Path)
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), core.CategoryPharma)
	assert.Error(t, err)
}

func TestScanCategories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Herbal", "tulsi.json"), napaLayout)

	inputs, err := ScanCategories(root)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, core.CategoryHerbal, inputs[0].Category)
	assert.Equal(t, "tulsi", inputs[0].Name)
}
