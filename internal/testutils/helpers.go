package testutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// ManifestDoc renders a markdown manifest for impl. Extra front matter lines
// go between the impl line and the closing fence; body becomes the description.
func ManifestDoc(impl, body string, frontMatter ...string) string {
	var b strings.Builder
	b.WriteString("---\nimpl: " + impl + "\n")
	for _, line := range frontMatter {
		b.WriteString(line + "\n")
	}
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}

// SetupCatalog writes files verbatim into a fresh temp directory and returns
// its absolute path. Keys are file names relative to the catalog root.
func SetupCatalog(t *testing.T, files map[string]string) string {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for catalog")
	WriteCatalog(t, dir, files)
	return dir
}

// WriteCatalog adds or replaces files in an existing catalog directory.
func WriteCatalog(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write %s", name)
	}
}

// SetupLoamCatalog initializes a loam repository in a temp directory and then
// seeds it with files.
func SetupLoamCatalog(t *testing.T, files map[string]string, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir := SetupCatalog(t, nil)
	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "Failed to init loam repo")
	WriteCatalog(t, dir, files)
	return dir, repo
}
