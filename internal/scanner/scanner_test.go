package scanner_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"mosaic/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"index.html":                "<p>index</p>",
		"pages/about.htm":           "<p>about</p>",
		"views/home.blade.php":      "<p>home</p>",
		"style.css":                 "a {}",
		".git/hooks/sample.html":    "",
		"node_modules/pkg/doc.html": "",
		"skipped.html":              "",
	})

	seen := map[string]string{}
	skip := func(path string, info fs.FileInfo) bool {
		return filepath.Base(path) == "skipped.html"
	}
	err := scanner.Scan(context.Background(), root, skip, func(path string, contents []byte) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		seen[filepath.ToSlash(rel)] = string(contents)
	})
	require.NoError(t, err)

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"index.html", "pages/about.htm", "views/home.blade.php"}, paths)
	assert.Equal(t, "<p>index</p>", seen["index.html"])
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.html": "", "b.html": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := scanner.Scan(ctx, root, nil, func(string, []byte) { calls++ })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestIsHostFile(t *testing.T) {
	tests := map[string]bool{
		"a.html":          true,
		"A.HTML":          true,
		"b.htm":           true,
		"c.blade.php":     true,
		"d.php":           false,
		"e.css":           false,
		"dir/f.html.orig": false,
	}
	for path, want := range tests {
		assert.Equal(t, want, scanner.IsHostFile(path), path)
	}
}
