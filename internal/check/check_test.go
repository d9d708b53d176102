package check_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"mosaic/internal/check"
	"mosaic/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChecker(t *testing.T, settings config.Settings) *check.Checker {
	t.Helper()
	c, err := check.New(context.Background(), settings)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestRunDirectory(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.html":          "<style>a{}</style>\n",
		"pages/b.html":    "<script>\nlet x = 1;\nlet x = 2;\n</script>\n",
		"clean.html":      "<p>nothing</p>\n",
		"ignored.css":     "a {}\n",
		".cache/old.html": "<style>a{}</style>\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	report, err := newChecker(t, config.Default()).Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Files)
	assert.Equal(t, 1, report.Warnings)
	assert.GreaterOrEqual(t, report.Errors, 1)

	var out bytes.Buffer
	require.NoError(t, report.Write(&out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(report.Findings))

	warning := regexp.MustCompile(`^` + regexp.QuoteMeta(filepath.Join(root, "a.html")) + `:1:\d+: warning: .+ \[css\]$`)
	assert.Regexp(t, warning, lines[0])
	errorLine := regexp.MustCompile(`^` + regexp.QuoteMeta(filepath.Join(root, "pages", "b.html")) + `:3:\d+: error: .+ \[js\]$`)
	assert.Regexp(t, errorLine, lines[len(lines)-1])
}

func TestRunExplicitStyleSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.css")
	require.NoError(t, os.WriteFile(path, []byte("a {}\n"), 0o644))

	settings := config.Default()
	settings.CSS.Lint = map[string]string{"emptyRules": "error"}
	report, err := newChecker(t, settings).Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Files)
	assert.Equal(t, 1, report.Errors)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, path, report.Findings[0].Path)
}

func TestRunMissingPath(t *testing.T) {
	_, err := newChecker(t, config.Default()).Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
