package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mosaic/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay())
	assert.Nil(t, cfg.CSS.Validate)
	assert.True(t, config.Bool(cfg.CSS.Validate, true))
}

func TestLoadOverlay(t *testing.T) {
	cfg, err := config.Load(map[string]any{
		"css": map[string]any{
			"validate": false,
			"lint":     map[string]any{"emptyRules": "error"},
		},
		"javascript": map[string]any{
			"format": map[string]any{"insertSpaceAfterCommaDelimiter": false},
		},
		"unrelated": 1,
	})
	require.NoError(t, err)

	assert.False(t, config.Bool(cfg.CSS.Validate, true))
	assert.Equal(t, map[string]string{"emptyRules": "error"}, cfg.CSS.Lint)
	require.NotNil(t, cfg.JavaScript.Format.InsertSpaceAfterCommaDelimiter)
	assert.False(t, *cfg.JavaScript.Format.InsertSpaceAfterCommaDelimiter)
	assert.Nil(t, cfg.JavaScript.Format.InsertSpaceBeforeAndAfterBinaryOperators)
	assert.Equal(t, 500, cfg.ValidationDelay)
}

func TestOverlayKeepsBase(t *testing.T) {
	base, err := config.Load(map[string]any{
		"css":             map[string]any{"lint": map[string]any{"emptyRules": "error"}},
		"validationDelay": 100,
	})
	require.NoError(t, err)

	cfg, err := config.Overlay(base, map[string]any{
		"css": map[string]any{"lint": map[string]any{"duplicateProperties": "ignore"}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"emptyRules": "error", "duplicateProperties": "ignore"}, cfg.CSS.Lint)
	assert.Equal(t, 100, cfg.ValidationDelay)
	assert.Equal(t, map[string]string{"emptyRules": "error"}, base.CSS.Lint)
}

func TestLoadRejectsWrongTypes(t *testing.T) {
	_, err := config.Load(map[string]any{"validationDelay": "soon"})
	assert.Error(t, err)
}

func TestLoadFromJSON(t *testing.T) {
	cfg, err := config.LoadFromJSON(strings.NewReader(`{"validationDelay": 0, "javascript": {"validate": false}}`))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Delay())
	assert.False(t, config.Bool(cfg.JavaScript.Validate, true))

	_, err = config.LoadFromJSON(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestLoadHCL(t *testing.T) {
	src := `
validation_delay = 250

css {
  validate = true
  lint = {
    emptyRules = "ignore"
    important  = "warning"
  }
}

javascript {
  format {
    insert_space_after_comma_delimiter = false
    insert_space_after_opening_and_before_closing_nonempty_braces = true
  }
}

editor {
  theme = "dark"
}
`
	cfg, err := config.LoadHCL([]byte(src), "settings.hcl")
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Delay())
	assert.True(t, config.Bool(cfg.CSS.Validate, false))
	assert.Equal(t, map[string]string{"emptyRules": "ignore", "important": "warning"}, cfg.CSS.Lint)
	assert.False(t, config.Bool(cfg.JavaScript.Format.InsertSpaceAfterCommaDelimiter, true))
	assert.True(t, config.Bool(cfg.JavaScript.Format.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces, false))
	assert.Nil(t, cfg.JavaScript.Validate)
}

func TestLoadHCLErrors(t *testing.T) {
	_, err := config.LoadHCL([]byte("css {"), "broken.hcl")
	assert.Error(t, err)

	_, err = config.LoadHCL([]byte(`validation_delay = "x"`), "typed.hcl")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"validationDelay": 10}`), 0o644))
	cfg, err := config.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ValidationDelay)

	hclPath := filepath.Join(dir, "settings.hcl")
	require.NoError(t, os.WriteFile(hclPath, []byte("validation_delay = 20\n"), 0o644))
	cfg, err = config.LoadFile(hclPath)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.ValidationDelay)

	_, err = config.LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"validationDelay": 1}`), 0o644))

	changes := make(chan config.Settings, 4)
	w, err := config.Watch(path, 20*time.Millisecond, func(s config.Settings) {
		changes <- s
	})
	require.NoError(t, err)
	defer w.Close()

	// unrelated files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`{"validationDelay": 42}`), 0o644))

	select {
	case s := <-changes:
		assert.Equal(t, 42, s.ValidationDelay)
	case <-time.After(5 * time.Second):
		t.Fatal("settings change was not observed")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatchRequiresHandler(t *testing.T) {
	_, err := config.Watch(filepath.Join(t.TempDir(), "x.json"), 0, nil)
	assert.Error(t, err)
}
