package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Settings are the user settings of the language server, keyed by
// embedded language. Pointer fields are unset when absent so the engines
// can apply their own defaults.
type Settings struct {
	CSS        CSSSettings        `json:"css"`
	JavaScript JavaScriptSettings `json:"javascript"`
	// ValidationDelay is the debounce of validation after an edit, in
	// milliseconds.
	ValidationDelay int `json:"validationDelay"`
}

type CSSSettings struct {
	Validate *bool            `json:"validate,omitempty"`
	Lint     map[string]string `json:"lint,omitempty"`
}

type JavaScriptSettings struct {
	Validate *bool            `json:"validate,omitempty"`
	Format   JavaScriptFormat `json:"format"`
}

type JavaScriptFormat struct {
	InsertSpaceAfterCommaDelimiter                              *bool `json:"insertSpaceAfterCommaDelimiter,omitempty"`
	InsertSpaceAfterSemicolonInForStatements                    *bool `json:"insertSpaceAfterSemicolonInForStatements,omitempty"`
	InsertSpaceBeforeAndAfterBinaryOperators                    *bool `json:"insertSpaceBeforeAndAfterBinaryOperators,omitempty"`
	InsertSpaceAfterKeywordsInControlFlowStatements             *bool `json:"insertSpaceAfterKeywordsInControlFlowStatements,omitempty"`
	InsertSpaceAfterFunctionKeywordForAnonymousFunctions        *bool `json:"insertSpaceAfterFunctionKeywordForAnonymousFunctions,omitempty"`
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis  *bool `json:"insertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis,omitempty"`
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets     *bool `json:"insertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets,omitempty"`
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces       *bool `json:"insertSpaceAfterOpeningAndBeforeClosingNonemptyBraces,omitempty"`
	InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces *bool `json:"insertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces,omitempty"`
}

var defaultSettings = Settings{
	ValidationDelay: 500,
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return defaultSettings
}

// Delay returns the validation debounce.
func (s Settings) Delay() time.Duration {
	if s.ValidationDelay < 0 {
		return 0
	}
	return time.Duration(s.ValidationDelay) * time.Millisecond
}

// Bool dereferences p, returning def when it is unset.
func Bool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Load overlays v, typically decoded LSP initialization options, onto the
// default settings.
func Load(v any) (Settings, error) {
	return Overlay(defaultSettings, v)
}

// Overlay applies the fields present in v on top of base. base is not
// modified.
func Overlay(base Settings, v any) (Settings, error) {
	cfg := base
	if base.CSS.Lint != nil {
		cfg.CSS.Lint = make(map[string]string, len(base.CSS.Lint))
		for rule, level := range base.CSS.Lint {
			cfg.CSS.Lint[rule] = level
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	// only fields present in src will overwrite.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal into Settings: %w", err)
	}

	return cfg, nil
}

// LoadFromJSON reads JSON from r into Settings.
func LoadFromJSON(r io.Reader) (Settings, error) {
	cfg := defaultSettings

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

// LoadFile reads a settings file. Files ending in .hcl are HCL, anything
// else is JSON.
func LoadFile(path string) (Settings, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		src, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, err
		}
		return LoadHCL(src, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	cfg, err := LoadFromJSON(f)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return cfg, nil
}
