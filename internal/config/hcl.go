package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclSettingsFile is the layout of an HCL settings file:
//
//	validation_delay = 250
//	css {
//	  validate = true
//	  lint = { emptyRules = "error" }
//	}
//	javascript {
//	  format {
//	    insert_space_after_comma_delimiter = false
//	  }
//	}
//
// Unknown attributes and blocks are collected by the remain bodies and
// ignored.
type hclSettingsFile struct {
	ValidationDelay *int           `hcl:"validation_delay,optional"`
	CSS             *hclCSS        `hcl:"css,block"`
	JavaScript      *hclJavaScript `hcl:"javascript,block"`
	Remain          hcl.Body       `hcl:",remain"`
}

type hclCSS struct {
	Validate *bool             `hcl:"validate,optional"`
	Lint     map[string]string `hcl:"lint,optional"`
	Remain   hcl.Body          `hcl:",remain"`
}

type hclJavaScript struct {
	Validate *bool        `hcl:"validate,optional"`
	Format   *hclJSFormat `hcl:"format,block"`
	Remain   hcl.Body     `hcl:",remain"`
}

type hclJSFormat struct {
	InsertSpaceAfterCommaDelimiter                              *bool    `hcl:"insert_space_after_comma_delimiter,optional"`
	InsertSpaceAfterSemicolonInForStatements                    *bool    `hcl:"insert_space_after_semicolon_in_for_statements,optional"`
	InsertSpaceBeforeAndAfterBinaryOperators                    *bool    `hcl:"insert_space_before_and_after_binary_operators,optional"`
	InsertSpaceAfterKeywordsInControlFlowStatements             *bool    `hcl:"insert_space_after_keywords_in_control_flow_statements,optional"`
	InsertSpaceAfterFunctionKeywordForAnonymousFunctions        *bool    `hcl:"insert_space_after_function_keyword_for_anonymous_functions,optional"`
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis  *bool    `hcl:"insert_space_after_opening_and_before_closing_nonempty_parenthesis,optional"`
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets     *bool    `hcl:"insert_space_after_opening_and_before_closing_nonempty_brackets,optional"`
	InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces       *bool    `hcl:"insert_space_after_opening_and_before_closing_nonempty_braces,optional"`
	InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces *bool    `hcl:"insert_space_after_opening_and_before_closing_template_string_braces,optional"`
	Remain                                                      hcl.Body `hcl:",remain"`
}

// LoadHCL decodes an HCL settings file and overlays it onto the default
// settings.
func LoadHCL(src []byte, filename string) (Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Settings{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclSettingsFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return Settings{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	cfg := defaultSettings
	if parsed.ValidationDelay != nil {
		cfg.ValidationDelay = *parsed.ValidationDelay
	}
	if c := parsed.CSS; c != nil {
		cfg.CSS.Validate = c.Validate
		cfg.CSS.Lint = c.Lint
	}
	if js := parsed.JavaScript; js != nil {
		cfg.JavaScript.Validate = js.Validate
		if f := js.Format; f != nil {
			cfg.JavaScript.Format = JavaScriptFormat{
				InsertSpaceAfterCommaDelimiter:                              f.InsertSpaceAfterCommaDelimiter,
				InsertSpaceAfterSemicolonInForStatements:                    f.InsertSpaceAfterSemicolonInForStatements,
				InsertSpaceBeforeAndAfterBinaryOperators:                    f.InsertSpaceBeforeAndAfterBinaryOperators,
				InsertSpaceAfterKeywordsInControlFlowStatements:             f.InsertSpaceAfterKeywordsInControlFlowStatements,
				InsertSpaceAfterFunctionKeywordForAnonymousFunctions:        f.InsertSpaceAfterFunctionKeywordForAnonymousFunctions,
				InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis:  f.InsertSpaceAfterOpeningAndBeforeClosingNonemptyParenthesis,
				InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets:     f.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBrackets,
				InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces:       f.InsertSpaceAfterOpeningAndBeforeClosingNonemptyBraces,
				InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces: f.InsertSpaceAfterOpeningAndBeforeClosingTemplateStringBraces,
			}
		}
	}
	return cfg, nil
}
