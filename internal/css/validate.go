package css

import (
	"fmt"
	"strings"

	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

// Lint rule names, as used in the settings.
const (
	RuleEmptyRules          = "emptyRules"
	RuleUnknownProperties   = "unknownProperties"
	RuleDuplicateProperties = "duplicateProperties"
	RuleZeroUnits           = "zeroUnits"
	RuleIDSelector          = "idSelector"
	RuleImportant           = "important"
)

// Level is the configured severity of a lint rule.
type Level string

const (
	LevelIgnore  Level = "ignore"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// DefaultLint are the lint levels used for rules missing from the settings.
var DefaultLint = map[string]Level{
	RuleEmptyRules:          LevelWarning,
	RuleUnknownProperties:   LevelWarning,
	RuleDuplicateProperties: LevelIgnore,
	RuleZeroUnits:           LevelIgnore,
	RuleIDSelector:          LevelIgnore,
	RuleImportant:           LevelIgnore,
}

// ValidationOptions control Validate.
type ValidationOptions struct {
	// Validate disables all diagnostics when false.
	Validate bool
	Lint     map[string]Level
}

func (o ValidationOptions) level(rule string) Level {
	if l, ok := o.Lint[rule]; ok {
		return l
	}
	return DefaultLint[rule]
}

func (l Level) severity() analysis.Severity {
	if l == LevelError {
		return analysis.SeverityError
	}
	return analysis.SeverityWarning
}

// Validate reports syntax errors and lint findings.
func (e *Engine) Validate(sheet *Stylesheet, opts ValidationOptions) []analysis.Diagnostic {
	if !opts.Validate {
		return nil
	}

	var diagnostics []analysis.Diagnostic
	report := func(n *sitter.Node, rule, message string) {
		level := opts.level(rule)
		if level == LevelIgnore || level == "" {
			return
		}
		diagnostics = append(diagnostics, analysis.Diagnostic{
			Span:     analysis.Span{Start: int(n.StartByte()), End: int(n.EndByte())},
			Severity: level.severity(),
			Code:     rule,
			Message:  message,
		})
	}

	walk(sheet.Root(), func(n *sitter.Node) bool {
		switch {
		case n.IsMissing():
			diagnostics = append(diagnostics, analysis.Diagnostic{
				Span:     analysis.Span{Start: int(n.StartByte()), End: int(n.EndByte())},
				Severity: analysis.SeverityError,
				Code:     "css-syntax",
				Message:  fmt.Sprintf("%s expected", n.Type()),
			})
			return false
		case n.IsError():
			diagnostics = append(diagnostics, analysis.Diagnostic{
				Span:     analysis.Span{Start: int(n.StartByte()), End: int(n.EndByte())},
				Severity: analysis.SeverityError,
				Code:     "css-syntax",
				Message:  syntaxMessage(sheet.content(n)),
			})
			return false
		}

		switch n.Type() {
		case "rule_set":
			lintRule(sheet, n, report)
		case "declaration":
			lintDeclaration(sheet, n, report)
		case "id_selector":
			report(n, RuleIDSelector, "Selectors should not contain IDs because these rules are too tightly coupled with the HTML.")
		case "important":
			report(n, RuleImportant, "Avoid using !important. It is an indication that the specificity of the entire CSS has gotten out of control and needs to be refactored.")
		}
		return true
	})
	return diagnostics
}

func syntaxMessage(content string) string {
	content = collapseSpace(content)
	if content == "" {
		return "Syntax error"
	}
	if len(content) > 32 {
		content = content[:32] + "…"
	}
	return fmt.Sprintf("Unexpected %q", content)
}

func lintRule(sheet *Stylesheet, rule *sitter.Node, report func(*sitter.Node, string, string)) {
	block := childOfType(rule, "block")
	if block == nil {
		return
	}

	selectors := childOfType(rule, "selectors")
	empty := true
	seen := map[string]bool{}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		empty = false
		if child.Type() != "declaration" {
			continue
		}
		name := childOfType(child, "property_name")
		if name == nil {
			continue
		}
		key := strings.ToLower(sheet.content(name))
		if seen[key] {
			report(name, RuleDuplicateProperties, "Do not use duplicate style definitions")
		}
		seen[key] = true
	}

	if empty && (selectors == nil || sheet.content(selectors) != wrapperSelector) {
		report(selectorsOrRule(rule), RuleEmptyRules, "Do not use empty rulesets")
	}
}

func selectorsOrRule(rule *sitter.Node) *sitter.Node {
	if s := childOfType(rule, "selectors"); s != nil {
		return s
	}
	return rule
}

func lintDeclaration(sheet *Stylesheet, decl *sitter.Node, report func(*sitter.Node, string, string)) {
	name := childOfType(decl, "property_name")
	if name == nil {
		return
	}
	prop := sheet.content(name)
	if !isCustomProperty(prop) {
		if _, ok := lookupProperty(prop); !ok {
			report(name, RuleUnknownProperties, fmt.Sprintf("Unknown property: '%s'", prop))
		}
	}

	for i := 0; i < int(decl.NamedChildCount()); i++ {
		v := decl.NamedChild(i)
		if v.Type() != "integer_value" && v.Type() != "float_value" {
			continue
		}
		unit := childOfType(v, "unit")
		if unit == nil || sheet.content(unit) == "%" {
			continue
		}
		number := strings.TrimSuffix(sheet.content(v), sheet.content(unit))
		if strings.Trim(number, "+-0.") == "" {
			report(v, RuleZeroUnits, "No unit for zero needed")
		}
	}
}

// wrapperSelector is the selector of the synthetic rule wrapping style
// attribute values.
const wrapperSelector = "__"
