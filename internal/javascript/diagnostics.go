package javascript

import (
	"fmt"
	"sort"

	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	CodeSyntax        = "js-syntax"
	CodeRedeclare     = "js-redeclare"
	CodeConstAssign   = "js-const-assign"
	maxSyntaxMessages = 100
)

// Diagnostics returns the syntactic diagnostics of the current script
// followed by its semantic ones.
func (s *Session) Diagnostics() []analysis.Diagnostic {
	f := s.script()
	if f == nil {
		return nil
	}
	diagnostics := syntaxDiagnostics(f)
	return append(diagnostics, s.semanticDiagnostics(f)...)
}

func syntaxDiagnostics(f *file) []analysis.Diagnostic {
	var diagnostics []analysis.Diagnostic
	if !f.rootNode().HasError() {
		return nil
	}
	walkNodes(f.rootNode(), func(n *sitter.Node) bool {
		if len(diagnostics) >= maxSyntaxMessages {
			return false
		}
		switch {
		case n.IsMissing():
			diagnostics = append(diagnostics, analysis.Diagnostic{
				Span:     nodeSpan(n),
				Severity: analysis.SeverityError,
				Code:     CodeSyntax,
				Message:  fmt.Sprintf("'%s' expected.", n.Type()),
			})
			return false
		case n.IsError():
			diagnostics = append(diagnostics, analysis.Diagnostic{
				Span:     nodeSpan(n),
				Severity: analysis.SeverityError,
				Code:     CodeSyntax,
				Message:  "Declaration or statement expected.",
			})
			return false
		}
		return n.HasError()
	})
	return diagnostics
}

func (s *Session) semanticDiagnostics(f *file) []analysis.Diagnostic {
	var diagnostics []analysis.Diagnostic
	reported := map[*declaration]bool{}
	report := func(d *declaration) {
		if reported[d] {
			return
		}
		reported[d] = true
		diagnostics = append(diagnostics, analysis.Diagnostic{
			Span:     d.span(),
			Severity: analysis.SeverityError,
			Code:     CodeRedeclare,
			Message:  fmt.Sprintf("Cannot redeclare block-scoped variable '%s'.", d.name),
		})
	}
	for _, r := range f.redeclared {
		report(r.first)
		report(r.second)
	}

	walkNodes(f.rootNode(), func(n *sitter.Node) bool {
		var target *sitter.Node
		switch n.Type() {
		case "assignment_expression", "augmented_assignment_expression":
			target = n.ChildByFieldName("left")
		case "update_expression":
			target = n.ChildByFieldName("argument")
		}
		if target != nil && target.Type() == "identifier" {
			if d := s.resolve(f, target); d != nil && d.kind == DeclConst {
				diagnostics = append(diagnostics, analysis.Diagnostic{
					Span:     nodeSpan(target),
					Severity: analysis.SeverityError,
					Code:     CodeConstAssign,
					Message:  fmt.Sprintf("Cannot assign to '%s' because it is a constant.", d.name),
				})
			}
		}
		return true
	})

	sort.SliceStable(diagnostics, func(i, j int) bool { return diagnostics[i].Start < diagnostics[j].Start })
	return diagnostics
}
