package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Capture is one named node captured by a query.
type Capture struct {
	Name string
	Node *sitter.Node
}

// Query compiles a query for one grammar.
type Query struct {
	query *sitter.Query
}

// NewQuery compiles pattern for the given language id.
func NewQuery(language string, pattern string) (*Query, error) {
	lang, err := Grammar(language)
	if err != nil {
		return nil, err
	}
	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil, err
	}
	return &Query{query: q}, nil
}

// Matches runs the query against root, applying predicate filtering, and
// returns the captures of every match in document order.
func (q *Query) Matches(root *sitter.Node, source []byte) [][]Capture {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q.query, root)

	var matches [][]Capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		if len(m.Captures) == 0 {
			continue
		}

		captures := make([]Capture, 0, len(m.Captures))
		for _, c := range m.Captures {
			captures = append(captures, Capture{
				Name: q.query.CaptureNameForId(c.Index),
				Node: c.Node,
			})
		}
		matches = append(matches, captures)
	}
	return matches
}

// Close frees the compiled query.
func (q *Query) Close() {
	q.query.Close()
}
