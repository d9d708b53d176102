package parser_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mosaic/internal/parser"
)

func TestPoolParse(t *testing.T) {
	tests := []struct {
		language string
		source   string
		root     string
	}{
		{parser.HTML, `<p class="x">hi</p>`, "document"},
		{parser.CSS, `a { color: red; }`, "stylesheet"},
		{parser.JavaScript, `let a = 1;`, "program"},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			pp, err := parser.NewPool(2, tt.language)
			if err != nil {
				t.Fatal(err)
			}
			defer pp.Close()

			tree, err := pp.Parse(context.Background(), []byte(tt.source))
			if err != nil {
				t.Fatal(err)
			}
			if got := tree.RootNode().Type(); got != tt.root {
				t.Errorf("root = %q, want %q", got, tt.root)
			}
			if tree.RootNode().HasError() {
				t.Errorf("unexpected syntax error in %q", tt.source)
			}
		})
	}
}

func TestPoolConcurrentParse(t *testing.T) {
	pp, err := parser.NewPool(2, parser.CSS)
	if err != nil {
		t.Fatal(err)
	}
	defer pp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pp.Parse(context.Background(), []byte(`.a { margin: 0 }`)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestUnknownLanguage(t *testing.T) {
	if _, err := parser.NewPool(1, "cobol"); !errors.Is(err, parser.ErrUnknownLanguage) {
		t.Fatalf("NewPool(cobol) error = %v, want ErrUnknownLanguage", err)
	}
}

func TestParseAfterClose(t *testing.T) {
	pp, err := parser.NewPool(1, parser.HTML)
	if err != nil {
		t.Fatal(err)
	}
	pp.Close()
	if _, err := pp.Parse(context.Background(), []byte("<p>")); !errors.Is(err, parser.ErrClosed) {
		t.Fatalf("Parse after Close error = %v, want ErrClosed", err)
	}
}

func TestQueryMatches(t *testing.T) {
	pp, err := parser.NewPool(1, parser.HTML)
	if err != nil {
		t.Fatal(err)
	}
	defer pp.Close()

	source := []byte(`<style>a{}</style><script>x()</script>`)
	tree, err := pp.Parse(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}

	q, err := parser.NewQuery(parser.HTML, `(style_element) @style (script_element) @script`)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	var names []string
	for _, m := range q.Matches(tree.RootNode(), source) {
		for _, c := range m {
			names = append(names, c.Name)
		}
	}
	if len(names) != 2 || names[0] != "style" || names[1] != "script" {
		t.Fatalf("captures = %v, want [style script]", names)
	}
}
