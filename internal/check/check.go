// Package check validates documents on disk without a client, for use from
// the command line and in CI.
package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mosaic/internal/config"
	"mosaic/internal/manager"
	"mosaic/internal/modes"
	"mosaic/internal/parser"
	"mosaic/internal/scanner"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("mosaic.check")

// Finding is a diagnostic reported for a file.
type Finding struct {
	Path       string
	Diagnostic protocol.Diagnostic
}

type Report struct {
	Files    int
	Errors   int
	Warnings int
	Findings []Finding
}

// Checker validates files through the language modes.
type Checker struct {
	documents  *manager.DocumentManager
	dispatcher *modes.Dispatcher
}

func New(ctx context.Context, settings config.Settings) (*Checker, error) {
	documents := manager.NewDocumentManager()
	d, err := modes.NewDispatcher(ctx, documents, modes.Options{})
	if err != nil {
		return nil, err
	}
	d.Configure(settings)
	return &Checker{documents: documents, dispatcher: d}, nil
}

func (c *Checker) Close() {
	c.dispatcher.Dispose()
}

// Run checks every path. Directories are scanned for host documents;
// files named explicitly are checked whatever their extension.
func (c *Checker) Run(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			if err := c.checkFile(ctx, report, path, data); err != nil {
				return nil, err
			}
			continue
		}

		var failed error
		err = scanner.Scan(ctx, path, nil, func(file string, data []byte) {
			if failed != nil {
				return
			}
			failed = c.checkFile(ctx, report, file, data)
		})
		if err != nil {
			return nil, err
		}
		if failed != nil {
			return nil, failed
		}
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		pa, pb := a.Diagnostic.Range.Start, b.Diagnostic.Range.Start
		if pa.Line != pb.Line {
			return pa.Line < pb.Line
		}
		return pa.Character < pb.Character
	})
	return report, nil
}

func (c *Checker) checkFile(ctx context.Context, report *Report, path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	uri := "file://" + filepath.ToSlash(abs)
	doc := c.documents.Open(uri, languageOf(path), 1, string(data))
	defer func() {
		c.documents.Release(uri)
		c.dispatcher.OnDocumentRemoved(uri)
	}()

	diagnostics, err := c.dispatcher.DoValidation(ctx, doc)
	if err != nil {
		if len(diagnostics) == 0 {
			return fmt.Errorf("%s: %w", path, err)
		}
		log.Warningf("%s: %v", path, err)
	}

	report.Files++
	for _, d := range diagnostics {
		switch severity(d) {
		case protocol.DiagnosticSeverityError:
			report.Errors++
		case protocol.DiagnosticSeverityWarning:
			report.Warnings++
		}
		report.Findings = append(report.Findings, Finding{Path: path, Diagnostic: d})
	}
	return nil
}

func languageOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return parser.CSS
	case ".js", ".mjs", ".cjs":
		return parser.JavaScript
	}
	return parser.HTML
}

func severity(d protocol.Diagnostic) protocol.DiagnosticSeverity {
	if d.Severity == nil {
		return protocol.DiagnosticSeverityError
	}
	return *d.Severity
}

var severityNames = map[protocol.DiagnosticSeverity]string{
	protocol.DiagnosticSeverityError:       "error",
	protocol.DiagnosticSeverityWarning:     "warning",
	protocol.DiagnosticSeverityInformation: "info",
	protocol.DiagnosticSeverityHint:        "hint",
}

// Write prints one line per finding as path:line:col: severity: message
// [source], with 1-based lines and columns.
func (r *Report) Write(w io.Writer) error {
	for _, f := range r.Findings {
		d := f.Diagnostic
		line := fmt.Sprintf("%s:%d:%d: %s: %s", f.Path,
			d.Range.Start.Line+1, d.Range.Start.Character+1, severityNames[severity(d)], d.Message)
		if d.Source != nil {
			line += " [" + *d.Source + "]"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
