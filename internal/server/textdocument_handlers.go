package server

import (
	"context"
	"reflect"
	"time"

	"mosaic/internal/scanner"
	"mosaic/internal/scheduler"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const publishDiagnosticsMethod = "textDocument/publishDiagnostics"

// validation is a pending diagnostics run for one document.
type validation struct {
	timer  *time.Timer
	cancel context.CancelFunc
}

func (v *validation) stop() {
	if v.timer != nil {
		v.timer.Stop()
	}
	v.cancel()
}

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	item := params.TextDocument
	s.documents.Open(item.URI, item.LanguageID, item.Version, item.Text)
	s.scheduleValidation(item.URI)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	if _, err := s.documents.ApplyChanges(uri, params.TextDocument.Version, params.ContentChanges); err != nil {
		return err
	}
	s.scheduleValidation(uri)
	return nil
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	ix := s.index
	s.mu.Unlock()
	if ix == nil {
		return nil
	}
	path, err := uriToPath(uri)
	if err != nil || !scanner.IsHostFile(path) {
		return nil
	}

	text := ""
	if params.Text != nil {
		text = *params.Text
	} else if doc, err := s.documents.Get(uri); err == nil {
		text = doc.Text
	} else {
		return err
	}
	return s.scheduler.Submit(scheduler.Task{
		Name: "index " + path,
		Execute: func() error {
			return s.indexFile(s.ctx, ix, path, modTime(path), text)
		},
	})
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	if v, ok := s.pending[uri]; ok {
		v.stop()
		delete(s.pending, uri)
	}
	s.mu.Unlock()

	s.documents.Release(uri)
	s.dispatcher.OnDocumentRemoved(uri)
	s.clearDiagnostics(uri)
	return nil
}

// scheduleValidation validates uri once the validation delay has passed
// without another call for the same uri. A newer call cancels the pending
// run, including one that already started.
func (s *Server) scheduleValidation(uri string) {
	ctx, cancel := context.WithCancel(s.ctx)
	v := &validation{cancel: cancel}
	delay := s.dispatcher.Settings().Delay()

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.pending[uri]; ok {
		prev.stop()
	}
	s.pending[uri] = v
	v.timer = time.AfterFunc(delay, func() {
		err := s.scheduler.Submit(scheduler.Task{
			Name: "validate " + uri,
			Execute: func() error {
				return s.validate(ctx, uri, v)
			},
		})
		if err != nil {
			log.Debugf("validation of %s dropped: %v", uri, err)
		}
	})
}

func (s *Server) revalidateAll() {
	for _, uri := range s.documents.URIs() {
		s.scheduleValidation(uri)
	}
}

func (s *Server) validate(ctx context.Context, uri string, v *validation) error {
	defer func() {
		s.mu.Lock()
		if s.pending[uri] == v {
			delete(s.pending, uri)
		}
		s.mu.Unlock()
	}()
	if ctx.Err() != nil {
		return nil
	}

	doc, err := s.documents.Get(uri)
	if err != nil {
		return nil
	}
	diagnostics, err := s.dispatcher.DoValidation(ctx, doc)
	if ctx.Err() != nil {
		// superseded
		return nil
	}
	if current, getErr := s.documents.Get(uri); getErr != nil || current != doc {
		return nil
	}
	s.publishDiagnostics(uri, diagnostics)
	return err
}

// publishDiagnostics sends diagnostics unless they equal the last ones
// sent for uri.
func (s *Server) publishDiagnostics(uri string, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	s.mu.Lock()
	last, ok := s.published[uri]
	if (ok && reflect.DeepEqual(last, diagnostics)) || (!ok && len(diagnostics) == 0) {
		s.mu.Unlock()
		return
	}
	s.published[uri] = diagnostics
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(publishDiagnosticsMethod, protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: diagnostics,
		})
	}
}

func (s *Server) clearDiagnostics(uri string) {
	s.mu.Lock()
	last, ok := s.published[uri]
	delete(s.published, uri)
	notify := s.notify
	s.mu.Unlock()

	if ok && len(last) > 0 && notify != nil {
		notify(publishDiagnosticsMethod, protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []protocol.Diagnostic{},
		})
	}
}
