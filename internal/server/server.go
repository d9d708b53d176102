// Package server exposes the language modes over the Language Server
// Protocol.
package server

import (
	"context"
	"sync"

	"mosaic/internal/config"
	"mosaic/internal/index"
	"mosaic/internal/manager"
	"mosaic/internal/modes"
	"mosaic/internal/scheduler"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.opentelemetry.io/otel/metric"
)

var log = commonlog.GetLogger("mosaic.server")

// Name is reported to clients and used for the state directory.
const Name = "mosaic"

type Options struct {
	Version string
	// SettingsFile is an HCL or JSON settings file, watched for changes.
	SettingsFile string
	// StateDir holds the workspace index. Defaults to $XDG_STATE_HOME/mosaic.
	StateDir     string
	DisableIndex bool
	Debug        bool

	MeterProvider metric.MeterProvider
}

type Server struct {
	opts    Options
	handler protocol.Handler

	ctx    context.Context
	cancel context.CancelFunc

	documents  *manager.DocumentManager
	scheduler  *scheduler.Scheduler
	dispatcher *modes.Dispatcher

	mu        sync.Mutex
	notify    glsp.NotifyFunc
	root      string
	base      config.Settings
	client    any
	watcher   *config.Watcher
	index     *index.Index
	indexDone chan struct{}
	pending   map[string]*validation
	published map[string][]protocol.Diagnostic

	closeOnce sync.Once
}

// New creates a server with its document store and language modes.
func New(ctx context.Context, opts Options) (*Server, error) {
	s := &Server{
		opts:      opts,
		documents: manager.NewDocumentManager(),
		scheduler: scheduler.NewScheduler(64),
		base:      config.Default(),
		pending:   make(map[string]*validation),
		published: make(map[string][]protocol.Diagnostic),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	d, err := modes.NewDispatcher(s.ctx, s.documents, modes.Options{
		Scheduler:     s.scheduler,
		MeterProvider: opts.MeterProvider,
	})
	if err != nil {
		s.cancel()
		s.scheduler.Stop()
		return nil, err
	}
	s.dispatcher = d

	s.handler = protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
		WorkspaceSymbol:                 s.workspaceSymbol,
		TextDocumentDidOpen:             s.textDocumentDidOpen,
		TextDocumentDidChange:           s.textDocumentDidChange,
		TextDocumentDidSave:             s.textDocumentDidSave,
		TextDocumentDidClose:            s.textDocumentDidClose,
		TextDocumentCompletion:          s.textDocumentCompletion,
		CompletionItemResolve:           s.completionItemResolve,
		TextDocumentHover:               s.textDocumentHover,
		TextDocumentSignatureHelp:       s.textDocumentSignatureHelp,
		TextDocumentDocumentHighlight:   s.textDocumentDocumentHighlight,
		TextDocumentDocumentSymbol:      s.textDocumentDocumentSymbol,
		TextDocumentDefinition:          s.textDocumentDefinition,
		TextDocumentReferences:          s.textDocumentReferences,
		TextDocumentColor:               s.textDocumentColor,
		TextDocumentColorPresentation:   s.textDocumentColorPresentation,
		TextDocumentFormatting:          s.textDocumentFormatting,
		TextDocumentRangeFormatting:     s.textDocumentRangeFormatting,
	}
	return s, nil
}

func (s *Server) newServer() *glspserver.Server {
	return glspserver.NewServer(&s.handler, Name, s.opts.Debug)
}

// RunStdio serves a single client over stdin and stdout.
func (s *Server) RunStdio() error {
	return s.newServer().RunStdio()
}

// RunWebSocket serves clients connecting to address.
func (s *Server) RunWebSocket(address string) error {
	return s.newServer().RunWebSocket(address)
}

// Close stops background work and releases the modes and the index.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		for uri, v := range s.pending {
			v.stop()
			delete(s.pending, uri)
		}
		watcher := s.watcher
		s.watcher = nil
		done := s.indexDone
		s.mu.Unlock()

		if watcher != nil {
			watcher.Close()
		}
		if done != nil {
			<-done
		}
		s.scheduler.Stop()
		s.dispatcher.Dispose()
		s.documents.CloseAll()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.index != nil {
			if err := s.index.Close(); err != nil {
				log.Warningf("failed to close index: %v", err)
			}
			s.index = nil
		}
	})
}
