package server

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"mosaic/internal/config"
	"mosaic/internal/index"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	s.mu.Lock()
	s.notify = context.Notify
	s.root = workspaceRoot(params)
	s.client = params.InitializationOptions
	s.mu.Unlock()

	// Settings file, then the client's options on top
	if s.opts.SettingsFile != "" {
		base, err := config.LoadFile(s.opts.SettingsFile)
		if err != nil {
			return nil, err
		}
		watcher, err := config.Watch(s.opts.SettingsFile, config.DefaultDebounce, s.onSettingsFileChanged)
		if err != nil {
			log.Warningf("not watching %s: %v", s.opts.SettingsFile, err)
		}
		s.mu.Lock()
		s.base = base
		s.watcher = watcher
		s.mu.Unlock()
	}
	if err := s.reconfigure(); err != nil {
		return nil, err
	}

	if !s.opts.DisableIndex && s.root != "" {
		if err := s.openIndex(); err != nil {
			log.Errorf("workspace index unavailable: %v", err)
		}
	}

	syncKind := protocol.TextDocumentSyncKindIncremental

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: &protocol.True},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":", "-", "#", "@"},
		ResolveProvider:   &protocol.True,
	}
	capabilities.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters: []string{"(", ","},
	}

	version := s.opts.Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("client initialized")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.Close()
	return nil
}

func (s *Server) setTrace(
	context *glsp.Context,
	params *protocol.SetTraceParams,
) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	settings := params.Settings
	// clients usually nest the settings under the server name
	if m, ok := settings.(map[string]any); ok {
		if nested, ok := m[Name]; ok {
			settings = nested
		}
	}
	s.mu.Lock()
	s.client = settings
	s.mu.Unlock()

	if err := s.reconfigure(); err != nil {
		return err
	}
	s.revalidateAll()
	return nil
}

func (s *Server) onSettingsFileChanged(settings config.Settings) {
	log.Infof("reloaded %s", s.opts.SettingsFile)
	s.mu.Lock()
	s.base = settings
	s.mu.Unlock()
	if err := s.reconfigure(); err != nil {
		log.Warningf("keeping previous settings: %v", err)
		return
	}
	s.revalidateAll()
}

// reconfigure applies the client settings over the file settings.
func (s *Server) reconfigure() error {
	s.mu.Lock()
	base, client := s.base, s.client
	s.mu.Unlock()

	settings := base
	if client != nil {
		var err error
		settings, err = config.Overlay(base, client)
		if err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}
	s.dispatcher.Configure(settings)
	return nil
}

func (s *Server) openIndex() error {
	stateDir := s.opts.StateDir
	if stateDir == "" {
		var err error
		if stateDir, err = getXDGStateHome(Name); err != nil {
			return err
		}
	}
	dir := filepath.Join(stateDir, url.PathEscape(s.root))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	ix, err := index.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		return err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.index = ix
	s.indexDone = done
	root := s.root
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.indexWorkspace(s.ctx, ix, root)
	}()
	return nil
}

// workspaceRoot returns the filesystem path of the first workspace folder.
func workspaceRoot(params *protocol.InitializeParams) string {
	var uri string
	switch {
	case len(params.WorkspaceFolders) > 0:
		uri = params.WorkspaceFolders[0].URI
	case params.RootURI != nil:
		uri = *params.RootURI
	case params.RootPath != nil:
		return *params.RootPath
	default:
		return ""
	}
	path, err := uriToPath(uri)
	if err != nil {
		log.Warningf("ignoring workspace root: %v", err)
		return ""
	}
	return path
}
