// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package lsp is a language server that publishes lexer and parser
// diagnostics for open source files.
package lsp

import (
	"log/slog"

	"github.com/mdhender/turkpy"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
)

const Name = "turkpy"

// Server holds the handlers and the document cache of one client session.
type Server struct {
	docs   *Cache
	logger *slog.Logger
}

// New returns a server. Pass a logger that writes to stderr;
// stdout carries the protocol.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{docs: NewCache(), logger: logger}
}

// Handler returns the protocol handler table.
func (s *Server) Handler() *protocol.Handler {
	return &protocol.Handler{
		Initialize:            s.Initialize,
		Initialized:           s.Initialized,
		Shutdown:              s.Shutdown,
		SetTrace:              s.SetTrace,
		TextDocumentDidOpen:   s.TextDocumentDidOpen,
		TextDocumentDidChange: s.TextDocumentDidChange,
		TextDocumentDidSave:   s.TextDocumentDidSave,
		TextDocumentDidClose:  s.TextDocumentDidClose,
	}
}

// RunStdio serves one client over stdin and stdout until it exits.
func (s *Server) RunStdio() error {
	return glspserver.NewServer(s.Handler(), Name, false).RunStdio()
}

// Initialize handles LSP initialize request
func (s *Server) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	client := "unknown"
	if params.ClientInfo != nil {
		client = params.ClientInfo.Name
	}
	s.logger.Info("lsp: initialize", "client", client)

	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	version := turkpy.Version().Core()
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &syncKind,
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

func (s *Server) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.logger.Debug("lsp: initialized")
	return nil
}

func (s *Server) Shutdown(ctx *glsp.Context) error {
	s.logger.Info("lsp: shutdown", "documents", s.docs.Len())
	return nil
}

func (s *Server) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(ctx, params.TextDocument.URI, params.TextDocument.Text, true)
	return nil
}

// TextDocumentDidChange handles full-text changes; the server advertises full sync.
func (s *Server) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			s.update(ctx, params.TextDocument.URI, c.Text, false)
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				s.update(ctx, params.TextDocument.URI, c.Text, false)
			} else {
				s.logger.Warn("lsp: ignoring incremental change", "uri", params.TextDocument.URI)
			}
		}
	}
	return nil
}

func (s *Server) TextDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		s.update(ctx, params.TextDocument.URI, *params.Text, false)
	}
	return nil
}

// TextDocumentDidClose drops the document and clears its diagnostics.
func (s *Server) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.docs.Remove(string(params.TextDocument.URI))
	s.publish(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

// update caches text and publishes its diagnostics when they changed,
// or always when force is set.
func (s *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, text string, force bool) {
	doc, fresh := s.docs.Update(string(uri), text)
	s.logger.Debug("lsp: update", "uri", uri, "length", len(text), "fresh", fresh, "diagnostics", len(doc.Diagnostics))
	if fresh || force {
		s.publish(ctx, uri, doc.Diagnostics)
	}
}

func (s *Server) publish(ctx *glsp.Context, uri protocol.DocumentUri, diags []protocol.Diagnostic) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}
