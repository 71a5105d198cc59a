// Package mcp exposes the research corpus to MCP clients: listing the
// company catalog, semantic search over a company's announcement store,
// and full grounded question answering.
package mcp

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ausiq/corpuschat/internal/announce"
	"github.com/ausiq/corpuschat/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

// SessionFactory creates a fresh session with all collaborators wired.
type SessionFactory func() *session.Session

// Server wraps an MCP server that exposes corpus tools. Sessions are kept
// per ticker so repeated tool calls reuse the synced knowledge store.
type Server struct {
	announcements *announce.Store
	newSession    SessionFactory

	mu       sync.Mutex
	sessions map[string]*session.Session

	mcp *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(announcements *announce.Store, newSession SessionFactory) *Server {
	s := &Server{
		announcements: announcements,
		newSession:    newSession,
		sessions:      make(map[string]*session.Session),
	}

	s.mcp = server.NewMCPServer(
		"corpuschat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listCompaniesTool, s.handleListCompanies)
	s.mcp.AddTool(corpusSearchTool, s.handleCorpusSearch)
	s.mcp.AddTool(askCorpusTool, s.handleAskCorpus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
