package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/neuroscan/eegcorpus/internal/catalog"
	"github.com/neuroscan/eegcorpus/internal/dispatch"
)

const (
	// ServerName is the MCP server name
	ServerName = "eegcorpus"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the catalog database
	DefaultDBPath = "~/.eegcorpus"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	catalog catalog.Storage
	pool    *dispatch.Pool
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string, workers int) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".eegcorpus")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "catalog.db")

	store, err := catalog.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		catalog: store,
		pool:    dispatch.NewPool(workers),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.catalog.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(indexCorpusTool(), s.handleIndexCorpus)
	s.mcp.AddTool(convertCorpusTool(), s.handleConvertCorpus)
	s.mcp.AddTool(corpusStatusTool(), s.handleCorpusStatus)
	s.mcp.AddTool(listRecordingsTool(), s.handleListRecordings)
	return nil
}
