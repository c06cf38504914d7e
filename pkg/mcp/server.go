// Package mcp exposes the ticket-assistance tasks as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/laraxot/module-ai-fila5/pkg/ai"
	"github.com/laraxot/module-ai-fila5/pkg/logging"
	"github.com/laraxot/module-ai-fila5/pkg/models"
	"github.com/laraxot/module-ai-fila5/pkg/tracker"
)

const serverName = "aimod"

// TaskRunner runs one ticket-assistance task.
type TaskRunner interface {
	Run(ctx context.Context, task models.Task, in ai.Input) (models.TaskResult, error)
}

// CacheStatter provides cache statistics without coupling to a concrete cache implementation.
type CacheStatter interface {
	Stats(ctx context.Context) (models.CacheStats, error)
}

// Server is an MCP server backed by the task orchestrator.
type Server struct {
	tasks   TaskRunner
	cache   CacheStatter
	tracker tracker.Tracker
	logger  *slog.Logger
	mcp     *mcpserver.MCPServer
}

// New creates a Server with every tool registered. cache and t may be nil.
func New(tasks TaskRunner, cache CacheStatter, t tracker.Tracker, version string, logger *slog.Logger) *Server {
	s := &Server{
		tasks:   tasks,
		cache:   cache,
		tracker: t,
		logger:  logging.OrNop(logger),
		mcp: mcpserver.NewMCPServer(serverName, version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithRecovery(),
		),
	}
	for _, tt := range taskTools {
		s.mcp.AddTool(tt.tool, s.handleTask(tt))
	}
	s.mcp.AddTool(taskStatsTool, s.handleTaskStats)
	s.mcp.AddTool(cacheStatsTool, s.handleCacheStats)
	return s
}

// Serve speaks MCP on stdin/stdout until stdin closes.
func (s *Server) Serve() error {
	s.logger.Info("starting mcp server on stdio")
	return mcpserver.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server, for transports other than stdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

func textResult(text string) *mcpgo.CallToolResult {
	return mcpgo.NewToolResultText(text)
}

func errorResult(text string) *mcpgo.CallToolResult {
	return mcpgo.NewToolResultError(text)
}
