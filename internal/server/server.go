// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package server exposes debugging sessions as MCP tools over stdio.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Satone7/mcp-server-gdb/internal/gdb"
)

// sessionManager is the debugging surface the tools are built on.
// *gdb.Manager implements it.
type sessionManager interface {
	CreateSession(ctx context.Context, cfg gdb.LaunchConfig) (gdb.SessionInfo, error)
	GetSession(sessionID string) (gdb.SessionInfo, error)
	ListSessions() []gdb.SessionInfo
	CloseSession(ctx context.Context, sessionID string) error

	StartDebugging(ctx context.Context, sessionID string) (*gdb.StopEvent, error)
	StopDebugging(ctx context.Context, sessionID string) (*gdb.StopEvent, error)
	ContinueExecution(ctx context.Context, sessionID string) (*gdb.StopEvent, error)
	StepExecution(ctx context.Context, sessionID string) (*gdb.StopEvent, error)
	NextExecution(ctx context.Context, sessionID string) (*gdb.StopEvent, error)

	SetBreakpoint(ctx context.Context, sessionID string, file string, line int) (gdb.Breakpoint, error)
	DeleteBreakpoints(ctx context.Context, sessionID string, numbers []int) error
	GetBreakpoints(sessionID string) ([]gdb.Breakpoint, error)
	GetStackFrames(ctx context.Context, sessionID string) ([]gdb.StackFrame, error)
	GetLocalVariables(ctx context.Context, sessionID string, frameIndex int) ([]gdb.Variable, error)
	GetRegisters(ctx context.Context, sessionID string, filter []string) ([]gdb.Register, error)
	GetRegisterNames(ctx context.Context, sessionID string, filter []string) ([]string, error)
	ReadMemory(ctx context.Context, sessionID string, addressExpr string, count uint64, offset int64) (gdb.MemoryBlock, error)
	ModifyVariable(ctx context.Context, sessionID string, expr string) (string, error)
}

var _ sessionManager = (*gdb.Manager)(nil)

// Server wraps the MCP server and exposes debugger sessions as tools.
// All logging goes to stderr; stdout carries the MCP protocol.
type Server struct {
	mcpServer *server.MCPServer
	manager   sessionManager
	log       logr.Logger
}

// NewServer builds an MCP server serving the given session manager.
func NewServer(name string, version string, manager sessionManager, log logr.Logger) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
		manager:   manager,
		log:       log.WithName("mcp-server"),
	}
	s.registerSessionTools()
	s.registerExecutionTools()
	s.registerInspectionTools()
	s.registerDataTools()
	return s
}

// Run serves MCP over stdio until the client disconnects or the context is
// canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info("Serving MCP over stdio")
	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
