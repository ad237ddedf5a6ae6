// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Satone7/mcp-server-gdb/internal/gdb"
)

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name: "create_session",
		Description: "Create a new GDB debugging session with optional parameters, " +
			"returns a session ID (UUID) if successful",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"program": map[string]interface{}{
					"type":        "string",
					"description": "if provided, path to the executable to debug",
				},
				"nh": map[string]interface{}{
					"type":        "boolean",
					"description": "if provided, do not read ~/.gdbinit file",
				},
				"nx": map[string]interface{}{
					"type":        "boolean",
					"description": "if provided, do not read any .gdbinit files in any directory",
				},
				"quiet": map[string]interface{}{
					"type":        "boolean",
					"description": "if provided, do not print version number on startup",
				},
				"cd": map[string]interface{}{
					"type":        "string",
					"description": "if provided, change current directory to DIR",
				},
				"bps": map[string]interface{}{
					"type":        "integer",
					"description": "if provided, set serial port baud rate used for remote debugging",
				},
				"symbol_file": map[string]interface{}{
					"type":        "string",
					"description": "if provided, read symbols from SYMFILE",
				},
				"core_file": map[string]interface{}{
					"type":        "string",
					"description": "if provided, analyze the core dump COREFILE",
				},
				"proc_id": map[string]interface{}{
					"type":        "integer",
					"description": "if provided, attach to running process PID",
				},
				"command": map[string]interface{}{
					"type":        "string",
					"description": "if provided, execute GDB commands from FILE",
				},
				"source_dir": map[string]interface{}{
					"type":        "string",
					"description": "if provided, search for source files in DIR",
				},
				"args": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "if provided, arguments to be passed to the inferior program",
				},
				"tty": map[string]interface{}{
					"type":        "string",
					"description": "if provided, use TTY for input/output by the program being debugged",
				},
				"gdb_path": map[string]interface{}{
					"type":        "string",
					"description": "if provided, path to the GDB executable",
				},
			},
		},
	}, s.handleCreateSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get a GDB debugging session by ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_all_sessions",
		Description: "Get all GDB debugging sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleGetAllSessions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "close_session",
		Description: "Close a GDB debugging session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleCloseSession)
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := launchConfigFromArgs(request.GetArguments())
	if err != nil {
		return errorResponse(fmt.Sprintf("Invalid session parameters: %v", err)), nil
	}

	info, err := s.manager.CreateSession(ctx, cfg)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to create session: %v", err)), nil
	}

	s.log.Info("Created session", "sessionID", info.ID)
	return textResponse(fmt.Sprintf("Created GDB session: %s", info.ID)), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}

	info, err := s.manager.GetSession(sessionID)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to get session: %v", err)), nil
	}
	return jsonResponse("Session", info)
}

func (s *Server) handleGetAllSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResponse("Sessions", s.manager.ListSessions())
}

func (s *Server) handleCloseSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}

	if err := s.manager.CloseSession(ctx, sessionID); err != nil {
		return errorResponse(fmt.Sprintf("Failed to close session: %v", err)), nil
	}
	return textResponse("Closed GDB session"), nil
}

// launchConfigFromArgs decodes the tool arguments into a launch
// configuration through their shared JSON field names.
func launchConfigFromArgs(args map[string]interface{}) (gdb.LaunchConfig, error) {
	var cfg gdb.LaunchConfig
	if len(args) == 0 {
		return cfg, nil
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(encoded, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "The ID of the GDB session",
	}
}

// jsonResponse renders a labeled JSON payload as tool text output.
func jsonResponse(label string, payload interface{}) (*mcp.CallToolResult, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode %s result: %v", label, err)), nil
	}
	return textResponse(fmt.Sprintf("%s: %s", label, encoded)), nil
}
