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

func (s *Server) registerExecutionTools() {
	type execTool struct {
		name        string
		description string
		label       string
		invoke      func(ctx context.Context, sessionID string) (*gdb.StopEvent, error)
	}

	tools := []execTool{
		{
			name:        "start_debugging",
			description: "Start debugging in a session",
			label:       "Started debugging",
			invoke:      s.manager.StartDebugging,
		},
		{
			name:        "stop_debugging",
			description: "Stop debugging in a session",
			label:       "Stopped debugging",
			invoke:      s.manager.StopDebugging,
		},
		{
			name:        "continue_execution",
			description: "Continue program execution",
			label:       "Continued execution",
			invoke:      s.manager.ContinueExecution,
		},
		{
			name:        "step_execution",
			description: "Step into next line",
			label:       "Stepped into next line",
			invoke:      s.manager.StepExecution,
		},
		{
			name:        "next_execution",
			description: "Step over next line",
			label:       "Stepped over next line",
			invoke:      s.manager.NextExecution,
		},
	}

	for _, tool := range tools {
		invoke := tool.invoke
		label := tool.label

		s.mcpServer.AddTool(mcp.Tool{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				Required: []string{"session_id"},
			},
		}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			sessionID, err := request.RequireString("session_id")
			if err != nil {
				return errorResponse("Missing or invalid 'session_id' argument"), nil
			}

			stop, err := invoke(ctx, sessionID)
			if err != nil {
				return errorResponse(fmt.Sprintf("%s failed: %v", label, err)), nil
			}

			encoded, err := json.Marshal(stop)
			if err != nil {
				return errorResponse(fmt.Sprintf("Failed to encode stop event: %v", err)), nil
			}
			return textResponse(fmt.Sprintf("%s: %s", label, encoded)), nil
		})
	}
}
