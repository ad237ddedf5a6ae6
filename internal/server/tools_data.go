// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDataTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name: "read_memory",
		Description: "Read the memory in the current GDB session. " +
			"Attempts to read the requested range; when part of it is unreadable, " +
			"a binary division scheme narrows in on the accessible units, so readable " +
			"data at the beginning or end of the range is still returned. A readable " +
			"range that is neither at the beginning nor the end will not be found. " +
			"Returns a JSON object with fields: " +
			"begin: the start address of the memory block, as hexadecimal literal. " +
			"end: the end address of the memory block, as hexadecimal literal. " +
			"offset: the offset of the memory block, as hexadecimal literal, relative to the address expression. " +
			"contents: the contents of the memory block, in hex bytes.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"address": map[string]interface{}{
					"type": "string",
					"description": "An expression specifying the address of the first addressable memory unit to be read. " +
						"Complex expressions containing embedded white space should be quoted using the C convention.",
				},
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "The number of addressable memory units to read",
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "The offset relative to address at which to start reading",
				},
			},
			Required: []string{"session_id", "address", "count"},
		},
	}, s.handleReadMemory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "modify_variable",
		Description: "Modify a variable's value in the current GDB session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "The expression to evaluate, e.g. 'variable=value'",
				},
			},
			Required: []string{"session_id", "expression"},
		},
	}, s.handleModifyVariable)
}

func (s *Server) handleReadMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}
	address, err := request.RequireString("address")
	if err != nil {
		return errorResponse("Missing or invalid 'address' argument"), nil
	}

	args := request.GetArguments()
	count, ok := intArg(args, "count")
	if !ok || count < 0 {
		return errorResponse("Missing or invalid 'count' argument"), nil
	}
	offset := 0
	if _, present := args["offset"]; present {
		offset, ok = intArg(args, "offset")
		if !ok {
			return errorResponse("Invalid 'offset' argument"), nil
		}
	}

	block, err := s.manager.ReadMemory(ctx, sessionID, address, uint64(count), int64(offset))
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to read memory: %v", err)), nil
	}
	return jsonResponse("Memory", block)
}

func (s *Server) handleModifyVariable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}
	expression, err := request.RequireString("expression")
	if err != nil {
		return errorResponse("Missing or invalid 'expression' argument"), nil
	}

	value, err := s.manager.ModifyVariable(ctx, sessionID, expression)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to modify variable: %v", err)), nil
	}
	return textResponse(fmt.Sprintf("Modified variable: %s", value)), nil
}
