// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package server

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerInspectionTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_breakpoints",
		Description: "Get all breakpoints in the current GDB session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetBreakpoints)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "set_breakpoint",
		Description: "Set a breakpoint in the code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Source file path",
				},
				"line": map[string]interface{}{
					"type":        "integer",
					"description": "Line number",
				},
			},
			Required: []string{"session_id", "file", "line"},
		},
	}, s.handleSetBreakpoint)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_breakpoint",
		Description: "Delete one or more breakpoints in the code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"breakpoints": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "The array of the breakpoint numbers to delete",
				},
			},
			Required: []string{"session_id", "breakpoints"},
		},
	}, s.handleDeleteBreakpoint)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_stack_frames",
		Description: "Get stack frames in the current GDB session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetStackFrames)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_local_variables",
		Description: "Get local variables in the current stack frame",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"frame_id": map[string]interface{}{
					"type":        "integer",
					"description": "The index of the stack frame (defaults to the innermost frame)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetLocalVariables)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_registers",
		Description: "Get registers in the current GDB session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"reg_list":   registerListProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetRegisters)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_register_names",
		Description: "Get register names in the current GDB session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"reg_list":   registerListProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetRegisterNames)
}

func (s *Server) handleGetBreakpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}

	bps, err := s.manager.GetBreakpoints(sessionID)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to get breakpoints: %v", err)), nil
	}
	return jsonResponse("Breakpoints", bps)
}

func (s *Server) handleSetBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}
	file, err := request.RequireString("file")
	if err != nil {
		return errorResponse("Missing or invalid 'file' argument"), nil
	}
	line, ok := intArg(request.GetArguments(), "line")
	if !ok {
		return errorResponse("Missing or invalid 'line' argument"), nil
	}

	bp, err := s.manager.SetBreakpoint(ctx, sessionID, file, line)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to set breakpoint: %v", err)), nil
	}
	return jsonResponse("Set breakpoint", bp)
}

func (s *Server) handleDeleteBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}
	numbers, ok := breakpointNumbers(request.GetArguments())
	if !ok {
		return errorResponse("Missing or invalid 'breakpoints' argument"), nil
	}

	if err := s.manager.DeleteBreakpoints(ctx, sessionID, numbers); err != nil {
		return errorResponse(fmt.Sprintf("Failed to delete breakpoints: %v", err)), nil
	}
	return textResponse("Breakpoints deleted"), nil
}

func (s *Server) handleGetStackFrames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}

	frames, err := s.manager.GetStackFrames(ctx, sessionID)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to get stack frames: %v", err)), nil
	}
	return jsonResponse("Stack frames", frames)
}

func (s *Server) handleGetLocalVariables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}
	frameID := 0
	args := request.GetArguments()
	if _, present := args["frame_id"]; present {
		var ok bool
		frameID, ok = intArg(args, "frame_id")
		if !ok {
			return errorResponse("Invalid 'frame_id' argument"), nil
		}
	}

	vars, err := s.manager.GetLocalVariables(ctx, sessionID, frameID)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to get local variables: %v", err)), nil
	}
	return jsonResponse("Local variables", vars)
}

func (s *Server) handleGetRegisters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}
	filter, ok := stringListArg(request.GetArguments(), "reg_list")
	if !ok {
		return errorResponse("Invalid 'reg_list' argument"), nil
	}

	regs, err := s.manager.GetRegisters(ctx, sessionID, filter)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to get registers: %v", err)), nil
	}
	return jsonResponse("Registers", regs)
}

func (s *Server) handleGetRegisterNames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return errorResponse("Missing or invalid 'session_id' argument"), nil
	}
	filter, ok := stringListArg(request.GetArguments(), "reg_list")
	if !ok {
		return errorResponse("Invalid 'reg_list' argument"), nil
	}

	names, err := s.manager.GetRegisterNames(ctx, sessionID, filter)
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to get register names: %v", err)), nil
	}
	return jsonResponse("Registers", names)
}

func registerListProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "The array of the registers to get",
	}
}

// intArg extracts an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// stringListArg extracts an optional array-of-strings argument. A missing
// argument yields a nil slice; a present but malformed one fails.
func stringListArg(args map[string]interface{}, key string) ([]string, bool) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, true
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, false
		}
		values = append(values, str)
	}
	return values, true
}

// breakpointNumbers extracts the breakpoint number array, accepting both
// string and numeric elements.
func breakpointNumbers(args map[string]interface{}) ([]int, bool) {
	raw, present := args["breakpoints"]
	if !present {
		return nil, false
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	numbers := make([]int, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, false
			}
			numbers = append(numbers, n)
		case float64:
			numbers = append(numbers, int(v))
		default:
			return nil, false
		}
	}
	return numbers, true
}
