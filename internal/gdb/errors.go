// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for an unknown or already-closed
	// session identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidConfig is returned when a launch configuration is
	// internally inconsistent. No process is spawned.
	ErrInvalidConfig = errors.New("invalid launch configuration")
)

// LaunchError reports that the debugger binary could not be found or
// spawned. It is fatal to that create_session call only.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch debugger %q: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// CommandError reports that the debugger answered a command with an
// error-class result. The session remains usable.
type CommandError struct {
	Command string
	Msg     string
}

func (e *CommandError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("debugger rejected command %q", e.Command)
	}
	return fmt.Sprintf("debugger rejected command %q: %s", e.Command, e.Msg)
}

// EvaluationError reports that the debugger failed to evaluate an
// assignment expression.
type EvaluationError struct {
	Expression string
	Msg        string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("failed to evaluate %q: %s", e.Expression, e.Msg)
}
