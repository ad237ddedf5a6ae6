// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import "time"

// Breakpoint is one entry of a session's breakpoint table. Number is
// assigned by the debugger and is the key used for deletion.
type Breakpoint struct {
	Number   int    `json:"number"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Enabled  bool   `json:"enabled"`
	HitCount int    `json:"hit_count"`
}

// StackFrame is one frame of the call stack. Index 0 is the innermost
// (topmost) frame.
type StackFrame struct {
	Index    int    `json:"index"`
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Address  string `json:"address"`
}

// Variable is a named value in a stack frame's scope.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Register is a named machine register with its current value.
type Register struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MemoryBlock is a contiguous readable span of target memory. Begin, End
// and Offset are hexadecimal literals; Offset is relative to the address
// expression of the originating read request. End - Begin equals the byte
// length of Contents, which is a hex byte sequence. The block may be a
// strict subset of the requested range when parts of it are unreadable.
type MemoryBlock struct {
	Begin    string `json:"begin"`
	End      string `json:"end"`
	Offset   string `json:"offset"`
	Contents string `json:"contents"`
}

// StopEvent summarizes why execution stopped.
type StopEvent struct {
	// Reason is the debugger-reported stop reason (breakpoint-hit,
	// end-stepping-range, signal-received, exited-normally, exited, ...).
	Reason string `json:"reason"`

	// ThreadID is the stopped thread, when reported.
	ThreadID string `json:"thread_id,omitempty"`

	// ExitCode is the inferior's exit code for exited reasons.
	ExitCode string `json:"exit_code,omitempty"`

	// Function, File and Line locate the stop site, when reported.
	Function string `json:"function,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// Exited reports whether the stop event reflects inferior termination.
func (e *StopEvent) Exited() bool {
	return e.Reason == "exited" || e.Reason == "exited-normally" || e.Reason == "exited-signalled"
}

// SessionInfo is the externally visible snapshot of a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	Program   string    `json:"program,omitempty"`
	AttachPID int       `json:"attach_pid,omitempty"`
	PID       int32     `json:"debugger_pid"`
	CreatedAt time.Time `json:"created_at"`
	Exited    bool      `json:"exited"`
	LastStop  *StopEvent `json:"last_stop,omitempty"`
}
