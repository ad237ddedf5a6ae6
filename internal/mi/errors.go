// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mi

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when an await exceeds its deadline. The pending
	// slot is released and the session remains usable.
	ErrTimeout = errors.New("timed out waiting for result record")

	// ErrProcessExited is returned to in-flight awaits when the debugger
	// process exits or its output stream closes.
	ErrProcessExited = errors.New("debugger process exited")

	// ErrEngineClosed is returned when sending on an engine that has been
	// shut down.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrUnknownToken is returned by Await for a token that was never issued
	// by Send or whose result was already consumed.
	ErrUnknownToken = errors.New("no command outstanding for token")

	// ErrTransportClosed is returned by transport operations after Close.
	ErrTransportClosed = errors.New("transport is closed")
)

// ParseError reports an output line that could not be classified as any MI
// record. The engine treats these as non-fatal and folds the raw line into
// the session's log output.
type ParseError struct {
	// Line is the raw text that failed to parse.
	Line string

	// Reason describes what made the line unparseable.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized MI record (%s): %q", e.Reason, e.Line)
}
