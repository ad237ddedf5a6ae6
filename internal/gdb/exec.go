// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"context"
	"strconv"
)

// StartDebugging runs the target from the beginning and waits for the
// first stop (breakpoint hit, signal, or exit).
func (m *Manager) StartDebugging(ctx context.Context, sessionID string) (*StopEvent, error) {
	return m.execAndWait(ctx, sessionID, "-exec-run")
}

// StopDebugging interrupts a running target. The session stays alive so
// the stopped program can be inspected or resumed.
func (m *Manager) StopDebugging(ctx context.Context, sessionID string) (*StopEvent, error) {
	return m.execAndWait(ctx, sessionID, "-exec-interrupt")
}

// ContinueExecution resumes the target until the next stop.
func (m *Manager) ContinueExecution(ctx context.Context, sessionID string) (*StopEvent, error) {
	return m.execAndWait(ctx, sessionID, "-exec-continue")
}

// StepExecution advances one source line, stepping into calls.
func (m *Manager) StepExecution(ctx context.Context, sessionID string) (*StopEvent, error) {
	return m.execAndWait(ctx, sessionID, "-exec-step")
}

// NextExecution advances one source line, stepping over calls.
func (m *Manager) NextExecution(ctx context.Context, sessionID string) (*StopEvent, error) {
	return m.execAndWait(ctx, sessionID, "-exec-next")
}

func (m *Manager) execAndWait(ctx context.Context, sessionID string, command string) (*StopEvent, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.runAndWaitForStop(ctx, command)
}

// ModifyVariable evaluates an assignment expression (e.g. "x = 42") in
// the current frame and returns the value the debugger reports back.
func (m *Manager) ModifyVariable(ctx context.Context, sessionID string, expr string) (string, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return "", err
	}

	rec, err := sess.run(ctx, "-data-evaluate-expression "+strconv.Quote(expr))
	if err != nil {
		if cmdErr, ok := err.(*CommandError); ok {
			return "", &EvaluationError{Expression: expr, Msg: cmdErr.Msg}
		}
		return "", err
	}
	return rec.Payload.Str("value"), nil
}
