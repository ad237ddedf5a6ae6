// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/Satone7/mcp-server-gdb/internal/mi"
)

// Session is one managed debugging target: a debugger subprocess, the MI
// engine multiplexing its streams, and cached high-level state. A session
// exclusively owns its engine and process.
type Session struct {
	id        string
	cfg       LaunchConfig
	createdAt time.Time

	engine *mi.Engine
	pid    int32

	cmdTimeout  time.Duration
	stopTimeout time.Duration

	log logr.Logger

	// mu protects the event-sink state below
	mu          sync.Mutex
	lastStop    *StopEvent
	exited      bool
	closing     bool
	breakpoints map[int]Breakpoint
	stopWaiters []chan StopEvent
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Info returns a snapshot of the session's externally visible state.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:        s.id,
		Program:   s.cfg.Program,
		AttachPID: s.cfg.AttachPID,
		PID:       s.pid,
		CreatedAt: s.createdAt,
		Exited:    s.exited,
	}
	if s.lastStop != nil {
		stop := *s.lastStop
		info.LastStop = &stop
	}
	return info
}

// run sends one command and awaits its result record, bounding the wait
// with the session's command timeout unless the caller supplied a
// deadline. Error-class results surface as *CommandError.
func (s *Session) run(ctx context.Context, command string) (*mi.Record, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cmdTimeout)
		defer cancel()
	}

	rec, err := s.engine.Execute(ctx, command)
	if err != nil {
		return nil, err
	}
	if rec.IsError() {
		return nil, &CommandError{Command: command, Msg: rec.ErrorMessage()}
	}
	return rec, nil
}

// OnExecAsync tracks execution-state changes. Invoked on the engine's
// reader goroutine.
func (s *Session) OnExecAsync(rec *mi.Record) {
	if rec.Class != "stopped" {
		return
	}

	stop := projectStopEvent(rec.Payload)

	s.mu.Lock()
	s.lastStop = &stop
	waiters := s.stopWaiters
	s.stopWaiters = nil
	s.mu.Unlock()

	s.log.V(1).Info("Execution stopped", "reason", stop.Reason, "file", stop.File, "line", stop.Line)

	for _, w := range waiters {
		w <- stop
	}
}

// OnStatusAsync logs progress notifications.
func (s *Session) OnStatusAsync(rec *mi.Record) {
	s.log.V(2).Info("Status notification", "class", rec.Class)
}

// OnNotifyAsync keeps the breakpoint table in sync with debugger-side
// changes (hit counts, deletions).
func (s *Session) OnNotifyAsync(rec *mi.Record) {
	switch rec.Class {
	case "breakpoint-modified":
		bkptVal, ok := rec.Payload.Lookup("bkpt")
		if !ok {
			return
		}
		bp := projectBreakpoint(bkptVal)

		s.mu.Lock()
		if _, tracked := s.breakpoints[bp.Number]; tracked {
			s.breakpoints[bp.Number] = bp
		}
		s.mu.Unlock()

	case "breakpoint-deleted":
		number, err := strconv.Atoi(rec.Payload.Str("id"))
		if err != nil {
			return
		}
		s.mu.Lock()
		delete(s.breakpoints, number)
		s.mu.Unlock()

	default:
		s.log.V(2).Info("Notify notification", "class", rec.Class)
	}
}

// onProcessExit marks the session dead when the debugger process itself
// goes away; in-flight awaits are resolved by the engine shutdown.
func (s *Session) onProcessExit(exitCode int32, err error) {
	s.mu.Lock()
	alreadyClosing := s.closing
	s.exited = true
	waiters := s.stopWaiters
	s.stopWaiters = nil
	s.mu.Unlock()

	if !alreadyClosing {
		if err != nil {
			s.log.Info("Debugger process exited unexpectedly", "exitCode", exitCode, "error", err.Error())
		} else {
			s.log.Info("Debugger process exited", "exitCode", exitCode)
		}
	}

	_ = s.engine.Close()

	exitStop := StopEvent{Reason: "exited", ExitCode: strconv.Itoa(int(exitCode))}
	for _, w := range waiters {
		w <- exitStop
	}
}

// runAndWaitForStop issues a run-control command and suspends until the
// debugger reports the resulting stop. The waiter is registered before the
// command goes out, so a stop delivered between the result record and the
// wait is never lost.
func (s *Session) runAndWaitForStop(ctx context.Context, command string) (*StopEvent, error) {
	waiter, err := s.addStopWaiter()
	if err != nil {
		return nil, err
	}
	if _, err := s.run(ctx, command); err != nil {
		s.removeStopWaiter(waiter)
		return nil, err
	}
	return s.awaitStop(ctx, waiter)
}

// addStopWaiter registers a channel that receives the next stop event.
func (s *Session) addStopWaiter() (chan StopEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return nil, mi.ErrProcessExited
	}
	waiter := make(chan StopEvent, 1)
	s.stopWaiters = append(s.stopWaiters, waiter)
	return waiter, nil
}

// awaitStop suspends until the registered waiter fires, the debugger process
// exits, or the wait times out. The bound defaults to the session's stop
// timeout.
func (s *Session) awaitStop(ctx context.Context, waiter chan StopEvent) (*StopEvent, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stopTimeout)
		defer cancel()
	}

	select {
	case stop := <-waiter:
		return &stop, nil

	case <-ctx.Done():
		s.removeStopWaiter(waiter)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, mi.ErrTimeout
		}
		return nil, ctx.Err()

	case <-s.engine.Done():
		// Prefer an exit event delivered just before shutdown.
		select {
		case stop := <-waiter:
			return &stop, nil
		default:
		}
		s.removeStopWaiter(waiter)
		return nil, mi.ErrProcessExited
	}
}

func (s *Session) removeStopWaiter(waiter chan StopEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.stopWaiters {
		if w == waiter {
			s.stopWaiters = append(s.stopWaiters[:i], s.stopWaiters[i+1:]...)
			return
		}
	}
}

// projectStopEvent decodes a *stopped payload into a stop summary.
func projectStopEvent(payload mi.Value) StopEvent {
	stop := StopEvent{
		Reason:   payload.Str("reason"),
		ThreadID: payload.Str("thread-id"),
		ExitCode: payload.Str("exit-code"),
	}
	if stop.Reason == "" {
		stop.Reason = "stopped"
	}

	if frame, ok := payload.Lookup("frame"); ok {
		stop.Function = frame.Str("func")
		stop.File = frame.Str("file")
		if line, err := strconv.Atoi(frame.Str("line")); err == nil {
			stop.Line = line
		}
	}
	return stop
}

var _ mi.EventSink = (*Session)(nil)
