// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// The engine multiplexes one MI text stream into independent
// command/result pairs plus out-of-band notifications. A single reader
// goroutine owns the transport's output for the engine's lifetime; it is
// the only caller of ParseLine and dispatches each record either to the
// pending slot matching its token or to the session's event sink.

package mi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// EventSink receives untokened asynchronous records from the read loop.
// Methods are invoked on the reader goroutine in stream arrival order, so
// implementations must return quickly and must not call back into the
// engine's Await.
type EventSink interface {
	// OnExecAsync is called for execution-state changes (*stopped, *running).
	OnExecAsync(rec *Record)

	// OnStatusAsync is called for progress notifications (+download, ...).
	OnStatusAsync(rec *Record)

	// OnNotifyAsync is called for state-change notifications
	// (=thread-created, =breakpoint-modified, ...).
	OnNotifyAsync(rec *Record)
}

// Engine drives the MI protocol over a Transport: it assigns a
// monotonically increasing token to each outgoing command and correlates
// every result record back to its awaiting caller.
type Engine struct {
	transport Transport

	// tokens generates command tokens; never reused within a session
	tokens *tokenCounter

	// pending tracks commands awaiting their result record
	pending *pendingResultMap

	// sink receives untokened async records
	sink EventSink

	// output accumulates stream-record text until consumed
	output strings.Builder
	outMu  sync.Mutex

	// done is closed when the read loop terminates
	done chan struct{}

	// closed guards against sends after shutdown
	closed    bool
	closeOnce sync.Once
	mu        sync.Mutex

	log logr.Logger
}

// NewEngine creates an engine over the given transport. The sink may be nil,
// in which case async records are dropped.
func NewEngine(transport Transport, sink EventSink, log logr.Logger) *Engine {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Engine{
		transport: transport,
		tokens:    newTokenCounter(),
		pending:   newPendingResultMap(),
		sink:      sink,
		done:      make(chan struct{}),
		log:       log,
	}
}

// Start launches the background read loop. It must be called exactly once.
func (e *Engine) Start() {
	go e.readLoop()
}

// Done returns a channel that is closed when the read loop terminates,
// either because the debugger process exited or the engine was closed.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Send allocates the next token, writes "token + command" to the debugger
// and registers a pending slot for the eventual result record. It returns
// immediately; the caller resolves the result with Await.
func (e *Engine) Send(command string) (uint64, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, ErrEngineClosed
	}
	e.mu.Unlock()

	token := e.tokens.Next()
	e.pending.Add(token, &pendingResult{
		resultChan: make(chan *Record, 1),
		command:    command,
	})

	line := strconv.FormatUint(token, 10) + command
	if writeErr := e.transport.WriteLine(line); writeErr != nil {
		e.pending.Take(token)
		return 0, fmt.Errorf("failed to send command %q: %w", command, writeErr)
	}

	e.log.V(2).Info("Sent command", "token", token, "command", command)
	return token, nil
}

// Await suspends the caller until the result record for the given token
// arrives, the context expires (ErrTimeout for a deadline, the context error
// otherwise), or the debugger process exits (ErrProcessExited). The pending
// slot stays registered until the caller consumes the result or gives up, so
// a result dispatched before Await is entered is still delivered.
func (e *Engine) Await(ctx context.Context, token uint64) (*Record, error) {
	pr := e.pending.Peek(token)
	if pr == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownToken, token)
	}

	select {
	case rec, delivered := <-pr.resultChan:
		if !delivered {
			return nil, ErrProcessExited
		}
		e.pending.Take(token)
		return rec, nil

	case <-ctx.Done():
		// Release the slot; a late reply becomes an unexpected token, which
		// the read loop logs and drops.
		e.pending.Take(token)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()

	case <-e.done:
		// Prefer a result that was delivered just before shutdown.
		select {
		case rec, delivered := <-pr.resultChan:
			if delivered {
				e.pending.Take(token)
				return rec, nil
			}
		default:
		}
		return nil, ErrProcessExited
	}
}

// Execute sends a command and awaits its result record.
func (e *Engine) Execute(ctx context.Context, command string) (*Record, error) {
	token, sendErr := e.Send(command)
	if sendErr != nil {
		return nil, sendErr
	}
	return e.Await(ctx, token)
}

// TakeOutput returns the stream-record text accumulated since the last call
// and resets the buffer.
func (e *Engine) TakeOutput() string {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	out := e.output.String()
	e.output.Reset()
	return out
}

// Close shuts the engine down: the transport is closed, the read loop
// unblocks, and every in-flight Await resolves with ErrProcessExited.
// Close is idempotent.
func (e *Engine) Close() error {
	var closeErr error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		closeErr = e.transport.Close()
	})
	return closeErr
}

// readLoop is the sole reader of the transport's output stream. It
// processes lines strictly in arrival order, preserving the relative
// ordering of async notifications and result records as emitted by the
// debugger.
func (e *Engine) readLoop() {
	defer func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		// Report termination, then resolve all in-flight awaits.
		close(e.done)
		e.pending.Drain()
	}()

	for {
		line, readErr := e.transport.ReadLine()
		if readErr != nil {
			e.log.V(1).Info("Output stream closed", "reason", readErr.Error())
			return
		}
		if line == "" {
			continue
		}

		rec, parseErr := ParseLine(line)
		if parseErr != nil {
			// Non-fatal: keep the raw line as log output and move on.
			e.log.V(1).Info("Dropping unparseable output line", "line", line)
			e.appendOutput(line + "\n")
			continue
		}

		e.dispatch(rec)
	}
}

func (e *Engine) dispatch(rec *Record) {
	switch rec.Kind {
	case PromptRecord:
		// Readiness marker; nothing to do.

	case StreamRecord:
		e.appendOutput(rec.Text)

	case ResultRecord:
		if !rec.HasToken {
			e.log.V(1).Info("Dropping untokened result record", "class", rec.Class)
			return
		}
		pr := e.pending.Peek(rec.Token)
		if pr == nil {
			e.log.Info("Received result for unknown token", "token", rec.Token, "class", rec.Class)
			return
		}
		// The slot stays in the map until the awaiting caller consumes the
		// result; the buffered channel holds it in the meantime. A duplicate
		// result for the same token finds the buffer full and is dropped.
		select {
		case pr.resultChan <- rec:
			e.log.V(2).Info("Resolved command", "token", rec.Token, "class", rec.Class, "command", pr.command)
		default:
			e.log.Info("Dropping duplicate result for token", "token", rec.Token, "class", rec.Class)
		}

	case ExecAsyncRecord:
		if e.sink != nil {
			e.sink.OnExecAsync(rec)
		}

	case StatusAsyncRecord:
		if e.sink != nil {
			e.sink.OnStatusAsync(rec)
		}

	case NotifyAsyncRecord:
		if e.sink != nil {
			e.sink.OnNotifyAsync(rec)
		}
	}
}

func (e *Engine) appendOutput(text string) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	e.output.WriteString(text)
}
