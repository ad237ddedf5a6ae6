// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mi

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport is an in-memory Transport driven by the test: lines
// pushed with emit become readable output, and written command lines are
// recorded.
type scriptedTransport struct {
	lines chan string

	mu      sync.Mutex
	written []string
	closed  bool

	closeCh   chan struct{}
	closeOnce sync.Once
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{
		lines:   make(chan string, 64),
		closeCh: make(chan struct{}),
	}
}

func (t *scriptedTransport) emit(line string) {
	t.lines <- line
}

func (t *scriptedTransport) ReadLine() (string, error) {
	select {
	case line := <-t.lines:
		return line, nil
	case <-t.closeCh:
		return "", io.EOF
	}
}

func (t *scriptedTransport) WriteLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	t.written = append(t.written, line)
	return nil
}

func (t *scriptedTransport) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.closeCh)
	})
	return nil
}

func (t *scriptedTransport) writtenLines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.written))
	copy(out, t.written)
	return out
}

// recordingSink collects async records delivered by the read loop.
type recordingSink struct {
	mu      sync.Mutex
	records []*Record
	notify  chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 64)}
}

func (s *recordingSink) add(rec *Record) {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	s.notify <- struct{}{}
}

func (s *recordingSink) OnExecAsync(rec *Record)   { s.add(rec) }
func (s *recordingSink) OnStatusAsync(rec *Record) { s.add(rec) }
func (s *recordingSink) OnNotifyAsync(rec *Record) { s.add(rec) }

func (s *recordingSink) wait(t *testing.T, n int) []*Record {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-s.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d async records", n)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

func startTestEngine(t *testing.T) (*Engine, *scriptedTransport, *recordingSink) {
	t.Helper()
	transport := newScriptedTransport()
	sink := newRecordingSink()
	engine := NewEngine(transport, sink, logr.Discard())
	engine.Start()
	t.Cleanup(func() { _ = engine.Close() })
	return engine, transport, sink
}

func TestEngine_SendWritesTokenedCommand(t *testing.T) {
	t.Parallel()

	engine, transport, _ := startTestEngine(t)

	token, err := engine.Send("-break-insert main.c:12")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), token)

	token, err = engine.Send("-exec-run")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), token)

	assert.Equal(t, []string{"1-break-insert main.c:12", "2-exec-run"}, transport.writtenLines())
}

func TestEngine_OutOfOrderResolution(t *testing.T) {
	t.Parallel()

	engine, transport, _ := startTestEngine(t)

	tokenA, err := engine.Send("-cmd-a")
	require.NoError(t, err)
	tokenB, err := engine.Send("-cmd-b")
	require.NoError(t, err)

	// Reply to B before A.
	transport.emit(fmt.Sprintf(`%d^done,value="b"`, tokenB))
	transport.emit(fmt.Sprintf(`%d^done,value="a"`, tokenA))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	recA, err := engine.Await(ctx, tokenA)
	require.NoError(t, err)
	assert.Equal(t, "a", recA.Payload.Str("value"), "caller awaiting A must get A's result")

	recB, err := engine.Await(ctx, tokenB)
	require.NoError(t, err)
	assert.Equal(t, "b", recB.Payload.Str("value"), "caller awaiting B must get B's result")
}

func TestEngine_ResultBeforeAwaitStillDelivered(t *testing.T) {
	t.Parallel()

	engine, transport, sink := startTestEngine(t)

	token, err := engine.Send("-break-insert main.c:12")
	require.NoError(t, err)

	// Reply immediately, then use an async record as a barrier so the read
	// loop has fully processed the result before the caller awaits it.
	transport.emit(fmt.Sprintf(`%d^done,value="early"`, token))
	transport.emit(`=thread-created,id="1"`)
	sink.wait(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := engine.Await(ctx, token)
	require.NoError(t, err, "a result processed before Await must still resolve it")
	assert.Equal(t, "early", rec.Payload.Str("value"))

	// The slot is consumed exactly once.
	_, err = engine.Await(ctx, token)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestEngine_AwaitNeverIssuedToken(t *testing.T) {
	t.Parallel()

	engine, _, _ := startTestEngine(t)

	_, err := engine.Await(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestEngine_UnknownTokenDropped(t *testing.T) {
	t.Parallel()

	engine, transport, _ := startTestEngine(t)

	// A reply for a token nobody is waiting on is logged and dropped,
	// and the engine keeps working.
	transport.emit(`99^done`)

	token, err := engine.Send("-cmd")
	require.NoError(t, err)
	transport.emit(fmt.Sprintf("%d^done", token))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := engine.Await(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ResultDone, rec.Class)
}

func TestEngine_AwaitTimeoutReleasesSlot(t *testing.T) {
	t.Parallel()

	engine, transport, _ := startTestEngine(t)

	token, err := engine.Send("-cmd-slow")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = engine.Await(ctx, token)
	require.ErrorIs(t, err, ErrTimeout)

	// The late reply hits a released slot and is dropped; the engine
	// remains usable for further commands.
	transport.emit(fmt.Sprintf("%d^done", token))

	token2, err := engine.Send("-cmd-next")
	require.NoError(t, err)
	transport.emit(fmt.Sprintf(`%d^done,value="ok"`, token2))

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()

	rec, err := engine.Await(ctx2, token2)
	require.NoError(t, err)
	assert.Equal(t, "ok", rec.Payload.Str("value"))
}

func TestEngine_ProcessExitResolvesAllPending(t *testing.T) {
	t.Parallel()

	engine, transport, _ := startTestEngine(t)

	tokenA, err := engine.Send("-cmd-a")
	require.NoError(t, err)
	tokenB, err := engine.Send("-cmd-b")
	require.NoError(t, err)

	results := make(chan error, 2)
	for _, token := range []uint64{tokenA, tokenB} {
		go func(token uint64) {
			_, awaitErr := engine.Await(context.Background(), token)
			results <- awaitErr
		}(token)
	}

	// Simulate the debugger process dying.
	require.NoError(t, transport.Close())

	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			assert.ErrorIs(t, err, ErrProcessExited)
		case <-time.After(2 * time.Second):
			t.Fatal("pending await hung after process exit")
		}
	}

	select {
	case <-engine.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not report termination")
	}

	// Further sends are rejected.
	_, err = engine.Send("-cmd-c")
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestEngine_AsyncDispatchPreservesOrder(t *testing.T) {
	t.Parallel()

	_, transport, sink := startTestEngine(t)

	transport.emit(`*running,thread-id="all"`)
	transport.emit(`=thread-created,id="1",group-id="i1"`)
	transport.emit(`*stopped,reason="breakpoint-hit",bkptno="1"`)

	records := sink.wait(t, 3)
	require.Len(t, records, 3)
	assert.Equal(t, "running", records[0].Class)
	assert.Equal(t, "thread-created", records[1].Class)
	assert.Equal(t, "stopped", records[2].Class)
}

func TestEngine_StreamTextAccumulated(t *testing.T) {
	t.Parallel()

	engine, transport, sink := startTestEngine(t)

	transport.emit(`~"Reading symbols...\n"`)
	transport.emit(`&"warning: no debug info\n"`)
	// A record the parser cannot classify falls back to log output.
	transport.emit(`garbage that is not MI`)
	transport.emit(`(gdb)`)
	// Use an async record as a barrier so we know the loop consumed everything.
	transport.emit(`=thread-created,id="1"`)
	sink.wait(t, 1)

	out := engine.TakeOutput()
	assert.Contains(t, out, "Reading symbols...")
	assert.Contains(t, out, "warning: no debug info")
	assert.Contains(t, out, "garbage that is not MI")

	assert.Empty(t, engine.TakeOutput(), "output should be consumed once")
}

func TestEngine_TokenUniqueness(t *testing.T) {
	t.Parallel()

	engine, transport, _ := startTestEngine(t)

	const n = 50
	seen := make(map[uint64]bool)
	tokens := make([]uint64, 0, n)

	for i := 0; i < n; i++ {
		token, err := engine.Send("-cmd")
		require.NoError(t, err)
		require.False(t, seen[token], "token %d reused", token)
		seen[token] = true
		tokens = append(tokens, token)
	}

	for _, token := range tokens {
		transport.emit(fmt.Sprintf("%d^done", token))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, token := range tokens {
		rec, err := engine.Await(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, ResultDone, rec.Class)
	}
}
