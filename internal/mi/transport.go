// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mi

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Transport provides line-oriented I/O with a debugger process speaking the
// MI protocol. Reads and writes may be issued from different goroutines, but
// individual reads must not be concurrent with each other; the engine's read
// loop is the sole reader.
type Transport interface {
	// ReadLine reads the next output line, blocking until a full line is
	// available or the stream closes. The returned line has its trailing
	// newline stripped. Stream closure is reported as io.EOF.
	ReadLine() (string, error)

	// WriteLine writes one command line to the debugger's input. The
	// terminating newline is appended by the transport.
	WriteLine(line string) error

	// Close closes the transport, releasing the underlying streams. Any
	// blocked ReadLine returns with an error after Close.
	Close() error
}

// pipeTransport implements Transport over the stdout/stdin pipes of a
// debugger subprocess.
type pipeTransport struct {
	reader *bufio.Reader
	stdout io.ReadCloser
	stdin  io.WriteCloser

	// writeMu protects concurrent writes to stdin
	writeMu sync.Mutex

	// closed indicates whether the transport has been closed
	closed bool
	mu     sync.Mutex
}

// NewPipeTransport creates a Transport over a subprocess's stdout (read side)
// and stdin (write side) pipes.
func NewPipeTransport(stdout io.ReadCloser, stdin io.WriteCloser) Transport {
	return &pipeTransport{
		reader: bufio.NewReader(stdout),
		stdout: stdout,
		stdin:  stdin,
	}
}

func (t *pipeTransport) ReadLine() (string, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", ErrTransportClosed
	}
	t.mu.Unlock()

	line, readErr := t.reader.ReadString('\n')
	if readErr != nil && len(line) == 0 {
		return "", readErr
	}

	// A partial line at stream closure is still delivered; the next read
	// reports the closure.
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *pipeTransport) WriteLine(line string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	t.mu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, writeErr := io.WriteString(t.stdin, line+"\n"); writeErr != nil {
		return fmt.Errorf("failed to write command line: %w", writeErr)
	}

	return nil
}

func (t *pipeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var errs []error
	if closeErr := t.stdin.Close(); closeErr != nil {
		errs = append(errs, fmt.Errorf("failed to close stdin: %w", closeErr))
	}
	if closeErr := t.stdout.Close(); closeErr != nil {
		errs = append(errs, fmt.Errorf("failed to close stdout: %w", closeErr))
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
