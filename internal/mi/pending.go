// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mi

import "sync"

// pendingResult tracks a command awaiting its result record.
type pendingResult struct {
	// resultChan receives the result record. It is closed without a value
	// when the engine shuts down before the result arrives.
	resultChan chan *Record

	// command is the original command text (for logging).
	command string
}

// pendingResultMap is a thread-safe map of pending commands keyed by token.
type pendingResultMap struct {
	mu      sync.Mutex
	pending map[uint64]*pendingResult
}

// newPendingResultMap creates a new empty pending result map.
func newPendingResultMap() *pendingResultMap {
	return &pendingResultMap{
		pending: make(map[uint64]*pendingResult),
	}
}

// Add adds a pending command to the map.
func (m *pendingResultMap) Add(token uint64, pr *pendingResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[token] = pr
}

// Take retrieves and removes a pending command from the map.
// Returns nil if no command is outstanding for the given token, which makes
// result delivery at-most-once: a second reply for the same token finds
// nothing to resolve.
func (m *pendingResultMap) Take(token uint64) *pendingResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	pr, ok := m.pending[token]
	if !ok {
		return nil
	}

	delete(m.pending, token)
	return pr
}

// Peek returns the pending command for the given token without removing it.
func (m *pendingResultMap) Peek(token uint64) *pendingResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[token]
}

// Len returns the number of outstanding commands.
func (m *pendingResultMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Drain closes all result channels. Used during shutdown to unblock every
// waiting caller; a closed channel is read by Await as ErrProcessExited.
// Slots stay registered so a caller that has not yet awaited still finds its
// slot and observes either the buffered result or the closure. Drain must be
// called at most once.
func (m *pendingResultMap) Drain() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pr := range m.pending {
		close(pr.resultChan)
	}
}

// tokenCounter provides thread-safe command token generation. Tokens are
// monotonically increasing and never reused for the lifetime of the engine.
type tokenCounter struct {
	mu    sync.Mutex
	token uint64
}

// newTokenCounter creates a new token counter starting at 0.
func newTokenCounter() *tokenCounter {
	return &tokenCounter{}
}

// Next returns the next token.
func (c *tokenCounter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	return c.token
}

// Current returns the most recently issued token without incrementing.
func (c *tokenCounter) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}
