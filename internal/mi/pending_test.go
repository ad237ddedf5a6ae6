// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounter(t *testing.T) {
	t.Parallel()

	counter := newTokenCounter()

	assert.Equal(t, uint64(0), counter.Current(), "initial value should be 0")

	assert.Equal(t, uint64(1), counter.Next(), "first Next() should return 1")
	assert.Equal(t, uint64(2), counter.Next(), "second Next() should return 2")
	assert.Equal(t, uint64(3), counter.Next(), "third Next() should return 3")
	assert.Equal(t, uint64(3), counter.Current(), "Current() should return 3")
}

func TestTokenCounter_Unique(t *testing.T) {
	t.Parallel()

	counter := newTokenCounter()
	seen := make(map[uint64]bool)

	for i := 0; i < 1000; i++ {
		token := counter.Next()
		require.False(t, seen[token], "token %d issued twice", token)
		seen[token] = true
	}
}

func TestPendingResultMap(t *testing.T) {
	t.Parallel()

	m := newPendingResultMap()

	assert.Equal(t, 0, m.Len(), "initial map should be empty")

	pr1 := &pendingResult{resultChan: make(chan *Record, 1), command: "-exec-run"}
	pr2 := &pendingResult{resultChan: make(chan *Record, 1), command: "-break-insert main.c:12"}

	m.Add(10, pr1)
	m.Add(11, pr2)

	assert.Equal(t, 2, m.Len(), "map should have 2 entries")

	// Peek does not remove
	assert.Equal(t, pr1, m.Peek(10))
	assert.Equal(t, 2, m.Len())

	// Take removes
	got := m.Take(10)
	require.NotNil(t, got, "should take pending result for token 10")
	assert.Equal(t, pr1, got)
	assert.Equal(t, 1, m.Len(), "map should have 1 entry after Take")

	// Second Take for same token returns nil: delivery is at-most-once
	assert.Nil(t, m.Take(10), "second Take for same token should return nil")

	// Take for unknown token
	assert.Nil(t, m.Take(999))
	assert.Nil(t, m.Peek(999))

	got = m.Take(11)
	require.NotNil(t, got)
	assert.Equal(t, pr2, got)
	assert.Equal(t, 0, m.Len())
}

func TestPendingResultMap_Drain(t *testing.T) {
	t.Parallel()

	m := newPendingResultMap()

	ch1 := make(chan *Record, 1)
	ch2 := make(chan *Record, 1)
	m.Add(1, &pendingResult{resultChan: ch1})
	m.Add(2, &pendingResult{resultChan: ch2})

	m.Drain()

	// Slots survive the drain so late awaiters can still observe closure.
	assert.Equal(t, 2, m.Len(), "slots should stay registered after drain")
	assert.NotNil(t, m.Peek(1))
	assert.NotNil(t, m.Peek(2))

	for _, ch := range []chan *Record{ch1, ch2} {
		select {
		case _, ok := <-ch:
			assert.False(t, ok, "result channel should be closed")
		default:
			t.Fatal("result channel should be closed and readable")
		}
	}
}
