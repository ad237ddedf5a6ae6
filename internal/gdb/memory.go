// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// blockReader reads count bytes at the given offset from some base
// address, returning the data and the absolute start address of the read.
// A partial read is an error.
type blockReader func(offset int64, count uint64) ([]byte, uint64, error)

// memorySpan is one successfully read region, identified by its offset
// from the base address.
type memorySpan struct {
	offset int64
	begin  uint64
	data   []byte
}

// ReadMemory reads up to count addressable units starting offset units
// past the address the expression evaluates to. When the full range is not
// readable, the requested range is bisected recursively and the leading
// contiguous readable region is returned; readable bytes beyond the first
// unreadable unit are not reported.
func (m *Manager) ReadMemory(ctx context.Context, sessionID string, addressExpr string, count uint64, offset int64) (MemoryBlock, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return MemoryBlock{}, err
	}

	read := func(off int64, cnt uint64) ([]byte, uint64, error) {
		return readMemoryBytes(ctx, sess, addressExpr, off, cnt)
	}

	spans := collectReadableSpans(read, offset, count)
	if len(spans) == 0 {
		return MemoryBlock{}, &CommandError{
			Command: "-data-read-memory-bytes",
			Msg:     fmt.Sprintf("no readable memory at %s offset %d", addressExpr, offset),
		}
	}

	first := mergeLeadingSpans(spans)
	return MemoryBlock{
		Begin:    fmt.Sprintf("0x%x", first.begin),
		End:      fmt.Sprintf("0x%x", first.begin+uint64(len(first.data))),
		Offset:   hexLiteral(first.offset),
		Contents: hex.EncodeToString(first.data),
	}, nil
}

// hexLiteral renders a signed value as a hex literal with a leading sign,
// so -42 becomes "-0x2a" rather than "0x-2a".
func hexLiteral(v int64) string {
	if v < 0 {
		return fmt.Sprintf("-0x%x", uint64(-v))
	}
	return fmt.Sprintf("0x%x", v)
}

// readMemoryBytes issues a single read command and decodes its reply.
// Replies covering less than the requested range count as failures so the
// bisection can narrow in on the readable part.
func readMemoryBytes(ctx context.Context, sess *Session, addressExpr string, offset int64, count uint64) ([]byte, uint64, error) {
	command := fmt.Sprintf("-data-read-memory-bytes -o %d %s %d", offset, strconv.Quote(addressExpr), count)
	rec, err := sess.run(ctx, command)
	if err != nil {
		return nil, 0, err
	}

	memVal, ok := rec.Payload.Lookup("memory")
	if !ok || len(memVal.Items()) == 0 {
		return nil, 0, &CommandError{Command: command, Msg: "reply carries no memory"}
	}

	block := memVal.Items()[0]
	begin, err := parseHex(block.Str("begin"))
	if err != nil {
		return nil, 0, &CommandError{Command: command, Msg: "bad begin address: " + block.Str("begin")}
	}
	data, err := hex.DecodeString(block.Str("contents"))
	if err != nil {
		return nil, 0, &CommandError{Command: command, Msg: "bad contents encoding"}
	}
	if uint64(len(data)) < count {
		return nil, 0, &CommandError{Command: command, Msg: "short read"}
	}
	return data[:count], begin, nil
}

// collectReadableSpans returns the readable regions inside [offset,
// offset+count), found by halving failed ranges down to single units.
// A half that reads whole is taken as-is, so a hole strictly inside a
// successful read is never discovered.
func collectReadableSpans(read blockReader, offset int64, count uint64) []memorySpan {
	if count == 0 {
		return nil
	}
	data, begin, err := read(offset, count)
	if err == nil {
		return []memorySpan{{offset: offset, begin: begin, data: data}}
	}
	if count <= 1 {
		return nil
	}

	half := count / 2
	spans := collectReadableSpans(read, offset, half)
	spans = append(spans, collectReadableSpans(read, offset+int64(half), count-half)...)
	return spans
}

// mergeLeadingSpans folds the spans' leading contiguous run into one.
func mergeLeadingSpans(spans []memorySpan) memorySpan {
	first := spans[0]
	first.data = append([]byte(nil), first.data...)
	for _, next := range spans[1:] {
		if next.offset != first.offset+int64(len(first.data)) {
			break
		}
		first.data = append(first.data, next.data...)
	}
	return first
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, 64)
}
