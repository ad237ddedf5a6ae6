// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satone7/mcp-server-gdb/internal/mi"
)

func mustParse(t *testing.T, line string) *mi.Record {
	t.Helper()
	rec, err := mi.ParseLine(line)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestProjectStopEvent(t *testing.T) {
	t.Parallel()

	t.Run("breakpoint hit", func(t *testing.T) {
		t.Parallel()
		rec := mustParse(t, `*stopped,reason="breakpoint-hit",disp="keep",bkptno="1",thread-id="1",frame={addr="0x0000555555555149",func="main",args=[],file="main.c",fullname="/src/main.c",line="12"}`)

		stop := projectStopEvent(rec.Payload)
		assert.Equal(t, "breakpoint-hit", stop.Reason)
		assert.Equal(t, "1", stop.ThreadID)
		assert.Equal(t, "main", stop.Function)
		assert.Equal(t, "main.c", stop.File)
		assert.Equal(t, 12, stop.Line)
		assert.False(t, stop.Exited())
	})

	t.Run("signalled exit", func(t *testing.T) {
		t.Parallel()
		rec := mustParse(t, `*stopped,reason="exited-signalled",signal-name="SIGSEGV"`)

		stop := projectStopEvent(rec.Payload)
		assert.Equal(t, "exited-signalled", stop.Reason)
		assert.True(t, stop.Exited())
	})

	t.Run("exit with code", func(t *testing.T) {
		t.Parallel()
		rec := mustParse(t, `*stopped,reason="exited",exit-code="01"`)

		stop := projectStopEvent(rec.Payload)
		assert.Equal(t, "01", stop.ExitCode)
		assert.True(t, stop.Exited())
	})

	t.Run("missing reason defaults to stopped", func(t *testing.T) {
		t.Parallel()
		rec := mustParse(t, `*stopped,frame={func="pause",file="pause.c",line="3"}`)

		stop := projectStopEvent(rec.Payload)
		assert.Equal(t, "stopped", stop.Reason)
		assert.Equal(t, "pause", stop.Function)
	})
}

func TestProjectBreakpoint(t *testing.T) {
	t.Parallel()

	t.Run("full reply", func(t *testing.T) {
		t.Parallel()
		rec := mustParse(t, `3^done,bkpt={number="2",type="breakpoint",disp="keep",enabled="y",addr="0x0000555555555149",func="main",file="main.c",fullname="/src/main.c",line="12",thread-groups=["i1"],times="7"}`)

		bkptVal, ok := rec.Payload.Lookup("bkpt")
		require.True(t, ok)

		bp := projectBreakpoint(bkptVal)
		assert.Equal(t, Breakpoint{Number: 2, File: "main.c", Line: 12, Enabled: true, HitCount: 7}, bp)
	})

	t.Run("falls back to fullname", func(t *testing.T) {
		t.Parallel()
		rec := mustParse(t, `4^done,bkpt={number="5",enabled="n",fullname="/src/util.c",line="40",times="0"}`)

		bkptVal, ok := rec.Payload.Lookup("bkpt")
		require.True(t, ok)

		bp := projectBreakpoint(bkptVal)
		assert.Equal(t, Breakpoint{Number: 5, File: "/src/util.c", Line: 40}, bp)
	})
}

func TestProjectStackFrame(t *testing.T) {
	t.Parallel()

	rec := mustParse(t, `7^done,stack=[frame={level="0",addr="0x00001149",func="compute",file="calc.c",fullname="/src/calc.c",line="8",arch="i386:x86-64"}]`)

	stackVal, ok := rec.Payload.Lookup("stack")
	require.True(t, ok)
	items := stackVal.Items()
	require.Len(t, items, 1)

	frame := projectStackFrame(items[0])
	assert.Equal(t, StackFrame{Index: 0, Function: "compute", File: "calc.c", Line: 8, Address: "0x00001149"}, frame)
}
