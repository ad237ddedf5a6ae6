// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Satone7/mcp-server-gdb/internal/mi"
)

// SetBreakpoint inserts a source breakpoint and records it in the
// session's breakpoint table.
func (m *Manager) SetBreakpoint(ctx context.Context, sessionID string, file string, line int) (Breakpoint, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return Breakpoint{}, err
	}

	location := fmt.Sprintf("%s:%d", file, line)
	rec, err := sess.run(ctx, "-break-insert "+strconv.Quote(location))
	if err != nil {
		return Breakpoint{}, err
	}

	bkptVal, ok := rec.Payload.Lookup("bkpt")
	if !ok {
		return Breakpoint{}, &CommandError{Command: "-break-insert", Msg: "reply carries no breakpoint"}
	}
	bp := projectBreakpoint(bkptVal)

	sess.mu.Lock()
	sess.breakpoints[bp.Number] = bp
	sess.mu.Unlock()

	return bp, nil
}

// DeleteBreakpoints removes the named breakpoints from the debugger and
// the session's table.
func (m *Manager) DeleteBreakpoints(ctx context.Context, sessionID string, numbers []int) error {
	sess, err := m.session(sessionID)
	if err != nil {
		return err
	}
	if len(numbers) == 0 {
		return nil
	}

	args := make([]string, 0, len(numbers))
	for _, n := range numbers {
		args = append(args, strconv.Itoa(n))
	}
	if _, err := sess.run(ctx, "-break-delete "+strings.Join(args, " ")); err != nil {
		return err
	}

	sess.mu.Lock()
	for _, n := range numbers {
		delete(sess.breakpoints, n)
	}
	sess.mu.Unlock()
	return nil
}

// GetBreakpoints returns the session's breakpoints ordered by number.
func (m *Manager) GetBreakpoints(sessionID string) ([]Breakpoint, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	bps := make([]Breakpoint, 0, len(sess.breakpoints))
	for _, bp := range sess.breakpoints {
		bps = append(bps, bp)
	}
	sess.mu.Unlock()

	sort.Slice(bps, func(i, j int) bool { return bps[i].Number < bps[j].Number })
	return bps, nil
}

// GetStackFrames returns the call stack of the current thread. The target
// must be stopped.
func (m *Manager) GetStackFrames(ctx context.Context, sessionID string) ([]StackFrame, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	rec, err := sess.run(ctx, "-stack-list-frames")
	if err != nil {
		return nil, err
	}

	stackVal, ok := rec.Payload.Lookup("stack")
	if !ok {
		return nil, &CommandError{Command: "-stack-list-frames", Msg: "reply carries no stack"}
	}

	frames := make([]StackFrame, 0, len(stackVal.Items()))
	for _, frameVal := range stackVal.Items() {
		frames = append(frames, projectStackFrame(frameVal))
	}
	return frames, nil
}

// GetLocalVariables returns the local variables of one stack frame.
func (m *Manager) GetLocalVariables(ctx context.Context, sessionID string, frameIndex int) ([]Variable, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := sess.run(ctx, "-stack-select-frame "+strconv.Itoa(frameIndex)); err != nil {
		return nil, err
	}
	rec, err := sess.run(ctx, "-stack-list-variables --simple-values")
	if err != nil {
		return nil, err
	}

	varsVal, ok := rec.Payload.Lookup("variables")
	if !ok {
		return nil, &CommandError{Command: "-stack-list-variables", Msg: "reply carries no variables"}
	}

	vars := make([]Variable, 0, len(varsVal.Items()))
	for _, v := range varsVal.Items() {
		vars = append(vars, Variable{
			Name:  v.Str("name"),
			Value: v.Str("value"),
			Type:  v.Str("type"),
		})
	}
	return vars, nil
}

// GetRegisterNames returns the target's register names, optionally
// filtered to the requested subset. Vector slots with empty names are
// dropped.
func (m *Manager) GetRegisterNames(ctx context.Context, sessionID string, filter []string) ([]string, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	names, err := registerNames(ctx, sess)
	if err != nil {
		return nil, err
	}
	return filterRegisterNames(names, filter), nil
}

// GetRegisters returns register name/value pairs for the current frame,
// optionally filtered by register name. Values are rendered in hex.
func (m *Manager) GetRegisters(ctx context.Context, sessionID string, filter []string) ([]Register, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	names, err := registerNames(ctx, sess)
	if err != nil {
		return nil, err
	}

	rec, err := sess.run(ctx, "-data-list-register-values x")
	if err != nil {
		return nil, err
	}
	valuesVal, ok := rec.Payload.Lookup("register-values")
	if !ok {
		return nil, &CommandError{Command: "-data-list-register-values", Msg: "reply carries no register values"}
	}

	wanted := toNameSet(filter)
	registers := make([]Register, 0, len(valuesVal.Items()))
	for _, rv := range valuesVal.Items() {
		number, err := strconv.Atoi(rv.Str("number"))
		if err != nil || number < 0 || number >= len(names) {
			continue
		}
		name := names[number]
		if name == "" {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[name]; !ok {
				continue
			}
		}
		registers = append(registers, Register{Name: name, Value: rv.Str("value")})
	}
	return registers, nil
}

func registerNames(ctx context.Context, sess *Session) ([]string, error) {
	rec, err := sess.run(ctx, "-data-list-register-names")
	if err != nil {
		return nil, err
	}
	namesVal, ok := rec.Payload.Lookup("register-names")
	if !ok {
		return nil, &CommandError{Command: "-data-list-register-names", Msg: "reply carries no register names"}
	}

	items := namesVal.Items()
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Const())
	}
	return names, nil
}

func filterRegisterNames(names []string, filter []string) []string {
	wanted := toNameSet(filter)
	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[name]; !ok {
				continue
			}
		}
		filtered = append(filtered, name)
	}
	return filtered
}

func toNameSet(filter []string) map[string]struct{} {
	if len(filter) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(filter))
	for _, name := range filter {
		set[name] = struct{}{}
	}
	return set
}

func projectBreakpoint(v mi.Value) Breakpoint {
	bp := Breakpoint{
		Number:  atoiOrZero(v.Str("number")),
		File:    v.Str("file"),
		Line:    atoiOrZero(v.Str("line")),
		Enabled: v.Str("enabled") == "y",
	}
	if bp.File == "" {
		bp.File = v.Str("fullname")
	}
	bp.HitCount = atoiOrZero(v.Str("times"))
	return bp
}

func projectStackFrame(v mi.Value) StackFrame {
	return StackFrame{
		Index:    atoiOrZero(v.Str("level")),
		Function: v.Str("func"),
		File:     v.Str("file"),
		Line:     atoiOrZero(v.Str("line")),
		Address:  v.Str("addr"),
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
