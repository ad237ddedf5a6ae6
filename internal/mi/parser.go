// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// MI output grammar, per the GDB/MI documentation:
//
//	result-record  -> [token] "^" result-class ("," result)*
//	async-record   -> [token] ("*" | "+" | "=") async-class ("," result)*
//	stream-record  -> ("~" | "@" | "&") c-string
//	result         -> variable "=" value
//	value          -> c-string | "{" (result ("," result)*)? "}" |
//	                  "[" ((value | result) ("," (value | result))*)? "]"
//
// Parsing is pure: one line in, one Record out. Lines that cannot be
// classified yield a *ParseError carrying the raw text.

package mi

import (
	"fmt"
	"strconv"
	"strings"
)

const promptMarker = "(gdb)"

// ParseLine decodes one MI output line into a Record.
func ParseLine(line string) (*Record, error) {
	trimmed := strings.TrimRight(line, "\r")

	if strings.TrimSpace(trimmed) == promptMarker {
		return &Record{Kind: PromptRecord}, nil
	}
	if trimmed == "" {
		return nil, &ParseError{Line: line, Reason: "empty line"}
	}

	p := &lineParser{s: trimmed}

	token, hasToken := p.readToken()

	marker := p.peek()
	switch marker {
	case '^', '*', '+', '=':
		p.pos++
		rec, err := p.parseClassRecord(marker)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error()}
		}
		rec.Token = token
		rec.HasToken = hasToken
		return rec, nil

	case '~', '@', '&':
		if hasToken {
			return nil, &ParseError{Line: line, Reason: "stream record with token prefix"}
		}
		p.pos++
		rec, err := p.parseStreamRecord(marker)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error()}
		}
		return rec, nil

	default:
		return nil, &ParseError{Line: line, Reason: "unrecognized record marker"}
	}
}

func (p *lineParser) parseClassRecord(marker byte) (*Record, error) {
	class := p.readClass()
	if class == "" {
		return nil, fmt.Errorf("missing record class")
	}

	rec := &Record{Class: class, Payload: TupleValue()}

	switch marker {
	case '^':
		rec.Kind = ResultRecord
		switch class {
		case ResultDone, ResultRunning, ResultConnected, ResultError, ResultExit:
		default:
			return nil, fmt.Errorf("unknown result class %q", class)
		}
	case '*':
		rec.Kind = ExecAsyncRecord
	case '+':
		rec.Kind = StatusAsyncRecord
	case '=':
		rec.Kind = NotifyAsyncRecord
	}

	if p.eof() {
		return rec, nil
	}
	if p.peek() != ',' {
		return nil, fmt.Errorf("expected ',' after record class")
	}
	p.pos++

	fields, err := p.parseResults()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("trailing data at position %d", p.pos)
	}

	rec.Payload = TupleValue(fields...)
	return rec, nil
}

func (p *lineParser) parseStreamRecord(marker byte) (*Record, error) {
	rec := &Record{Kind: StreamRecord}
	switch marker {
	case '~':
		rec.Channel = ConsoleChannel
	case '@':
		rec.Channel = TargetChannel
	case '&':
		rec.Channel = LogChannel
	}

	// Stream output is a c-string, but some debuggers emit bare text on the
	// log channel; take the raw remainder in that case.
	if p.eof() || p.peek() != '"' {
		rec.Text = p.s[p.pos:]
		p.pos = len(p.s)
		return rec, nil
	}

	text, err := p.parseCString()
	if err != nil {
		return nil, err
	}
	rec.Text = text
	return rec, nil
}

// lineParser is a recursive-descent parser over a single output line.
type lineParser struct {
	s   string
	pos int
}

func (p *lineParser) eof() bool  { return p.pos >= len(p.s) }
func (p *lineParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

// readToken consumes an optional leading numeric command token.
func (p *lineParser) readToken() (uint64, bool) {
	start := p.pos
	for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	token, err := strconv.ParseUint(p.s[start:p.pos], 10, 64)
	if err != nil {
		// Token overflows uint64; rewind and let classification fail.
		p.pos = start
		return 0, false
	}
	return token, true
}

// readClass consumes a result or async class name.
func (p *lineParser) readClass() string {
	start := p.pos
	for !p.eof() {
		c := p.s[p.pos]
		if c == ',' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

// parseResults parses a comma-separated sequence of name=value results,
// stopping at end of input or a closing delimiter.
func (p *lineParser) parseResults() ([]Field, error) {
	var fields []Field
	for {
		f, err := p.parseResult()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)

		if p.eof() || p.peek() != ',' {
			return fields, nil
		}
		p.pos++
	}
}

func (p *lineParser) parseResult() (Field, error) {
	name, err := p.parseVariable()
	if err != nil {
		return Field{}, err
	}
	if p.eof() || p.peek() != '=' {
		return Field{}, fmt.Errorf("expected '=' after %q", name)
	}
	p.pos++

	value, err := p.parseValue()
	if err != nil {
		return Field{}, err
	}
	return Field{Name: name, Value: value}, nil
}

func (p *lineParser) parseVariable() (string, error) {
	start := p.pos
	for !p.eof() {
		c := p.s[p.pos]
		if c == '=' || c == ',' || c == '{' || c == '[' || c == '}' || c == ']' || c == '"' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("expected field name at position %d", p.pos)
	}
	return p.s[start:p.pos], nil
}

func (p *lineParser) parseValue() (Value, error) {
	if p.eof() {
		return Value{}, fmt.Errorf("expected value at end of line")
	}
	switch p.peek() {
	case '"':
		s, err := p.parseCString()
		if err != nil {
			return Value{}, err
		}
		return ConstValue(s), nil
	case '{':
		return p.parseTuple()
	case '[':
		return p.parseList()
	default:
		return Value{}, fmt.Errorf("expected value at position %d", p.pos)
	}
}

func (p *lineParser) parseTuple() (Value, error) {
	p.pos++ // consume '{'
	if p.peek() == '}' {
		p.pos++
		return TupleValue(), nil
	}

	fields, err := p.parseResults()
	if err != nil {
		return Value{}, err
	}
	if p.peek() != '}' {
		return Value{}, fmt.Errorf("unterminated tuple at position %d", p.pos)
	}
	p.pos++
	return TupleValue(fields...), nil
}

func (p *lineParser) parseList() (Value, error) {
	p.pos++ // consume '['
	if p.peek() == ']' {
		p.pos++
		return ListValue(), nil
	}

	var elems []Field
	for {
		switch p.peek() {
		case '"', '{', '[':
			// Unnamed list element.
			v, err := p.parseValue()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, Field{Value: v})
		default:
			// Named list element, e.g. frame={...}.
			f, err := p.parseResult()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, f)
		}

		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return ListValue(elems...), nil
		default:
			return Value{}, fmt.Errorf("unterminated list at position %d", p.pos)
		}
	}
}

// parseCString parses a double-quoted string with backslash escapes.
func (p *lineParser) parseCString() (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for !p.eof() {
		c := p.s[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", fmt.Errorf("dangling escape at end of line")
			}
			b.WriteByte(unescape(p.s[p.pos]))
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at position %d", p.pos)
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		// \" \\ and anything unrecognized pass through verbatim.
		return c
	}
}
