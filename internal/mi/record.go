// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mi

// ValueKind identifies the shape of a Value.
type ValueKind int

const (
	// ConstKind is a scalar string value (a c-string in MI syntax).
	ConstKind ValueKind = iota
	// TupleKind is an ordered mapping of field name to value ({...} in MI syntax).
	TupleKind
	// ListKind is a sequence of values or named results ([...] in MI syntax).
	ListKind
)

// Field is a single element of a tuple or list. Name is empty for unnamed
// list elements.
type Field struct {
	Name  string
	Value Value
}

// Value is the recursively structured payload of an MI record.
// The zero Value is an empty Const.
type Value struct {
	kind  ValueKind
	str   string
	elems []Field
}

// ConstValue returns a scalar Value.
func ConstValue(s string) Value {
	return Value{kind: ConstKind, str: s}
}

// TupleValue returns a tuple Value with the given fields.
func TupleValue(fields ...Field) Value {
	return Value{kind: TupleKind, elems: fields}
}

// ListValue returns a list Value with the given elements.
func ListValue(elems ...Field) Value {
	return Value{kind: ListKind, elems: elems}
}

// Kind returns the shape of the value.
func (v Value) Kind() ValueKind { return v.kind }

// Const returns the scalar string, or "" for tuples and lists.
func (v Value) Const() string { return v.str }

// Fields returns the elements of a tuple or list in the order they appeared.
func (v Value) Fields() []Field { return v.elems }

// Lookup returns the value of the first field with the given name.
func (v Value) Lookup(name string) (Value, bool) {
	for _, f := range v.elems {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Str returns the scalar string of the named field, or "" if the field is
// missing or not a scalar.
func (v Value) Str(name string) string {
	fv, ok := v.Lookup(name)
	if !ok || fv.kind != ConstKind {
		return ""
	}
	return fv.str
}

// Items returns the unnamed and named element values of a list.
func (v Value) Items() []Value {
	items := make([]Value, 0, len(v.elems))
	for _, f := range v.elems {
		items = append(items, f.Value)
	}
	return items
}

// RecordKind identifies the classification of an MI output line.
type RecordKind int

const (
	// ResultRecord is a tokened reply to a command (e.g. "12^done,...").
	ResultRecord RecordKind = iota
	// ExecAsyncRecord is an unsolicited execution-state change ("*stopped,...").
	ExecAsyncRecord
	// StatusAsyncRecord is an unsolicited progress notification ("+download,...").
	StatusAsyncRecord
	// NotifyAsyncRecord is an unsolicited state-change notification ("=thread-created,...").
	NotifyAsyncRecord
	// StreamRecord is free-form output text ("~", "@" or "&" lines).
	StreamRecord
	// PromptRecord is the "(gdb)" readiness marker.
	PromptRecord
)

// String returns a human-readable representation of the record kind.
func (k RecordKind) String() string {
	switch k {
	case ResultRecord:
		return "result"
	case ExecAsyncRecord:
		return "exec-async"
	case StatusAsyncRecord:
		return "status-async"
	case NotifyAsyncRecord:
		return "notify-async"
	case StreamRecord:
		return "stream"
	case PromptRecord:
		return "prompt"
	default:
		return "unknown"
	}
}

// Result classes reported by the debugger in result records.
const (
	ResultDone      = "done"
	ResultRunning   = "running"
	ResultConnected = "connected"
	ResultError     = "error"
	ResultExit      = "exit"
)

// StreamChannel identifies the source of a stream record.
type StreamChannel int

const (
	// ConsoleChannel is output the debugger would print to its console ("~").
	ConsoleChannel StreamChannel = iota
	// TargetChannel is output produced by the debugged program ("@").
	TargetChannel
	// LogChannel is the debugger's own log/echo output ("&").
	LogChannel
)

// String returns a human-readable representation of the stream channel.
func (c StreamChannel) String() string {
	switch c {
	case ConsoleChannel:
		return "console"
	case TargetChannel:
		return "target"
	case LogChannel:
		return "log"
	default:
		return "unknown"
	}
}

// Record is one decoded MI output line.
type Record struct {
	// Kind is the line classification.
	Kind RecordKind

	// Token is the command token for result records. Valid only when
	// HasToken is true; async and stream records are never tokened.
	Token    uint64
	HasToken bool

	// Class is the result class (done, running, connected, error, exit)
	// for result records, or the async class (stopped, thread-created, ...)
	// for async records.
	Class string

	// Payload holds the record's structured results. Always a tuple,
	// possibly empty.
	Payload Value

	// Channel and Text are set for stream records only.
	Channel StreamChannel
	Text    string
}

// IsError reports whether the record is an error-class result.
func (r *Record) IsError() bool {
	return r.Kind == ResultRecord && r.Class == ResultError
}

// ErrorMessage returns the "msg" field of an error-class result, or an
// empty string if none was reported.
func (r *Record) ErrorMessage() string {
	return r.Payload.Str("msg")
}
