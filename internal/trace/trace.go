// Package trace provides a lightweight tracing subsystem for the
// loader hooks.
//
// Events track specifier resolution, source elision, and export
// probes so slow or surprising module graphs can be diagnosed without
// attaching a debugger to the host runtime. Tracing is off by default
// and carries no overhead through the Nop tracer.
package trace

import (
	"sync/atomic"
	"time"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event. Lower numeric
// values represent coarser events.
type Scope uint8

const (
	// ScopeDriver covers top-level CLI operations.
	ScopeDriver Scope = iota + 1
	// ScopeResolve covers per-specifier resolution decisions.
	ScopeResolve
	// ScopeLoad covers per-source load and elision passes.
	ScopeLoad
	// ScopeProbe covers dynamic export-introspection probes.
	ScopeProbe
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeResolve:
		return "resolve"
	case ScopeLoad:
		return "load"
	case ScopeProbe:
		return "probe"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time   time.Time
	Seq    uint64
	Kind   Kind
	Scope  Scope
	Name   string // e.g. "resolve:@lib/helper"
	Detail string
}

var globalSeq uint64

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return atomic.AddUint64(&globalSeq, 1)
}

// Tracer is the sink for trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev *Event)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if tracing is active (Level > LevelOff).
	Enabled() bool
}

// Point emits an instant event if the tracer accepts the scope.
func Point(t Tracer, scope Scope, name, detail string) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindPoint,
		Scope:  scope,
		Name:   name,
		Detail: detail,
	})
}
