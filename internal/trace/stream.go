package trace

import (
	"fmt"
	"io"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer, one line per
// event.
type StreamTracer struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewStreamTracer creates a StreamTracer at the given level.
func NewStreamTracer(w io.Writer, level Level) *StreamTracer {
	return &StreamTracer{w: w, level: level}
}

// Emit writes an event to the output. Write errors are swallowed so a
// broken trace sink never disrupts resolution.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	ev.Seq = NextSeq()

	line := fmt.Sprintf("[%s] %06d %-7s %-7s %s",
		ev.Time.Format("15:04:05.000"), ev.Seq, ev.Scope, ev.Kind, ev.Name)
	if ev.Detail != "" {
		line += "  " + ev.Detail
	}
	line += "\n"

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.w.Write([]byte(line)) //nolint:errcheck
}

// Flush ensures all buffered data is written. For StreamTracer this is
// a no-op unless the writer itself buffers.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Level returns the current tracing level.
func (t *StreamTracer) Level() Level { return t.level }

// Enabled returns true if tracing is active.
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
