// Package trace provides the lightweight leveled tracer used across the
// symbol engine. Decode-corrupt records are reported here rather than
// propagated as errors, so a tracer is the only place such degradation is
// visible.
package trace

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Event is one trace record.
type Event struct {
	Time      time.Time
	Level     Level
	Component string // "decoder", "index", "resolve", "eval", "module"
	Message   string
}

// Tracer is the main interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev Event)

	// Level returns the current tracing level.
	Level() Level

	// Enabled reports whether events at the given level are recorded.
	Enabled(l Level) bool
}

// Emitf formats and emits a point event if the tracer records the level.
func Emitf(t Tracer, l Level, component, format string, args ...any) {
	if t == nil || !t.Enabled(l) {
		return
	}
	t.Emit(Event{
		Time:      time.Now(),
		Level:     l,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	})
}

// writerTracer streams events as single lines to an io.Writer.
type writerTracer struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewWriter creates a tracer streaming to w at the given level.
func NewWriter(w io.Writer, level Level) Tracer {
	return &writerTracer{w: w, level: level}
}

func (t *writerTracer) Emit(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s %-6s %-8s %s\n",
		ev.Time.Format("15:04:05.000"), ev.Level, ev.Component, ev.Message)
}

func (t *writerTracer) Level() Level { return t.level }

func (t *writerTracer) Enabled(l Level) bool {
	return t.level != LevelOff && l <= t.level && l != LevelOff
}
