// Package render turns the peer core's typed event stream into lines of
// text. The full terminal UI (coloured tags, resizing, scrollback,
// truncation) is explicitly the outer collaborator's job; this package
// only provides the minimal renderer the CLI binary needs to be usable
// on its own, plus a recording sink useful in tests.
package render

import (
	"fmt"
	"io"

	"github.com/ringkeeper/cdht-peer/internal/event"
)

// Writer is an event.Sink that formats each event as one line and writes
// it to an underlying io.Writer. PING_REQ/PING_RES are written
// unconditionally — the core already owns the show-pings toggle and
// simply never emits those categories while it is off.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w as a line-oriented event renderer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Emit implements event.Sink.
func (r *Writer) Emit(e event.Event) {
	fmt.Fprintf(r.w, "[%s] %s\n", e.Category, e.Message)
}

// Recorder is an in-memory event.Sink, useful as a test harness for
// anything that needs to assert on the rendered stream.
type Recorder struct {
	Events []event.Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Emit implements event.Sink.
func (r *Recorder) Emit(e event.Event) {
	r.Events = append(r.Events, e)
}

// Lines renders every recorded event the same way Writer would, useful
// for asserting against expected CLI transcripts.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Events))
	for i, e := range r.Events {
		lines[i] = fmt.Sprintf("[%s] %s", e.Category, e.Message)
	}
	return lines
}
