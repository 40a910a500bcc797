package render

import (
	"bytes"
	"testing"

	"github.com/ringkeeper/cdht-peer/internal/event"
)

func TestWriter_Emit(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Emit(event.Event{Category: event.Status, Message: "successfully joined the CDHT network"})

	got := buf.String()
	want := "[STATUS] successfully joined the CDHT network\n"
	if got != want {
		t.Errorf("Emit wrote %q, want %q", got, want)
	}
}

func TestRecorder_Lines(t *testing.T) {
	r := NewRecorder()
	r.Emit(event.Event{Category: event.Warning, Message: "invalid command"})
	r.Emit(event.Event{Category: event.FTRes, Message: "peer 3 has file 0003"})

	lines := r.Lines()
	want := []string{"[WARNING] invalid command", "[FT_RES] peer 3 has file 0003"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
