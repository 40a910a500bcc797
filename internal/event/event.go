// Package event defines the typed event stream the peer core emits for
// any renderer (terminal, plain stdout, test harness) to consume. The
// core never formats or colours text itself — that is the renderer's
// concern — but it does produce a human-readable Message alongside the
// structured fields so a minimal renderer can just print it verbatim.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies an event for filtering and display.
type Category string

const (
	Status    Category = "STATUS"
	PingReq   Category = "PING_REQ"
	PingRes   Category = "PING_RES"
	FTReq     Category = "FT_REQ"
	FTRes     Category = "FT_RES"
	PeerChurn Category = "PEER_CHURN"
	Warning   Category = "WARNING"
)

// Event is one line of the core's output stream.
type Event struct {
	Seq       uint64    `json:"seq"`
	ID        uuid.UUID `json:"id"`
	Time      time.Time `json:"time"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	PeerID    *int      `json:"peer_id,omitempty"`
	FileID    *int      `json:"file_id,omitempty"`
	Successor1 *int     `json:"s1,omitempty"`
	Successor2 *int     `json:"s2,omitempty"`
}

// Sink receives emitted events. Implementations must not block the
// caller for long — the peer engine emits synchronously from its single
// owner goroutine.
type Sink interface {
	Emit(Event)
}

// Bus is a Sink that assigns sequence numbers and correlation ids, then
// fans each event out to every attached subscriber (e.g. a terminal
// renderer and a structured logger at the same time).
type Bus struct {
	subscribers []Sink
	seq         uint64
}

// NewBus creates an event bus with the given initial subscribers.
func NewBus(subscribers ...Sink) *Bus {
	return &Bus{subscribers: subscribers}
}

// Subscribe attaches another sink to the bus.
func (b *Bus) Subscribe(s Sink) {
	b.subscribers = append(b.subscribers, s)
}

// Emit stamps e with a sequence number, id, and timestamp (if unset) and
// forwards it to every subscriber.
func (b *Bus) Emit(e Event) {
	b.seq++
	e.Seq = b.seq
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	for _, s := range b.subscribers {
		s.Emit(e)
	}
}

// intPtr is a small helper for populating the optional *int fields above.
func intPtr(v int) *int { return &v }

// Helper constructors for the common event shapes. These keep the peer
// engine's call sites short and consistent.

// NewStatus builds a STATUS event.
func NewStatus(msg string) Event { return Event{Category: Status, Message: msg} }

// NewWarning builds a WARNING event.
func NewWarning(msg string) Event { return Event{Category: Warning, Message: msg} }

// NewPingReq builds a PING_REQ event naming the peer that sent the request.
func NewPingReq(from int, msg string) Event {
	return Event{Category: PingReq, Message: msg, PeerID: intPtr(from)}
}

// NewPingRes builds a PING_RES event naming the peer that sent the response.
func NewPingRes(from int, msg string) Event {
	return Event{Category: PingRes, Message: msg, PeerID: intPtr(from)}
}

// NewFTReq builds an FT_REQ event naming the file involved.
func NewFTReq(file int, msg string) Event {
	return Event{Category: FTReq, Message: msg, FileID: intPtr(file)}
}

// NewFTRes builds an FT_RES event naming the holder and the file.
func NewFTRes(holder, file int, msg string) Event {
	return Event{Category: FTRes, Message: msg, PeerID: intPtr(holder), FileID: intPtr(file)}
}

// NewChurn builds a PEER_CHURN event carrying the new successor pair.
func NewChurn(msg string, s1, s2 int) Event {
	return Event{Category: PeerChurn, Message: msg, Successor1: intPtr(s1), Successor2: intPtr(s2)}
}
