package peer

import (
	"testing"
	"time"

	"github.com/ringkeeper/cdht-peer/internal/config"
	"github.com/ringkeeper/cdht-peer/internal/event"
	"github.com/ringkeeper/cdht-peer/internal/wire"
)

// recorder is a minimal event.Sink that keeps every emitted event, used
// to assert on the engine's UI output without a real renderer.
type recorder struct {
	events []event.Event
}

func (r *recorder) Emit(e event.Event) { r.events = append(r.events, e) }

func (r *recorder) messages() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Message
	}
	return out
}

// unreachableResolve points every peer id at a loopback port nothing is
// listening on, so outbound sends fail fast (connection refused) instead
// of hanging, without requiring a live test fixture.
func unreachableResolve(id int) string { return "127.0.0.1:1" }

func newTestEngine(self, s1, s2 int) (*Engine, *recorder) {
	rec := &recorder{}
	e := &Engine{
		state:   newState(self, s1, s2),
		cfg:     config.Default(),
		resolve: unreachableResolve,
		bus:     rec,
		clock:   time.Now,
		done:    make(chan struct{}),
	}
	return e, rec
}

func TestDeclareDead_Idempotent(t *testing.T) {
	e, rec := newTestEngine(1, 3, 5)
	e.state.Seq = 10
	e.state.Ack1 = 6 // missed = 4

	e.checkMissed(1)
	if e.state.S1 != Dead {
		t.Fatalf("S1 = %d, want Dead", e.state.S1)
	}
	if e.state.LastDead != 3 {
		t.Fatalf("LastDead = %d, want 3", e.state.LastDead)
	}
	churnEvents := 0
	for _, m := range rec.messages() {
		if m == "peer 3 is no longer alive" {
			churnEvents++
		}
	}
	if churnEvents != 1 {
		t.Fatalf("got %d death events, want 1", churnEvents)
	}

	// Further missed-ack evaluation must not re-declare or re-emit.
	e.state.Seq = 20
	e.checkMissed(1)
	churnEvents = 0
	for _, m := range rec.messages() {
		if m == "peer 3 is no longer alive" {
			churnEvents++
		}
	}
	if churnEvents != 1 {
		t.Fatalf("got %d death events after second check, want still 1", churnEvents)
	}
}

func TestOnPCQuit_ImmediateSuccessor(t *testing.T) {
	// A(s1=B=3, s2=C=5) receives PC_QUIT from B carrying (x=7, y=9).
	e, _ := newTestEngine(1, 3, 5)
	e.onPCQuit(wire.StreamMessage{Type: wire.PCQuit, Sender: 3, S1: 7, S2: 9})

	if e.state.S1 != 7 || e.state.S2 != 9 {
		t.Fatalf("successors = (%d,%d), want (7,9)", e.state.S1, e.state.S2)
	}
}

func TestOnPCQuit_SecondSuccessor(t *testing.T) {
	// A(s1=B=3, s2=C=5) receives PC_QUIT from C carrying (x=7, y=9).
	e, _ := newTestEngine(1, 3, 5)
	e.onPCQuit(wire.StreamMessage{Type: wire.PCQuit, Sender: 5, S1: 7, S2: 9})

	if e.state.S1 != 3 || e.state.S2 != 7 {
		t.Fatalf("successors = (%d,%d), want (3,7)", e.state.S1, e.state.S2)
	}
}

func TestOnPCQuit_UnrelatedSenderIgnored(t *testing.T) {
	e, _ := newTestEngine(1, 3, 5)
	e.onPCQuit(wire.StreamMessage{Type: wire.PCQuit, Sender: 99, S1: 7, S2: 9})

	if e.state.S1 != 3 || e.state.S2 != 5 {
		t.Fatalf("successors changed to (%d,%d) on unrelated sender", e.state.S1, e.state.S2)
	}
}

func TestOnPCQueryRes_S1Dead(t *testing.T) {
	// A has (s1=DEAD, s2=C) with lastDead=B, receives PC_QUERYRES from C
	// with (x,y): new successors are (C, x) regardless of x.
	e, _ := newTestEngine(1, Dead, 5)
	e.state.LastDead = 3

	e.onPCQueryRes(wire.StreamMessage{Type: wire.PCQueryRes, Sender: 5, S1: 42, S2: 99})

	if e.state.S1 != 5 || e.state.S2 != 42 {
		t.Fatalf("successors = (%d,%d), want (5,42)", e.state.S1, e.state.S2)
	}
}

func TestOnPCQueryRes_S2Dead_NotYetRepaired(t *testing.T) {
	e, _ := newTestEngine(1, 3, Dead)
	e.state.LastDead = 5

	// x still points at the dead peer: s2 <- x's second successor.
	e.onPCQueryRes(wire.StreamMessage{Type: wire.PCQueryRes, Sender: 3, S1: 5, S2: 7})

	if e.state.S2 != 7 {
		t.Fatalf("S2 = %d, want 7", e.state.S2)
	}
}

func TestOnPCQueryRes_S2Dead_AlreadyRepaired(t *testing.T) {
	e, _ := newTestEngine(1, 3, Dead)
	e.state.LastDead = 5

	// x already repaired and points past the dead peer: s2 <- x's first successor.
	e.onPCQueryRes(wire.StreamMessage{Type: wire.PCQueryRes, Sender: 3, S1: 8, S2: 11})

	if e.state.S2 != 8 {
		t.Fatalf("S2 = %d, want 8", e.state.S2)
	}
}

func TestOnPCQueryRes_NoDeadSlot_NoOp(t *testing.T) {
	e, _ := newTestEngine(1, 3, 5)
	e.onPCQueryRes(wire.StreamMessage{Type: wire.PCQueryRes, Sender: 3, S1: 8, S2: 11})

	if e.state.S1 != 3 || e.state.S2 != 5 {
		t.Fatalf("successors changed without a dead slot: (%d,%d)", e.state.S1, e.state.S2)
	}
}

func TestLearnPredecessor(t *testing.T) {
	e, _ := newTestEngine(1, 3, 5)

	e.learnPredecessor(10)
	e.learnPredecessor(20)
	if e.state.P1 != 10 || e.state.P2 != 20 {
		t.Fatalf("predecessors = (%d,%d), want (10,20)", e.state.P1, e.state.P2)
	}

	e.learnPredecessor(30)
	if e.state.P1 != 30 || e.state.P2 != Invalid {
		t.Fatalf("predecessors after reset = (%d,%d), want (30,INVALID)", e.state.P1, e.state.P2)
	}
}

func TestOnUserRequest_LocalHit(t *testing.T) {
	// S3: peer 5's own file.
	e, rec := newTestEngine(5, 1, 3)
	e.onUserRequest(5)

	found := false
	for _, m := range rec.messages() {
		if m == "file 0005 stored locally" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a local-hit message, got %v", rec.messages())
	}
}

func TestOnUserRequest_DirectOwner(t *testing.T) {
	// S1: peer 1 (s1=3) requests file 0003, owned by 3 == s1.
	e, rec := newTestEngine(1, 3, 5)
	e.onUserRequest(3)

	found := false
	for _, m := range rec.messages() {
		if m == "request for file 0003 sent to 3" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a forward-to-s1 message, got %v", rec.messages())
	}
}

func TestOnInboundLookup_TwoHop(t *testing.T) {
	// S2 at the middle hop: peer 3 (s1=5) sees an FT_REQ for file 4 from
	// original requester 1; owner(4)=4, which lies between 3 and 5, so it
	// answers with FT_FORWARDNEXT to 5 — we can't observe the outbound
	// wire call directly here without a live socket, but we can check the
	// routing decision doesn't panic and state is untouched.
	e, _ := newTestEngine(3, 5, 1)
	e.onInboundLookup(wire.StreamMessage{Type: wire.FTReq, Sender: 1, FileHash: 4})

	if e.state.Self != 3 || e.state.S1 != 5 {
		t.Fatalf("state mutated unexpectedly by a lookup message")
	}
}

func TestOnLookupResult_EmitsHolder(t *testing.T) {
	e, rec := newTestEngine(1, 3, 5)
	e.onLookupResult(wire.StreamMessage{Type: wire.FTRes, Sender: 3, FileHash: 3})

	found := false
	for _, m := range rec.messages() {
		if m == "peer 3 has file 0003" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a holder message, got %v", rec.messages())
	}
}

func TestOnDatagram_PingRes_EqualSuccessorsAckBothSlots(t *testing.T) {
	// A 2-peer ring has s1 == s2: a single PING_RES from that peer must
	// advance both ack slots, not just whichever the switch hit first.
	e, _ := newTestEngine(1, 3, 3)
	e.state.Seq = 5

	payload := wire.EncodePing(wire.Ping{Type: wire.PingRes, Sender: 3, Seq: 5})
	e.onDatagram(payload, nil)

	if e.state.Ack1 != 5 || e.state.Ack2 != 5 {
		t.Fatalf("acks = (%d,%d), want (5,5)", e.state.Ack1, e.state.Ack2)
	}

	// Slot 2 must not then look starved and get declared dead.
	e.checkMissed(2)
	if e.state.S2 == Dead {
		t.Fatal("S2 declared dead despite a fresh ack from the same peer as S1")
	}
}

func TestOnCommand_InvalidEmitsWarning(t *testing.T) {
	e, rec := newTestEngine(1, 3, 5)
	e.onCommand("bogus")

	if len(rec.events) != 1 || rec.events[0].Category != event.Warning {
		t.Fatalf("expected exactly one warning event, got %v", rec.events)
	}
}

func TestOnCommand_PingToggle(t *testing.T) {
	e, _ := newTestEngine(1, 3, 5)
	e.onCommand("ping on")
	if !e.state.ShowPings {
		t.Fatal("ShowPings not set after 'ping on'")
	}
	e.onCommand("ping off")
	if e.state.ShowPings {
		t.Fatal("ShowPings still set after 'ping off'")
	}
}
