package peer

import "strconv"

// Sentinel identifiers used in the successor and predecessor slots.
const (
	// Invalid marks an unfilled predecessor slot.
	Invalid = -1
	// Dead marks a successor slot whose occupant has been declared dead.
	Dead = -2
)

// State is the peer's entire mutable view of the ring: its own identity,
// successor and predecessor pairs, the shared ping sequence counter, the
// per-successor last-ack values, and the last-observed-dead memory used
// to disambiguate an unrepaired query response. Every field here is
// mutated exclusively by Engine's single owner goroutine — see Engine's
// doc comment for how that's enforced.
type State struct {
	Self int

	S1, S2 int
	P1, P2 int

	LastDead int

	Seq        uint16
	Ack1, Ack2 uint16

	// justDied1/2 track the transition window between a slot being
	// declared dead and a replacement being installed: while set, the
	// next id written into that slot gets its ack reset to the current
	// seq rather than inheriting a stale one, which would otherwise
	// cause an immediate re-declaration before any ping has had a
	// chance to be acked.
	justDied1, justDied2 bool

	ShowPings bool
}

// newState builds the initial state for a fresh peer.
func newState(self, s1, s2 int) State {
	return State{
		Self: self,
		S1:   s1,
		S2:   s2,
		P1:   Invalid,
		P2:   Invalid,
		LastDead: Invalid,
	}
}

// setS1 installs id as the first successor, clearing the just-died
// window if one was pending.
func (s *State) setS1(id int) {
	s.S1 = id
	if s.justDied1 {
		s.Ack1 = s.Seq
		s.justDied1 = false
	}
}

// setS2 installs id as the second successor, clearing the just-died
// window if one was pending.
func (s *State) setS2(id int) {
	s.S2 = id
	if s.justDied2 {
		s.Ack2 = s.Seq
		s.justDied2 = false
	}
}

// fmtID renders a successor/predecessor slot value for log/event text.
func fmtID(id int) string {
	switch id {
	case Dead:
		return "DEAD"
	case Invalid:
		return "INVALID"
	default:
		return strconv.Itoa(id)
	}
}

// Snapshot is a read-only, point-in-time copy of State safe to hand to
// another goroutine (e.g. the status HTTP API).
type Snapshot struct {
	Self       int
	S1, S2     int
	P1, P2     int
	LastDead   int
	Seq        uint16
	Ack1, Ack2 uint16
	ShowPings  bool
}

func (s State) toSnapshot() Snapshot {
	return Snapshot{
		Self: s.Self, S1: s.S1, S2: s.S2, P1: s.P1, P2: s.P2,
		LastDead: s.LastDead, Seq: s.Seq, Ack1: s.Ack1, Ack2: s.Ack2,
		ShowPings: s.ShowPings,
	}
}
