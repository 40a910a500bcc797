package peer

import (
	"fmt"
	"net"

	"github.com/ringkeeper/cdht-peer/internal/event"
	"github.com/ringkeeper/cdht-peer/internal/liveness"
	"github.com/ringkeeper/cdht-peer/internal/observability"
	"github.com/ringkeeper/cdht-peer/internal/transport"
	"github.com/ringkeeper/cdht-peer/internal/wire"
)

// onTick is invoked on every iteration of pingActivity's receive loop,
// whether or not a datagram arrived. It fires a new ping burst once
// Period has elapsed and re-evaluates both successors' missed-ack counts.
func (e *Engine) onTick() {
	now := e.clock()
	if e.lastPing.IsZero() || now.Sub(e.lastPing) >= e.cfg.Liveness.PingPeriod {
		e.sendPingBurst()
		e.lastPing = now
	}
	e.checkMissed(1)
	e.checkMissed(2)
}

func (e *Engine) sendPingBurst() {
	seq := e.state.Seq
	now := e.clock()
	if e.state.S1 != Dead {
		e.sendPing(e.state.S1, wire.PingReq, seq)
		e.sentAt1 = now
	}
	if e.state.S2 != Dead {
		e.sendPing(e.state.S2, wire.PingReq, seq)
		e.sentAt2 = now
	}
	e.state.Seq = seq + 1
}

func (e *Engine) sendPing(to int, t wire.PingType, seq uint16) {
	payload := wire.EncodePing(wire.Ping{Type: t, Sender: uint8(e.state.Self), Seq: seq})
	transport.SendPingTo(to, payload, e.resolve)
}

// checkMissed evaluates the missed-ack threshold for successor slot 1 or
// 2 and declares death exactly once per failure.
func (e *Engine) checkMissed(slot int) {
	target, ack := e.slotValues(slot)
	if target == Dead {
		return
	}
	missed := liveness.Missed(e.state.Seq, ack)
	observability.MissedAcks.WithLabelValues(fmt.Sprint(e.state.Self), fmt.Sprint(slot)).Set(float64(missed))
	if missed >= e.cfg.Liveness.MissedThreshold {
		e.declareDead(slot, target)
	}
}

func (e *Engine) slotValues(slot int) (target int, ack uint16) {
	if slot == 1 {
		return e.state.S1, e.state.Ack1
	}
	return e.state.S2, e.state.Ack2
}

// declareDead marks a successor slot DEAD, remembers it for query-response
// disambiguation, and asks the other surviving successor for its
// successors so the ring can be repaired.
func (e *Engine) declareDead(slot, who int) {
	e.state.LastDead = who
	switch slot {
	case 1:
		e.state.S1 = Dead
		e.state.justDied1 = true
	case 2:
		e.state.S2 = Dead
		e.state.justDied2 = true
	}

	observability.ChurnEvents.WithLabelValues("death").Inc()
	e.bus.Emit(event.NewChurn(fmt.Sprintf("peer %d is no longer alive", who), e.state.S1, e.state.S2))

	survivor := e.state.S2
	if slot == 2 {
		survivor = e.state.S1
	}
	if survivor != Dead {
		e.sendChurn(survivor, wire.PCQueryReq, 0, 0)
	}
}

func (e *Engine) sendChurn(to int, t wire.StreamType, s1, s2 int) {
	payload := wire.EncodeChurn(t, uint8(e.state.Self), int16(s1), int16(s2))
	transport.DialSend(to, e.resolve, payload)
}

// onDatagram applies one decoded ping datagram: PING_REQ triggers
// predecessor learning and an echoed PING_RES; PING_RES updates the
// issuing slot's last-ack.
func (e *Engine) onDatagram(payload []byte, from *net.UDPAddr) {
	p, err := wire.DecodePing(payload)
	if err != nil {
		return
	}
	sender := int(p.Sender)

	switch p.Type {
	case wire.PingReq:
		e.learnPredecessor(sender)
		if e.state.ShowPings {
			e.bus.Emit(event.NewPingReq(sender, fmt.Sprintf("PING_REQ from %d (seq %d)", sender, p.Seq)))
		}
		e.sendPing(sender, wire.PingRes, p.Seq)

	case wire.PingRes:
		// A 2-peer ring has s1 == s2, and a single reply from that peer
		// must advance both slots: these are independent ifs, not a
		// switch, so equal successors don't starve slot 2's ack.
		if sender == e.state.S1 {
			e.state.Ack1 = p.Seq
			if !e.sentAt1.IsZero() {
				observability.RecordPingRoundTrip("s1", e.clock().Sub(e.sentAt1))
			}
		}
		if sender == e.state.S2 {
			e.state.Ack2 = p.Seq
			if !e.sentAt2.IsZero() {
				observability.RecordPingRoundTrip("s2", e.clock().Sub(e.sentAt2))
			}
		}
		if e.state.ShowPings {
			e.bus.Emit(event.NewPingRes(sender, fmt.Sprintf("PING_RES from %d (seq %d)", sender, p.Seq)))
		}
	}
}

// learnPredecessor implements the passive predecessor-learning rule: the
// peer tracks only its two closest observed pingers, resetting both
// whenever a third, unrelated pinger shows up.
func (e *Engine) learnPredecessor(x int) {
	s := &e.state
	if s.P1 != Invalid && s.P2 != Invalid && x != s.P1 && x != s.P2 {
		s.P1 = Invalid
		s.P2 = Invalid
	}
	if s.P1 == Invalid {
		s.P1 = x
	} else if s.P2 == Invalid && x != s.P1 {
		s.P2 = x
	}
}
