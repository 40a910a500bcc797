package peer

import (
	"fmt"

	"github.com/ringkeeper/cdht-peer/internal/event"
	"github.com/ringkeeper/cdht-peer/internal/observability"
	"github.com/ringkeeper/cdht-peer/internal/wire"
)

// onPCQuit implements the graceful-quit stitching rule: the departing
// peer's own successor pair is spliced in depending on which of our
// slots it occupied.
func (e *Engine) onPCQuit(m wire.StreamMessage) {
	x := int(m.Sender)
	xs1, xs2 := int(m.S1), int(m.S2)

	switch x {
	case e.state.S1:
		e.state.setS1(xs1)
		e.state.setS2(xs2)
	case e.state.S2:
		e.state.setS2(xs1)
	default:
		return
	}

	observability.ChurnEvents.WithLabelValues("quit").Inc()
	e.bus.Emit(event.NewChurn(fmt.Sprintf("peer %d departs", x), e.state.S1, e.state.S2))
	e.emitSuccessorUpdate()
}

// onPCQueryReq answers a successor query with our own current pair.
func (e *Engine) onPCQueryReq(m wire.StreamMessage) {
	e.sendChurn(int(m.Sender), wire.PCQueryRes, e.state.S1, e.state.S2)
}

// onPCQueryRes applies a successor query response to repair whichever
// slot is currently DEAD. It is a no-op if neither slot is dead (a late
// or duplicate reply after the ring has already healed another way).
func (e *Engine) onPCQueryRes(m wire.StreamMessage) {
	xs1, xs2 := int(m.S1), int(m.S2)

	switch {
	case e.state.S1 == Dead:
		e.state.setS1(e.state.S2)
		e.state.setS2(xs1)
	case e.state.S2 == Dead:
		if xs1 == e.state.LastDead || xs1 == Dead {
			e.state.setS2(xs2)
		} else {
			e.state.setS2(xs1)
		}
	default:
		return
	}

	observability.ChurnEvents.WithLabelValues("repair").Inc()
	e.emitSuccessorUpdate()
}

// emitSuccessorUpdate emits the pair of per-slot events the source
// console printed after any successor-pair change: one line per slot
// rather than a single combined line.
func (e *Engine) emitSuccessorUpdate() {
	e.bus.Emit(event.NewChurn(fmt.Sprintf("first successor is now peer %s", fmtID(e.state.S1)), e.state.S1, e.state.S2))
	e.bus.Emit(event.NewChurn(fmt.Sprintf("second successor is now peer %s", fmtID(e.state.S2)), e.state.S1, e.state.S2))
}

// onQuit implements the user `quit` command: notify both predecessors
// best-effort, then exit after a short grace period for pending output
// to flush. The grace timer is scheduled off the owner goroutine so it
// never blocks Run's dispatch loop.
func (e *Engine) onQuit() {
	if e.state.P1 != Invalid {
		e.sendChurn(e.state.P1, wire.PCQuit, e.state.S1, e.state.S2)
	}
	if e.state.P2 != Invalid {
		e.sendChurn(e.state.P2, wire.PCQuit, e.state.S1, e.state.S2)
	}
	e.bus.Emit(event.NewStatus("quitting, notified predecessors"))
	e.scheduleShutdown()
}
