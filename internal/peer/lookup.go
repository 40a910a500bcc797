package peer

import (
	"fmt"

	"github.com/ringkeeper/cdht-peer/internal/event"
	"github.com/ringkeeper/cdht-peer/internal/observability"
	"github.com/ringkeeper/cdht-peer/internal/ring"
	"github.com/ringkeeper/cdht-peer/internal/transport"
	"github.com/ringkeeper/cdht-peer/internal/wire"
)

// onStreamMessage dispatches a decoded reliable-channel message to its
// churn or lookup handler.
func (e *Engine) onStreamMessage(m wire.StreamMessage) {
	switch m.Type {
	case wire.PCQuit:
		e.onPCQuit(m)
	case wire.PCQueryReq:
		e.onPCQueryReq(m)
	case wire.PCQueryRes:
		e.onPCQueryRes(m)
	case wire.FTReq, wire.FTForward:
		e.onInboundLookup(m)
	case wire.FTForwardNext:
		e.onForwardNext(m)
	case wire.FTRes:
		e.onLookupResult(m)
	}
}

// onUserRequest implements the `request dddd` command: resolve the
// file's status from this peer's own vantage point and either answer
// locally or forward one hop toward the owner.
func (e *Engine) onUserRequest(f int) {
	switch ring.Route(e.state.Self, e.state.S1, f) {
	case ring.Available:
		e.bus.Emit(event.NewFTReq(f, fmt.Sprintf("file %04d stored locally", f)))
	case ring.NextAvailable:
		e.sendFT(e.state.S1, wire.FTForwardNext, e.state.Self, f)
		e.bus.Emit(event.NewFTReq(f, fmt.Sprintf("request for file %04d sent to %d", f, e.state.S1)))
	case ring.NotAvailable:
		e.sendFT(e.state.S1, wire.FTReq, e.state.Self, f)
		e.bus.Emit(event.NewFTReq(f, fmt.Sprintf("request for file %04d sent to %d", f, e.state.S1)))
	}
}

// onInboundLookup handles an inbound FT_REQ or FT_FORWARD: both carry the
// original requester's id as sender and are evaluated identically
// against this peer's own successor.
func (e *Engine) onInboundLookup(m wire.StreamMessage) {
	o := int(m.Sender)
	f := int(m.FileHash)
	observability.LookupHops.Observe(1)

	switch ring.Route(e.state.Self, e.state.S1, f) {
	case ring.Available:
		e.sendFT(o, wire.FTRes, e.state.Self, f)
	case ring.NextAvailable:
		e.sendFT(e.state.S1, wire.FTForwardNext, o, f)
	case ring.NotAvailable:
		e.sendFT(e.state.S1, wire.FTForward, o, f)
	}
}

// onForwardNext handles an inbound FT_FORWARDNEXT: the previous hop has
// already committed to "you hold this file", so answer unconditionally.
func (e *Engine) onForwardNext(m wire.StreamMessage) {
	o := int(m.Sender)
	f := int(m.FileHash)
	e.sendFT(o, wire.FTRes, e.state.Self, f)
}

// onLookupResult handles the terminal FT_RES: report the holder to the
// user interface.
func (e *Engine) onLookupResult(m wire.StreamMessage) {
	h := int(m.Sender)
	f := int(m.FileHash)
	e.bus.Emit(event.NewFTRes(h, f, fmt.Sprintf("peer %d has file %04d", h, f)))
}

func (e *Engine) sendFT(to int, t wire.StreamType, sender int, f int) {
	payload := wire.EncodeFT(t, uint8(sender), uint16(f))
	transport.DialSend(to, e.resolve, payload)
}
