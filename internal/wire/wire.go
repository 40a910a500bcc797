// Package wire implements the CDHT ring's on-the-wire message formats.
//
// Every message starts with a 1-byte type followed by a 1-byte sender id.
// There is no length prefix — each type has a fixed total length, so a
// reader always knows exactly how many more bytes to pull off the wire.
// All multi-byte integer fields are little-endian; the source protocol
// left endianness unspecified and this is the convention fixed here.
//
//	Datagram channel (ping):
//	+--------+--------+-----------------+
//	|  type  | sender |   seq (u16 LE)  |   4 bytes total
//	+--------+--------+-----------------+
//
//	Stream channel, file-transfer messages:
//	+--------+--------+-----------------+
//	|  type  | sender | filehash(u16 LE)|   4 bytes total
//	+--------+--------+-----------------+
//
//	Stream channel, churn messages:
//	+--------+--------+-----------------+-----------------+
//	|  type  | sender |   s1 (i16 LE)   |   s2 (i16 LE)   |   6 bytes total
//	+--------+--------+-----------------+-----------------+
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// PingType distinguishes the two datagram message kinds.
type PingType uint8

const (
	PingReq PingType = 0
	PingRes PingType = 1
)

// StreamType distinguishes the seven stream message kinds. File-transfer
// messages (0-3) and churn messages (4-6) share one type byte space but
// are told apart by the numeric range, matching the source protocol.
type StreamType uint8

const (
	FTReq         StreamType = 0
	FTForward     StreamType = 1
	FTForwardNext StreamType = 2
	FTRes         StreamType = 3
	PCQuit        StreamType = 4
	PCQueryReq    StreamType = 5
	PCQueryRes    StreamType = 6
)

// IsChurn reports whether t is one of the three peer-churn message kinds.
func (t StreamType) IsChurn() bool { return t >= PCQuit }

const (
	pingLen  = 4
	ftLen    = 4
	churnLen = 6
)

// ErrMalformed is returned (and should lead to a silent discard/close per
// the protocol's error-handling philosophy) when a datagram or stream
// message doesn't match any known fixed layout.
var ErrMalformed = errors.New("wire: malformed message")

// ─── Ping (datagram) ────────────────────────────────────────────────────────

// Ping is a decoded PING_REQ/PING_RES datagram.
type Ping struct {
	Type   PingType
	Sender uint8
	Seq    uint16
}

// EncodePing serializes a ping message to its fixed 4-byte wire form.
func EncodePing(p Ping) []byte {
	buf := make([]byte, pingLen)
	buf[0] = byte(p.Type)
	buf[1] = p.Sender
	binary.LittleEndian.PutUint16(buf[2:4], p.Seq)
	return buf
}

// DecodePing parses a datagram payload as a ping message. Truncated or
// oversized payloads are malformed and must be silently discarded by the
// caller (per the spec's datagram error-handling rule) rather than acted
// upon.
func DecodePing(b []byte) (Ping, error) {
	if len(b) != pingLen {
		return Ping{}, ErrMalformed
	}
	t := PingType(b[0])
	if t != PingReq && t != PingRes {
		return Ping{}, ErrMalformed
	}
	return Ping{
		Type:   t,
		Sender: b[1],
		Seq:    binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

// ─── Stream (file-transfer and churn) ───────────────────────────────────────

// StreamMessage is a decoded message from the reliable stream channel.
// FileHash is populated for FT* types; S1/S2 for PC* types.
type StreamMessage struct {
	Type     StreamType
	Sender   uint8
	FileHash uint16
	S1       int16
	S2       int16
}

// EncodeFT serializes an FT_REQ/FT_FORWARD/FT_FORWARDNEXT/FT_RES message.
func EncodeFT(t StreamType, sender uint8, fileHash uint16) []byte {
	buf := make([]byte, ftLen)
	buf[0] = byte(t)
	buf[1] = sender
	binary.LittleEndian.PutUint16(buf[2:4], fileHash)
	return buf
}

// EncodeChurn serializes a PC_QUIT/PC_QUERYREQ/PC_QUERYRES message.
func EncodeChurn(t StreamType, sender uint8, s1, s2 int16) []byte {
	buf := make([]byte, churnLen)
	buf[0] = byte(t)
	buf[1] = sender
	binary.LittleEndian.PutUint16(buf[2:4], uint16(s1))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(s2))
	return buf
}

// DecodeStreamMessage reads exactly one message from r, blocking on short
// reads the way io.ReadFull does. A single accepted connection may carry
// several of these back-to-back until EOF; callers loop until io.EOF.
func DecodeStreamMessage(r io.Reader) (StreamMessage, error) {
	head := make([]byte, 2)
	if _, err := io.ReadFull(r, head); err != nil {
		return StreamMessage{}, err
	}
	t := StreamType(head[0])
	sender := head[1]

	switch {
	case t <= FTRes:
		tail := make([]byte, 2)
		if _, err := io.ReadFull(r, tail); err != nil {
			return StreamMessage{}, err
		}
		return StreamMessage{
			Type:     t,
			Sender:   sender,
			FileHash: binary.LittleEndian.Uint16(tail),
		}, nil
	case t <= PCQueryRes:
		tail := make([]byte, 4)
		if _, err := io.ReadFull(r, tail); err != nil {
			return StreamMessage{}, err
		}
		return StreamMessage{
			Type:   t,
			Sender: sender,
			S1:     int16(binary.LittleEndian.Uint16(tail[0:2])),
			S2:     int16(binary.LittleEndian.Uint16(tail[2:4])),
		}, nil
	default:
		return StreamMessage{}, ErrMalformed
	}
}
