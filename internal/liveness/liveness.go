// Package liveness holds the pure arithmetic behind the ring's ping
// protocol: the wrap-safe "missed ack" computation and the tunable
// thresholds that decide when a successor is declared dead.
//
// One source revision of the protocol computed missed acks as a plain
// `seq - ack` subtraction, which goes negative once the sequence counter
// wraps past 2^16. This package always adopts the wrap-safe form.
package liveness

import "time"

const (
	// Period is how often a ping burst is sent to each live successor.
	Period = 5 * time.Second

	// MissedThreshold is the number of consecutive missed acks after
	// which a successor is declared dead. At Period=5s this means
	// declaration happens after 15-20s of silence: long enough to
	// tolerate transient loss, short enough to repair quickly.
	MissedThreshold = 4

	// SeqSpace is the modulus of the sequence counter (2^16).
	SeqSpace = 1 << 16
)

// Missed computes how many pings have gone unacknowledged, given the
// current sequence counter and the last sequence number this successor
// acknowledged. Both values live in Z/SeqSpace; the subtraction is
// performed on uint16 operands so the result wraps automatically,
// matching (seq - ack + 2^16) mod 2^16.
func Missed(seq, ack uint16) int {
	return int(seq - ack)
}

// Dead reports whether a successor with the given missed-ack count
// should be declared dead.
func Dead(missed int) bool {
	return missed >= MissedThreshold
}
