// Package ring implements the CDHT's hash-routing decision: given a file
// id and the local peer's position relative to its immediate successor,
// decide whether the file is held locally, held by the immediate
// successor, or must be forwarded further around the ring.
package ring

// Slots is the number of identifier slots on the ring (peer ids 0..255).
const Slots = 256

// Status is the outcome of a hash-route decision for a single file.
type Status int

const (
	// NotAvailable means the file belongs to neither this peer nor its
	// immediate successor; the lookup must be forwarded further.
	NotAvailable Status = iota
	// Available means this peer holds the file.
	Available
	// NextAvailable means the immediate successor holds the file.
	NextAvailable
)

func (s Status) String() string {
	switch s {
	case Available:
		return "AVAILABLE"
	case NextAvailable:
		return "NEXTAVAILABLE"
	default:
		return "NOTAVAILABLE"
	}
}

// Owner returns the peer id that owns file f, i.e. f mod 256.
func Owner(f int) int {
	return f % Slots
}

// Route decides the routing status of file f as seen from self, whose
// immediate successor is s1. self and s1 must each be in [0, 255] and
// distinct; f must be in [0, 9999].
//
// The ring wraps at 255→0. When s1 < self the clockwise span from self to
// s1 crosses that wrap point, so the "between self and s1 inclusive" test
// splits into two half-open ranges.
func Route(self, s1, f int) Status {
	h := Owner(f)
	if h == self {
		return Available
	}
	if s1 < self {
		if (self < h && h <= 255) || (0 <= h && h <= s1) {
			return NextAvailable
		}
	} else if self < h && h <= s1 {
		return NextAvailable
	}
	return NotAvailable
}
