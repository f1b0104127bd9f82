package core

// State is the lifecycle position of a sale instance.
//
// Transitions only move forward: Deployed -> Started -> Ended, with
// Cancelled as an owner-driven terminal branch out of Deployed or Started.
// Terminal states are permanent; instances are retained for historical
// withdrawals rather than destroyed.
type State int

const (
	Deployed State = iota
	Started
	Ended
	Cancelled
)

func (s State) String() string {
	switch s {
	case Deployed:
		return "deployed"
	case Started:
		return "started"
	case Ended:
		return "ended"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == Ended || s == Cancelled
}
