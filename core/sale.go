package core

import (
	"fmt"
	"time"
)

// Sale holds the lifecycle state shared by every sale engine: identity,
// ownership and the state machine position. Engines embed it and gate
// their operations through its helpers while holding their own lock;
// Sale itself performs no locking.
type Sale struct {
	id      string
	owner   string
	state   State
	startAt time.Time
}

// NewSale returns a Sale in the Deployed state.
func NewSale(id, owner string) Sale {
	return Sale{id: id, owner: owner, state: Deployed}
}

func (s *Sale) ID() string    { return s.id }
func (s *Sale) Owner() string { return s.owner }

// CurrentState returns the persisted state without applying any lazy
// time-based transition. Engines expose State(now) on top of it.
func (s *Sale) CurrentState() State { return s.state }

// StartedAt returns the recorded start time. Zero until Begin succeeds.
func (s *Sale) StartedAt() time.Time { return s.startAt }

// Begin moves the sale from Deployed to Started and records the start
// time. Only the owner may start a sale.
func (s *Sale) Begin(caller string, now time.Time) error {
	if caller != s.owner {
		return fmt.Errorf("%w: only the owner may start the sale", ErrUnauthorized)
	}
	if s.state != Deployed {
		return fmt.Errorf("%w: sale is %s, not %s", ErrInvalidState, s.state, Deployed)
	}
	s.state = Started
	s.startAt = now
	return nil
}

// MarkEnded commits the Started -> Ended transition. It is idempotent
// from Ended and a no-op from any other state; it returns true only when
// the transition actually fired, so the caller can emit the Ended event
// exactly once.
func (s *Sale) MarkEnded() bool {
	if s.state != Started {
		return false
	}
	s.state = Ended
	return true
}

// CancelBy moves the sale to Cancelled. Legal from Deployed or Started,
// owner only.
func (s *Sale) CancelBy(caller string) error {
	if caller != s.owner {
		return fmt.Errorf("%w: only the owner may cancel the sale", ErrUnauthorized)
	}
	if s.state.Terminal() {
		return fmt.Errorf("%w: sale is already %s", ErrInvalidState, s.state)
	}
	s.state = Cancelled
	return nil
}

// RequireLive fails with ErrInvalidState unless the sale is Started.
func (s *Sale) RequireLive() error {
	if s.state != Started {
		return fmt.Errorf("%w: sale is not live (%s)", ErrInvalidState, s.state)
	}
	return nil
}

// RequireTerminal fails with ErrInvalidState unless the sale has reached
// Ended or Cancelled. Withdrawals are only legal afterwards.
func (s *Sale) RequireTerminal() error {
	if !s.state.Terminal() {
		return fmt.Errorf("%w: sale is still live or in deployed state", ErrInvalidState)
	}
	return nil
}
