package core

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventKind enumerates the observable sale events. Each is emitted
// exactly once per corresponding state change.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventStarted   EventKind = "started"
	EventBidPlaced EventKind = "bid_placed"
	EventCancelled EventKind = "cancelled"
	EventEnded     EventKind = "ended"
	EventWithdrawn EventKind = "withdrawn"
	EventClaimed   EventKind = "claimed"
)

// Event is one observable state change, intended for external indexers.
// Events are not internal state; the engines never read them back.
type Event struct {
	Kind   EventKind
	SaleID string
	Actor  string
	Amount decimal.Decimal
	Units  int64
	At     time.Time
}

// Emitter receives sale events. Emit must not call back into the engine.
type Emitter interface {
	Emit(Event)
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

// NopEmitter discards all events. It is the engines' default.
func NopEmitter() Emitter { return nopEmitter{} }

type logEmitter struct {
	log *zap.Logger
}

// NewLogEmitter returns an Emitter that writes each event as a structured
// log line.
func NewLogEmitter(log *zap.Logger) Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return logEmitter{log: log}
}

func (e logEmitter) Emit(ev Event) {
	e.log.Info("sale event",
		zap.String("kind", string(ev.Kind)),
		zap.String("sale", ev.SaleID),
		zap.String("actor", ev.Actor),
		zap.String("amount", ev.Amount.String()),
		zap.Int64("units", ev.Units),
		zap.Time("at", ev.At))
}
