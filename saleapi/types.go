// Package saleapi defines the wire types exposed to external indexers and
// registries: sale summaries and event records, serializable as JSON or
// CBOR.
package saleapi

import (
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Faro-Company/FaroContracts/core"
)

// Sale kinds as they appear on the wire.
const (
	KindEnglish  = "english"
	KindDutch    = "dutch"
	KindOffering = "offering"
)

// SaleSummary is the registry's view of one sale instance.
type SaleSummary struct {
	ID    string `json:"id" cbor:"id"`
	Kind  string `json:"kind" cbor:"kind"`
	Owner string `json:"owner" cbor:"owner"`
	State string `json:"state" cbor:"state"`
	Live  bool   `json:"live" cbor:"live"`
}

// EventRecord is the externalized form of a core.Event. Amounts travel as
// decimal strings to keep precision across consumers.
type EventRecord struct {
	Kind   string    `json:"kind" cbor:"kind"`
	SaleID string    `json:"sale_id" cbor:"sale_id"`
	Actor  string    `json:"actor,omitempty" cbor:"actor,omitempty"`
	Amount string    `json:"amount,omitempty" cbor:"amount,omitempty"`
	Units  int64     `json:"units,omitempty" cbor:"units,omitempty"`
	At     time.Time `json:"at" cbor:"at"`
}

// NewEventRecord converts an engine event to its wire form.
func NewEventRecord(ev core.Event) EventRecord {
	rec := EventRecord{
		Kind:   string(ev.Kind),
		SaleID: ev.SaleID,
		Actor:  ev.Actor,
		Units:  ev.Units,
		At:     ev.At,
	}
	if !ev.Amount.IsZero() {
		rec.Amount = ev.Amount.String()
	}
	return rec
}

// EncodeSummaries marshals summaries to CBOR.
func EncodeSummaries(summaries []SaleSummary) ([]byte, error) {
	return cbor.Marshal(summaries)
}

// DecodeSummaries unmarshals summaries from CBOR.
func DecodeSummaries(data []byte) ([]SaleSummary, error) {
	var summaries []SaleSummary
	if err := cbor.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// EncodeEvents marshals event records to CBOR.
func EncodeEvents(events []EventRecord) ([]byte, error) {
	return cbor.Marshal(events)
}

// DecodeEvents unmarshals event records from CBOR.
func DecodeEvents(data []byte) ([]EventRecord, error) {
	var events []EventRecord
	if err := cbor.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}
