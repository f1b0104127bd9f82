package saleapi

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/Faro-Company/FaroContracts/core"
)

func TestSummaries_CBORRoundTrip(t *testing.T) {
	in := []SaleSummary{
		{ID: "s1", Kind: KindEnglish, Owner: "alice", State: "started", Live: true},
		{ID: "s2", Kind: KindOffering, Owner: "bob", State: "ended", Live: false},
	}

	data, err := EncodeSummaries(in)
	assert.NoError(t, err)

	out, err := DecodeSummaries(data)
	assert.NoError(t, err)
	check.Equal(t, in, out)
}

func TestNewEventRecord(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewEventRecord(core.Event{
		Kind:   core.EventBidPlaced,
		SaleID: "s1",
		Actor:  "alice",
		Amount: decimal.NewFromInt(8),
		Units:  10,
		At:     at,
	})
	check.Equal(t, EventRecord{
		Kind:   "bid_placed",
		SaleID: "s1",
		Actor:  "alice",
		Amount: "8",
		Units:  10,
		At:     at,
	}, rec)

	// Zero amounts stay off the wire.
	rec = NewEventRecord(core.Event{Kind: core.EventEnded, SaleID: "s1", At: at})
	check.Equal(t, "", rec.Amount)

	data, err := EncodeEvents([]EventRecord{rec})
	assert.NoError(t, err)
	out, err := DecodeEvents(data)
	assert.NoError(t, err)
	check.Equal(t, []EventRecord{rec}, out)
}
