package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/Faro-Company/FaroContracts/config"
	"github.com/Faro-Company/FaroContracts/core"
	"github.com/Faro-Company/FaroContracts/dutch"
	"github.com/Faro-Company/FaroContracts/english"
	"github.com/Faro-Company/FaroContracts/offering"
	"github.com/Faro-Company/FaroContracts/saleapi"
)

func newTestRegistry() *Registry {
	return New(config.Default(), nil)
}

func offeringParams(id string) offering.Params {
	return offering.Params{
		ID:                 id,
		Owner:              "owner",
		FundingDestination: "fund",
		UnitPrice:          decimal.NewFromInt(5),
		Allocations:        map[string]int64{"p1": 10, "p2": 10},
	}
}

func TestCreate_AssignsIDsAndIndexes(t *testing.T) {
	r := newTestRegistry()
	rail := core.NewMemRail()

	o, err := r.CreateOffering(offeringParams(""), rail)
	assert.NoError(t, err)
	check.NotEqual(t, "", o.ID())

	got, ok := r.Get(o.ID())
	check.True(t, ok)
	check.Equal(t, o.ID(), got.ID())
	check.Equal(t, 1, r.Count())

	_, ok = r.Get("missing")
	check.False(t, ok)
}

func TestCreateEnglish_AppliesDurationLimit(t *testing.T) {
	r := newTestRegistry()
	custody := core.NewMemCustody()
	asset := core.AssetRef{Collection: "faro", TokenID: 9}
	custody.Seed(asset, "owner")

	_, err := r.CreateEnglish(english.Params{
		Owner:        "owner",
		Asset:        asset,
		Duration:     400 * 24 * time.Hour, // over the one-year limit
		FloorPrice:   decimal.NewFromInt(1),
		BidIncrement: decimal.NewFromInt(1),
	}, custody, core.NewMemRail())
	check.True(t, errors.Is(err, core.ErrDurationTooLong))
	check.Equal(t, 0, r.Count())
}

func TestCreateDutch_AppliesDefaultTick(t *testing.T) {
	r := newTestRegistry()
	curve, err := dutch.HalvingCurve(decimal.NewFromInt(10), 31)
	assert.NoError(t, err)

	a, err := r.CreateDutch(dutch.Params{
		Owner:              "owner",
		FundingDestination: "fund",
		Curve:              curve,
		Supply:             100,
		Allowlist:          []string{"p1"},
	}, core.NewMemRail())
	assert.NoError(t, err)

	start := time.Now()
	assert.NoError(t, a.Start("owner", start))
	// With the default one-hour tick, half an hour in is still tick 0.
	check.Equal(t, 0, a.TimeTick(start.Add(30*time.Minute)))
}

func TestLive_FiltersByStateAndPause(t *testing.T) {
	r := newTestRegistry()
	rail := core.NewMemRail()
	now := time.Now()

	o1, err := r.CreateOffering(offeringParams("o1"), rail)
	assert.NoError(t, err)
	o2, err := r.CreateOffering(offeringParams("o2"), rail)
	assert.NoError(t, err)

	// Nothing is live before start.
	check.Equal(t, 0, len(r.Live(0, 2, now)))

	assert.NoError(t, o1.Start("owner", now))
	live := r.Live(0, 2, now)
	check.Equal(t, 1, len(live))
	check.Equal(t, "o1", live[0].ID())

	// A paused offering drops out of the listing.
	assert.NoError(t, o1.Pause("owner"))
	check.Equal(t, 0, len(r.Live(0, 2, now)))
	assert.NoError(t, o1.Unpause("owner"))
	check.Equal(t, 1, len(r.Live(0, 2, now)))

	// Selling out ends the offering and removes it.
	assert.NoError(t, o1.Bid("p1", 10, decimal.NewFromInt(50), now))
	assert.NoError(t, o1.Bid("p2", 10, decimal.NewFromInt(50), now))
	check.Equal(t, core.Ended, o1.State(now))
	check.Equal(t, 0, len(r.Live(0, 2, now)))

	// Window bounds are clamped.
	assert.NoError(t, o2.Start("owner", now))
	check.Equal(t, 1, len(r.Live(0, 100, now)))
	check.Equal(t, 0, len(r.Live(5, 2, now)))
}

func TestLiveFirstPage_BoundedByLimit(t *testing.T) {
	limits := config.Default()
	limits.LivePageSize = 1
	r := New(limits, nil)
	rail := core.NewMemRail()
	now := time.Now()

	o1, err := r.CreateOffering(offeringParams("o1"), rail)
	assert.NoError(t, err)
	o2, err := r.CreateOffering(offeringParams("o2"), rail)
	assert.NoError(t, err)
	assert.NoError(t, o1.Start("owner", now))
	assert.NoError(t, o2.Start("owner", now))

	// Two live offerings, but the first page holds only one.
	page := r.LiveFirstPage(now)
	check.Equal(t, 1, len(page))
	check.Equal(t, "o1", page[0].ID())
}

func TestSummaries(t *testing.T) {
	r := newTestRegistry()
	rail := core.NewMemRail()
	now := time.Now()

	o, err := r.CreateOffering(offeringParams("o1"), rail)
	assert.NoError(t, err)
	assert.NoError(t, o.Start("owner", now))

	summaries := r.Summaries(now)
	check.Equal(t, 1, len(summaries))
	check.Equal(t, saleapi.SaleSummary{
		ID:    "o1",
		Kind:  saleapi.KindOffering,
		Owner: "owner",
		State: "started",
		Live:  true,
	}, summaries[0])
}
