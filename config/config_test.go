package config

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestLoad_Defaults(t *testing.T) {
	limits, err := Load()
	assert.NoError(t, err)
	check.Equal(t, Default(), limits)
	check.Equal(t, 8760*time.Hour, limits.MaxAuctionDuration)
	check.Equal(t, time.Hour, limits.TickDuration)
	check.Equal(t, 50, limits.LivePageSize)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SALES_MAX_AUCTION_DURATION", "240h")
	t.Setenv("SALES_TICK_DURATION", "30s")
	t.Setenv("SALES_LIVE_PAGE_SIZE", "10")

	limits, err := Load()
	assert.NoError(t, err)
	check.Equal(t, 240*time.Hour, limits.MaxAuctionDuration)
	check.Equal(t, 30*time.Second, limits.TickDuration)
	check.Equal(t, 10, limits.LivePageSize)
}
