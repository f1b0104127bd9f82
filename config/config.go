// Package config loads engine limits from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Limits are the operational bounds applied by the registry when it
// constructs sale instances.
type Limits struct {
	// MaxAuctionDuration bounds the English auction period.
	MaxAuctionDuration time.Duration `env:"SALES_MAX_AUCTION_DURATION" envDefault:"8760h"`
	// TickDuration is the default Dutch auction tick length.
	TickDuration time.Duration `env:"SALES_TICK_DURATION" envDefault:"1h"`
	// LivePageSize is the default page size for live listings.
	LivePageSize int `env:"SALES_LIVE_PAGE_SIZE" envDefault:"50"`
}

// Load parses Limits from the environment, falling back to defaults.
func Load() (Limits, error) {
	var l Limits
	if err := env.Parse(&l); err != nil {
		return Limits{}, fmt.Errorf("parsing sales limits: %w", err)
	}
	return l, nil
}

// Default returns the built-in limits without consulting the environment.
func Default() Limits {
	return Limits{
		MaxAuctionDuration: 8760 * time.Hour,
		TickDuration:       time.Hour,
		LivePageSize:       50,
	}
}
