package core

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// MemCustody is an in-memory AssetCustody used by tests across the sale
// packages. It tracks which identity holds each asset.
type MemCustody struct {
	mu      sync.Mutex
	holders map[AssetRef]string

	// Fail, when non-nil, is returned by every transfer. Used to exercise
	// the engines' abort-on-custody-failure paths.
	Fail error
}

func NewMemCustody() *MemCustody {
	return &MemCustody{holders: make(map[AssetRef]string)}
}

// Seed registers an asset as held by id without going through a transfer.
func (c *MemCustody) Seed(ref AssetRef, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holders[ref] = id
}

// HolderOf returns the current holder of ref.
func (c *MemCustody) HolderOf(ref AssetRef) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holders[ref]
}

func (c *MemCustody) TransferAssetIn(ref AssetRef, from string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	if holder, ok := c.holders[ref]; ok && holder != from {
		return fmt.Errorf("transfer of asset %s that %s does not hold", ref, from)
	}
	c.holders[ref] = "custody"
	return nil
}

func (c *MemCustody) TransferAssetOut(ref AssetRef, to string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	if c.holders[ref] != "custody" {
		return fmt.Errorf("asset %s is not in custody", ref)
	}
	c.holders[ref] = to
	return nil
}

// MemRail is an in-memory PaymentRail. Escrow balances are tracked per
// identity and released amounts accumulate per recipient, so tests can
// assert conservation end to end.
type MemRail struct {
	mu       sync.Mutex
	escrow   map[string]decimal.Decimal
	received map[string]decimal.Decimal

	// Fail, when non-nil, is returned by every rail call.
	Fail error
}

func NewMemRail() *MemRail {
	return &MemRail{
		escrow:   make(map[string]decimal.Decimal),
		received: make(map[string]decimal.Decimal),
	}
}

// EscrowOf returns the escrow currently held for id.
func (r *MemRail) EscrowOf(id string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.escrow[id]
}

// ReceivedBy returns the total paid out to id (refunds plus proceeds).
func (r *MemRail) ReceivedBy(id string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received[id]
}

func (r *MemRail) CreditEscrow(id string, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.escrow[id] = r.escrow[id].Add(amount)
	return nil
}

func (r *MemRail) ReleaseEscrow(id string, amount decimal.Decimal, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	if r.escrow[id].LessThan(amount) {
		return fmt.Errorf("escrow for %s holds %s, cannot release %s", id, r.escrow[id], amount)
	}
	r.escrow[id] = r.escrow[id].Sub(amount)
	r.received[to] = r.received[to].Add(amount)
	return nil
}

func (r *MemRail) ForwardPayment(amount decimal.Decimal, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.received[to] = r.received[to].Add(amount)
	return nil
}
