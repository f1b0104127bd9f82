package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestMemCustody_TransferFlow(t *testing.T) {
	custody := NewMemCustody()
	ref := AssetRef{Collection: "faro", TokenID: 1}
	custody.Seed(ref, "alice")

	check.NoError(t, custody.TransferAssetIn(ref, "alice"))
	check.Equal(t, "custody", custody.HolderOf(ref))

	// Transfer in by a non-holder is rejected.
	check.Error(t, custody.TransferAssetIn(ref, "bob"))

	check.NoError(t, custody.TransferAssetOut(ref, "bob"))
	check.Equal(t, "bob", custody.HolderOf(ref))

	// Asset is no longer in custody.
	check.Error(t, custody.TransferAssetOut(ref, "carol"))
}

func TestMemRail_EscrowConservation(t *testing.T) {
	rail := NewMemRail()

	check.NoError(t, rail.CreditEscrow("alice", decimal.NewFromInt(8)))
	check.True(t, rail.EscrowOf("alice").Equal(decimal.NewFromInt(8)))

	check.NoError(t, rail.ReleaseEscrow("alice", decimal.NewFromInt(7), "seller"))
	check.True(t, rail.EscrowOf("alice").Equal(decimal.NewFromInt(1)))
	check.True(t, rail.ReceivedBy("seller").Equal(decimal.NewFromInt(7)))

	// Cannot release more than held.
	check.Error(t, rail.ReleaseEscrow("alice", decimal.NewFromInt(2), "alice"))
}

func TestMemRail_FailInjection(t *testing.T) {
	rail := NewMemRail()
	boom := errors.New("rail down")
	rail.Fail = boom

	err := rail.CreditEscrow("alice", decimal.NewFromInt(1))
	check.True(t, errors.Is(err, boom))
	check.True(t, rail.EscrowOf("alice").IsZero())
}
