package core

import (
	"github.com/shopspring/decimal"
)

// AssetRef identifies one custodied unique asset.
type AssetRef struct {
	Collection string
	TokenID    uint64
}

func (r AssetRef) String() string {
	return r.Collection + "#" + decimal.NewFromInt(int64(r.TokenID)).String()
}

// AssetCustody is the external custody collaborator. Both transfers are
// atomic: on error nothing moved, and the engine must treat the failure
// as a hard abort of the whole operation. Engines always mutate their own
// bookkeeping before calling custody.
type AssetCustody interface {
	// TransferAssetIn moves the asset from a participant into the sale
	// instance's custody.
	TransferAssetIn(ref AssetRef, from string) error
	// TransferAssetOut moves the asset out of custody to a participant.
	TransferAssetOut(ref AssetRef, to string) error
}

// PaymentRail is the external value-transfer collaborator. Same atomicity
// contract as AssetCustody: either the transfer fully happened or nothing
// did.
type PaymentRail interface {
	// CreditEscrow moves amount from a participant into escrow held on
	// their behalf by the sale instance.
	CreditEscrow(id string, amount decimal.Decimal) error
	// ReleaseEscrow pays amount out of the escrow held for id to a
	// recipient (refund when to == id, proceeds otherwise).
	ReleaseEscrow(id string, amount decimal.Decimal, to string) error
	// ForwardPayment settles amount directly to a recipient without
	// touching escrow.
	ForwardPayment(amount decimal.Decimal, to string) error
}
