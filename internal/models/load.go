package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Load statuses the audit rules look at. Status is free text in the source
// system, so any other label is carried through untouched.
const (
	LoadStatusOpen      = "Open"
	LoadStatusFinalized = "Finalized"
	LoadStatusCanceled  = "Canceled"
)

// Load represents one physical cargo movement (a loading ticket).
type Load struct {
	// ID is the unique identifier of the load in the source store.
	ID string `json:"id"`

	// Number is the human-facing ticket sequence number.
	Number int64 `json:"number"`

	// Status is the lifecycle label, e.g. "Open", "Finalized", "Canceled".
	Status string `json:"status"`

	// LoadingDate is when the truck was loaded. Nil when never recorded.
	LoadingDate *time.Time `json:"loading_date,omitempty"`

	// Quantity is the loaded amount in units (bags). Nil when never recorded.
	Quantity *float64 `json:"quantity,omitempty"`

	// DestinationContractID references the contract the cargo is delivered to.
	// Empty when the load has no destination contract.
	DestinationContractID string `json:"destination_contract_id,omitempty"`

	// OriginContractID references the contract the cargo is bought from.
	// Empty when the load has no origin contract.
	OriginContractID string `json:"origin_contract_id,omitempty"`

	// FreightCost is the freight charged for this load.
	FreightCost decimal.NullDecimal `json:"freight_cost"`

	// GrainValue is the value of the grain carried.
	GrainValue decimal.NullDecimal `json:"grain_value"`

	// OperationID groups loads of the same shipment campaign. Empty when ungrouped.
	OperationID string `json:"operation_id,omitempty"`
}

// HasContract reports whether the load references any contract at all.
func (l Load) HasContract() bool {
	return l.DestinationContractID != "" || l.OriginContractID != ""
}

// QuantityOrZero returns the quantity, treating an absent value as zero.
func (l Load) QuantityOrZero() float64 {
	if l.Quantity == nil {
		return 0
	}
	return *l.Quantity
}

// ValueOrZero unwraps an optional decimal, treating an absent value as zero.
func ValueOrZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// Float64 is a small helper for building optional quantities in literals.
func Float64(v float64) *float64 {
	return &v
}

// Money builds a present decimal value from a float.
func Money(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
