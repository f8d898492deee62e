package models

import "github.com/shopspring/decimal"

// SettlementEntry represents the split of a load's quantity and value across
// a contract (a ticket transaction in the source system).
type SettlementEntry struct {
	// ID is the unique identifier for the entry.
	ID string `json:"id"`

	// Quantity is the amount of the load settled by this entry.
	Quantity float64 `json:"quantity"`

	// LoadID is the load this entry settles. Empty when not linked.
	LoadID string `json:"load_id,omitempty"`

	// DestinationContractID and OriginContractID reference the contracts the
	// entry settles against. Either may be empty.
	DestinationContractID string `json:"destination_contract_id,omitempty"`
	OriginContractID      string `json:"origin_contract_id,omitempty"`

	// Status is the settlement lifecycle label (e.g. "Finalized").
	Status string `json:"status"`

	// DistanceKm is the distance traveled, when known.
	DistanceKm *float64 `json:"distance_km,omitempty"`

	// Value is the settled monetary value, when known.
	Value decimal.NullDecimal `json:"value"`
}
