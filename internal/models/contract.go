package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractState is the single interpretation of a contract's status flags.
type ContractState string

const (
	ContractOpen       ContractState = "open"
	ContractInProgress ContractState = "in-progress"
	ContractCanceled   ContractState = "canceled"
	ContractDone       ContractState = "done"
)

// Contract represents a buy or sell agreement (an order in the source system).
type Contract struct {
	// ID is the unique identifier of the contract.
	ID string `json:"id"`

	// BuyerID references the buying party.
	BuyerID string `json:"buyer_id,omitempty"`

	// SellerID references the selling party.
	SellerID string `json:"seller_id,omitempty"`

	// Quantity is the contracted amount in units (bags).
	Quantity float64 `json:"quantity"`

	// PricePerUnit is the agreed price for one unit.
	PricePerUnit decimal.Decimal `json:"price_per_unit"`

	// DeliveryDeadline is when the contract should be fulfilled. Optional.
	DeliveryDeadline Deadline `json:"delivery_deadline,omitempty"`

	// Done, Canceled and InProgress are independent flags. The source system
	// does not keep them mutually exclusive; see State.
	Done       bool `json:"done"`
	Canceled   bool `json:"canceled"`
	InProgress bool `json:"in_progress"`

	// CreatedAt is when the contract was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// State resolves the flags with precedence done > canceled > in-progress.
// A contract with no flag set is open.
func (c Contract) State() ContractState {
	switch {
	case c.Done:
		return ContractDone
	case c.Canceled:
		return ContractCanceled
	case c.InProgress:
		return ContractInProgress
	default:
		return ContractOpen
	}
}

// Settled reports whether the contract no longer expects deliveries.
func (c Contract) Settled() bool {
	return c.Done || c.Canceled
}
