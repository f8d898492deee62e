package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationStatus is derived from the statuses of an operation's loads.
type OperationStatus string

const (
	OperationActive     OperationStatus = "active"
	OperationFinalized  OperationStatus = "finalized"
	OperationWithIssues OperationStatus = "with-issues"
)

// Operation groups the loads of one shipment campaign. It is rebuilt from the
// current snapshot on every audit run and never persisted back to the source.
type Operation struct {
	// ID is "op_" followed by the group identifier.
	ID string `json:"id"`

	// GroupID is the operation identifier shared by the loads.
	GroupID string `json:"group_id"`

	// LoadIDs lists the constituent loads in input order.
	LoadIDs []string `json:"load_ids"`

	// ContractIDs lists the existing contracts referenced by any load.
	ContractIDs []string `json:"contract_ids"`

	// StartDate and EndDate bound the loading dates. Nil when no load has a date.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// Totals over the loads, absent values counted as zero.
	Quantity    float64         `json:"quantity"`
	FreightCost decimal.Decimal `json:"freight_cost"`
	GrainValue  decimal.Decimal `json:"grain_value"`

	LoadCount int             `json:"load_count"`
	Status    OperationStatus `json:"status"`
}
