package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provisioning is a purchase allocation that loads draw down over time.
type Provisioning struct {
	ID         string `json:"id"`
	ContractID string `json:"contract_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`

	// Quantity is the provisioned amount; Remaining is what is still undelivered.
	Quantity  *float64 `json:"quantity,omitempty"`
	Remaining *float64 `json:"remaining,omitempty"`

	PricePerUnit     decimal.NullDecimal `json:"price_per_unit"`
	IsGrain          bool                `json:"is_grain"`
	DeliveryDeadline Deadline            `json:"delivery_deadline,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}
