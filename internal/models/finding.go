package models

import (
	"slices"
	"time"
)

// Severity ranks how urgently a finding needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from least to most urgent.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Category is the fixed vocabulary of problems the auditor reports.
type Category string

const (
	// Reference integrity.
	CategoryLoadDestinationContractMissing Category = "load_destination_contract_missing"
	CategoryLoadOriginContractMissing      Category = "load_origin_contract_missing"
	CategorySettlementLoadMissing          Category = "settlement_load_missing"
	CategoryLoadWithoutSettlement          Category = "load_without_settlement"

	// Data quality.
	CategoryLoadsMissingQuantity    Category = "loads_missing_quantity"
	CategoryLoadsMissingLoadingDate Category = "loads_missing_loading_date"
	CategoryContractsOverdue        Category = "contracts_overdue"
	CategoryLoadsNegativeValues     Category = "loads_negative_values"
	CategoryLoadsWithoutContract    Category = "loads_without_contract"

	// Business rules.
	CategoryFinalizedLoadsWithoutFreight Category = "finalized_loads_without_freight"
	CategoryStatusMismatch               Category = "status_mismatch"
	CategoryContractsHighQuantity        Category = "contracts_high_quantity"

	// Provisioning.
	CategoryProvisioningsOverdue      Category = "provisionings_overdue"
	CategoryProvisioningsLowRemaining Category = "provisionings_low_remaining"
	CategoryProvisioningsNoMovement   Category = "provisionings_no_movement"
	CategoryProvisioningsHighPrice    Category = "provisionings_high_price"
)

// Finding is one detected problem. Findings are built once by an auditor and
// never modified afterwards.
type Finding struct {
	Category    Category       `json:"category"`
	Severity    Severity       `json:"severity"`
	Message     string         `json:"message"`
	AffectedIDs []string       `json:"affected_ids"`
	Details     map[string]any `json:"details"`
	DetectedAt  time.Time      `json:"detected_at"`
}

// BySeverity returns a copy of findings ordered most urgent first. Findings
// of equal severity keep their detection order.
func BySeverity(findings []Finding) []Finding {
	sorted := slices.Clone(findings)
	slices.SortStableFunc(sorted, func(a, b Finding) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})
	return sorted
}
