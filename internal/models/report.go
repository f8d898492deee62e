package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the set of collections one audit run reads. Callers must not
// mutate it while a run is in progress.
type Snapshot struct {
	Loads         []Load            `json:"loads"`
	Contracts     []Contract        `json:"contracts"`
	Entries       []SettlementEntry `json:"entries"`
	Provisionings []Provisioning    `json:"provisionings,omitempty"`
}

// Summary holds the counts of a report.
type Summary struct {
	TotalIssues       int              `json:"total_issues"`
	SeverityBreakdown map[Severity]int `json:"severity_breakdown"`
	TypeBreakdown     map[Category]int `json:"type_breakdown"`
	TotalLoads        int              `json:"total_loads"`
	TotalContracts    int              `json:"total_contracts"`
	TotalEntries      int              `json:"total_entries"`
	TotalOperations   int              `json:"total_operations"`
}

// Metrics are general ledger figures reported next to the findings.
type Metrics struct {
	TotalLoads         int             `json:"total_loads"`
	FinalizedLoads     int             `json:"finalized_loads"`
	FinalizationRate   float64         `json:"finalization_rate"`
	LoadsWithQuantity  int             `json:"loads_with_quantity"`
	QuantityFillRate   float64         `json:"quantity_fill_rate"`
	TotalFreight       decimal.Decimal `json:"total_freight"`
	TotalGrain         decimal.Decimal `json:"total_grain"`
	TotalQuantity      float64         `json:"total_quantity"`
	AvgFreightPerLoad  decimal.Decimal `json:"avg_freight_per_load"`
	AvgQuantityPerLoad float64         `json:"avg_quantity_per_load"`
	TotalContracts     int             `json:"total_contracts"`
	DoneContracts      int             `json:"done_contracts"`
	CanceledContracts  int             `json:"canceled_contracts"`
	DoneRate           float64         `json:"done_rate"`
}

// Report is the result of one audit run.
type Report struct {
	// ID is assigned when the report is generated (UUID format).
	ID string `json:"id"`

	Findings   []Finding   `json:"findings"`
	Operations []Operation `json:"operations"`
	Summary    Summary     `json:"summary"`
	Metrics    Metrics     `json:"metrics"`

	// Warnings lists operation groups that could not be built.
	Warnings []string `json:"warnings,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// CriticalFindings returns the findings with critical severity.
func (r *Report) CriticalFindings() []Finding {
	return r.filter(func(f Finding) bool {
		return f.Severity == SeverityCritical
	})
}

// HighPriorityFindings returns the findings with critical or high severity.
func (r *Report) HighPriorityFindings() []Finding {
	return r.filter(func(f Finding) bool {
		return f.Severity == SeverityCritical || f.Severity == SeverityHigh
	})
}

func (r *Report) filter(keep func(Finding) bool) []Finding {
	out := make([]Finding, 0)
	for _, f := range r.Findings {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// ReportHeader is the listing view of a stored report.
type ReportHeader struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	TotalIssues int       `json:"total_issues"`
	HighIssues  int       `json:"high_issues"`
}
