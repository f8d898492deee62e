package audit

import (
	"fmt"
	"time"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// CheckDataQuality flags structural gaps and sign violations. Each problem is
// reported as one aggregated finding listing every affected entity, so report
// size follows the number of distinct problems rather than the record count.
func CheckDataQuality(loads []models.Load, contracts []models.Contract, now time.Time) []models.Finding {
	var findings []models.Finding

	if f, ok := missingQuantity(loads, now); ok {
		findings = append(findings, f)
	}
	if f, ok := missingLoadingDate(loads, now); ok {
		findings = append(findings, f)
	}
	if f, ok := overdueContracts(contracts, now); ok {
		findings = append(findings, f)
	}
	if f, ok := negativeValues(loads, now); ok {
		findings = append(findings, f)
	}
	if f, ok := loadsWithoutContract(loads, now); ok {
		findings = append(findings, f)
	}

	return findings
}

func missingQuantity(loads []models.Load, now time.Time) (models.Finding, bool) {
	var ids []string
	for _, l := range loads {
		if l.Quantity == nil {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return models.Finding{}, false
	}
	return newFinding(
		models.CategoryLoadsMissingQuantity,
		models.SeverityMedium,
		fmt.Sprintf("%d loads without quantity", len(ids)),
		ids,
		map[string]any{
			"count":      len(ids),
			"percentage": percentage(len(ids), len(loads)),
		},
		now,
	), true
}

func missingLoadingDate(loads []models.Load, now time.Time) (models.Finding, bool) {
	var ids []string
	for _, l := range loads {
		if l.LoadingDate == nil {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return models.Finding{}, false
	}
	return newFinding(
		models.CategoryLoadsMissingLoadingDate,
		models.SeverityMedium,
		fmt.Sprintf("%d loads without loading date", len(ids)),
		ids,
		map[string]any{
			"count":      len(ids),
			"percentage": percentage(len(ids), len(loads)),
		},
		now,
	), true
}

// overdueContracts skips contracts whose deadline cannot be normalised; the
// remaining contracts are still checked.
func overdueContracts(contracts []models.Contract, now time.Time) (models.Finding, bool) {
	var (
		ids    []string
		oldest time.Time
	)
	for _, c := range contracts {
		if c.Settled() {
			continue
		}
		deadline, ok := c.DeliveryDeadline.Time()
		if !ok || !deadline.Before(now) {
			continue
		}
		ids = append(ids, c.ID)
		if oldest.IsZero() || deadline.Before(oldest) {
			oldest = deadline
		}
	}
	if len(ids) == 0 {
		return models.Finding{}, false
	}
	return newFinding(
		models.CategoryContractsOverdue,
		models.SeverityHigh,
		fmt.Sprintf("%d overdue contracts not fulfilled", len(ids)),
		ids,
		map[string]any{
			"count":          len(ids),
			"oldest_overdue": oldest.Format(time.RFC3339),
		},
		now,
	), true
}

func negativeValues(loads []models.Load, now time.Time) (models.Finding, bool) {
	var ids []string
	for _, l := range loads {
		negFreight := l.FreightCost.Valid && l.FreightCost.Decimal.IsNegative()
		negGrain := l.GrainValue.Valid && l.GrainValue.Decimal.IsNegative()
		if negFreight || negGrain {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return models.Finding{}, false
	}
	return newFinding(
		models.CategoryLoadsNegativeValues,
		models.SeverityHigh,
		fmt.Sprintf("%d loads with negative values", len(ids)),
		ids,
		map[string]any{"count": len(ids)},
		now,
	), true
}

func loadsWithoutContract(loads []models.Load, now time.Time) (models.Finding, bool) {
	var ids []string
	for _, l := range loads {
		if !l.HasContract() {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return models.Finding{}, false
	}
	return newFinding(
		models.CategoryLoadsWithoutContract,
		models.SeverityMedium,
		fmt.Sprintf("%d loads without any contract", len(ids)),
		ids,
		map[string]any{
			"count":      len(ids),
			"percentage": percentage(len(ids), len(loads)),
		},
		now,
	), true
}
