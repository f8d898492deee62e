package audit

import (
	"fmt"
	"time"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// rule is one independent business policy pass. Rules never depend on each
// other's output, so new ones can be appended freely.
type rule func(loads []models.Load, contracts []models.Contract, entries []models.SettlementEntry, policy Policy, now time.Time) []models.Finding

var businessRules = []rule{
	finalizedWithoutFreight,
	statusMismatches,
	highQuantityContracts,
}

// CheckBusinessRules applies the domain policies that go beyond referential
// and structural checks.
func CheckBusinessRules(loads []models.Load, contracts []models.Contract, entries []models.SettlementEntry, policy Policy, now time.Time) []models.Finding {
	var findings []models.Finding
	for _, r := range businessRules {
		findings = append(findings, r(loads, contracts, entries, policy, now)...)
	}
	return findings
}

func finalizedWithoutFreight(loads []models.Load, _ []models.Contract, _ []models.SettlementEntry, _ Policy, now time.Time) []models.Finding {
	var ids []string
	for _, l := range loads {
		if l.Status != models.LoadStatusFinalized {
			continue
		}
		if !l.FreightCost.Valid || l.FreightCost.Decimal.IsZero() {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return []models.Finding{newFinding(
		models.CategoryFinalizedLoadsWithoutFreight,
		models.SeverityHigh,
		fmt.Sprintf("%d finalized loads without freight cost", len(ids)),
		ids,
		map[string]any{"count": len(ids)},
		now,
	)}
}

// statusMismatches reports one finding per entry whose load is finalized
// while the entry itself is not.
func statusMismatches(loads []models.Load, _ []models.Contract, entries []models.SettlementEntry, _ Policy, now time.Time) []models.Finding {
	known := loadIndex(loads)

	var findings []models.Finding
	for _, entry := range entries {
		load, ok := known[entry.LoadID]
		if entry.LoadID == "" || !ok {
			continue
		}
		if load.Status != models.LoadStatusFinalized || entry.Status == models.LoadStatusFinalized {
			continue
		}
		findings = append(findings, newFinding(
			models.CategoryStatusMismatch,
			models.SeverityMedium,
			fmt.Sprintf("Load %d is finalized but settlement entry %s is %q", load.Number, entry.ID, entry.Status),
			[]string{load.ID, entry.ID},
			map[string]any{
				"load_id":      load.ID,
				"load_status":  load.Status,
				"entry_id":     entry.ID,
				"entry_status": entry.Status,
			},
			now,
		))
	}
	return findings
}

func highQuantityContracts(_ []models.Load, contracts []models.Contract, _ []models.SettlementEntry, policy Policy, now time.Time) []models.Finding {
	var (
		ids    []string
		maxQty float64
	)
	for _, c := range contracts {
		if c.Quantity <= policy.HighQuantityThreshold {
			continue
		}
		ids = append(ids, c.ID)
		if c.Quantity > maxQty {
			maxQty = c.Quantity
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return []models.Finding{newFinding(
		models.CategoryContractsHighQuantity,
		models.SeverityMedium,
		fmt.Sprintf("%d contracts above %.0f units", len(ids), policy.HighQuantityThreshold),
		ids,
		map[string]any{
			"count":        len(ids),
			"threshold":    policy.HighQuantityThreshold,
			"max_quantity": maxQty,
		},
		now,
	)}
}
