package audit

import (
	"fmt"
	"time"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// CheckConsistency reports every reference between the three record streams
// that does not resolve.
//
// Findings come out in insertion order:
//   - per load, a missing destination contract, then a missing origin contract (high)
//   - per settlement entry, a missing load (medium)
//   - per load, no settlement entry referencing it (low, completeness only)
func CheckConsistency(loads []models.Load, contracts []models.Contract, entries []models.SettlementEntry, now time.Time) []models.Finding {
	var findings []models.Finding
	findings = append(findings, checkLoadContracts(loads, contracts, now)...)
	findings = append(findings, checkEntryLoads(loads, entries, now)...)
	findings = append(findings, checkLoadSettlements(loads, entries, now)...)
	return findings
}

func checkLoadContracts(loads []models.Load, contracts []models.Contract, now time.Time) []models.Finding {
	known := contractIndex(contracts)

	var findings []models.Finding
	for _, load := range loads {
		if ref := load.DestinationContractID; ref != "" {
			if _, ok := known[ref]; !ok {
				findings = append(findings, newFinding(
					models.CategoryLoadDestinationContractMissing,
					models.SeverityHigh,
					fmt.Sprintf("Load %d references missing destination contract %s", load.Number, ref),
					[]string{load.ID},
					map[string]any{
						"load_id":          load.ID,
						"load_number":      load.Number,
						"missing_contract": ref,
					},
					now,
				))
			}
		}
		if ref := load.OriginContractID; ref != "" {
			if _, ok := known[ref]; !ok {
				findings = append(findings, newFinding(
					models.CategoryLoadOriginContractMissing,
					models.SeverityHigh,
					fmt.Sprintf("Load %d references missing origin contract %s", load.Number, ref),
					[]string{load.ID},
					map[string]any{
						"load_id":          load.ID,
						"load_number":      load.Number,
						"missing_contract": ref,
					},
					now,
				))
			}
		}
	}
	return findings
}

func checkEntryLoads(loads []models.Load, entries []models.SettlementEntry, now time.Time) []models.Finding {
	known := loadIndex(loads)

	var findings []models.Finding
	for _, entry := range entries {
		if entry.LoadID == "" {
			continue
		}
		if _, ok := known[entry.LoadID]; ok {
			continue
		}
		details := map[string]any{
			"entry_id":     entry.ID,
			"missing_load": entry.LoadID,
			"quantity":     entry.Quantity,
		}
		if entry.Value.Valid {
			details["value"] = entry.Value.Decimal.String()
		}
		findings = append(findings, newFinding(
			models.CategorySettlementLoadMissing,
			models.SeverityMedium,
			fmt.Sprintf("Settlement entry %s references missing load %s", entry.ID, entry.LoadID),
			[]string{entry.ID},
			details,
			now,
		))
	}
	return findings
}

func checkLoadSettlements(loads []models.Load, entries []models.SettlementEntry, now time.Time) []models.Finding {
	settled := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.LoadID != "" {
			settled[entry.LoadID] = struct{}{}
		}
	}

	var findings []models.Finding
	for _, load := range loads {
		if _, ok := settled[load.ID]; ok {
			continue
		}
		findings = append(findings, newFinding(
			models.CategoryLoadWithoutSettlement,
			models.SeverityLow,
			fmt.Sprintf("Load %d has no settlement entry", load.Number),
			[]string{load.ID},
			map[string]any{
				"load_id":     load.ID,
				"load_number": load.Number,
				"load_status": load.Status,
			},
			now,
		))
	}
	return findings
}
