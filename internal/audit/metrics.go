package audit

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// ComputeMetrics derives the general ledger figures shown next to findings.
// Absent quantities and values count as zero in totals and are left out of
// the per-load quantity average.
func ComputeMetrics(loads []models.Load, contracts []models.Contract) models.Metrics {
	m := models.Metrics{
		TotalLoads:        len(loads),
		TotalFreight:      decimal.Zero,
		TotalGrain:        decimal.Zero,
		AvgFreightPerLoad: decimal.Zero,
		TotalContracts:    len(contracts),
	}

	for _, l := range loads {
		if l.Status == models.LoadStatusFinalized {
			m.FinalizedLoads++
		}
		if l.Quantity != nil {
			m.LoadsWithQuantity++
			m.TotalQuantity += *l.Quantity
		}
		m.TotalFreight = m.TotalFreight.Add(models.ValueOrZero(l.FreightCost))
		m.TotalGrain = m.TotalGrain.Add(models.ValueOrZero(l.GrainValue))
	}

	if m.TotalLoads > 0 {
		m.FinalizationRate = float64(m.FinalizedLoads) / float64(m.TotalLoads)
		m.QuantityFillRate = float64(m.LoadsWithQuantity) / float64(m.TotalLoads)
		m.AvgFreightPerLoad = m.TotalFreight.Div(decimal.NewFromInt(int64(m.TotalLoads)))
	}
	if m.LoadsWithQuantity > 0 {
		m.AvgQuantityPerLoad = m.TotalQuantity / float64(m.LoadsWithQuantity)
	}

	for _, c := range contracts {
		switch c.State() {
		case models.ContractDone:
			m.DoneContracts++
		case models.ContractCanceled:
			m.CanceledContracts++
		}
	}
	if m.TotalContracts > 0 {
		m.DoneRate = float64(m.DoneContracts) / float64(m.TotalContracts)
	}

	return m
}
