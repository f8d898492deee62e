package audit

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// CheckProvisionings raises the provisioning alerts: overdue allocations with
// quantity still undelivered, allocations nearly exhausted, allocations never
// drawn from, and prices well above the average grain price.
func CheckProvisionings(provisionings []models.Provisioning, policy Policy, now time.Time) []models.Finding {
	if len(provisionings) == 0 {
		return nil
	}

	var overdue, low, idle, pricey []string
	var oldest time.Time

	avg, hasAvg := averageGrainPrice(provisionings)
	limit := avg.Mul(decimal.NewFromFloat(1 + policy.PriceDeviationRatio))

	for _, p := range provisionings {
		remaining := 0.0
		if p.Remaining != nil {
			remaining = *p.Remaining
		}

		if remaining > 0 {
			if deadline, ok := p.DeliveryDeadline.Time(); ok && deadline.Before(now) {
				overdue = append(overdue, p.ID)
				if oldest.IsZero() || deadline.Before(oldest) {
					oldest = deadline
				}
			}
		}

		if p.Quantity != nil && *p.Quantity != 0 && remaining != 0 {
			if remaining/(*p.Quantity) < policy.LowRemainingRatio {
				low = append(low, p.ID)
			}
			if remaining == *p.Quantity {
				idle = append(idle, p.ID)
			}
		}

		if hasAvg && p.PricePerUnit.Valid && p.PricePerUnit.Decimal.GreaterThan(limit) {
			pricey = append(pricey, p.ID)
		}
	}

	var findings []models.Finding
	if len(overdue) > 0 {
		findings = append(findings, newFinding(
			models.CategoryProvisioningsOverdue,
			models.SeverityHigh,
			fmt.Sprintf("%d overdue provisionings with quantity remaining", len(overdue)),
			overdue,
			map[string]any{
				"count":          len(overdue),
				"oldest_overdue": oldest.Format(time.RFC3339),
			},
			now,
		))
	}
	if len(low) > 0 {
		findings = append(findings, newFinding(
			models.CategoryProvisioningsLowRemaining,
			models.SeverityLow,
			fmt.Sprintf("%d provisionings below %.0f%% remaining", len(low), policy.LowRemainingRatio*100),
			low,
			map[string]any{
				"count":     len(low),
				"threshold": policy.LowRemainingRatio,
			},
			now,
		))
	}
	if len(idle) > 0 {
		findings = append(findings, newFinding(
			models.CategoryProvisioningsNoMovement,
			models.SeverityLow,
			fmt.Sprintf("%d provisionings without movement", len(idle)),
			idle,
			map[string]any{"count": len(idle)},
			now,
		))
	}
	if len(pricey) > 0 {
		findings = append(findings, newFinding(
			models.CategoryProvisioningsHighPrice,
			models.SeverityMedium,
			fmt.Sprintf("%d provisionings priced more than %.0f%% above average", len(pricey), policy.PriceDeviationRatio*100),
			pricey,
			map[string]any{
				"count":         len(pricey),
				"average_price": avg.StringFixed(2),
				"threshold":     policy.PriceDeviationRatio,
			},
			now,
		))
	}
	return findings
}

// averageGrainPrice averages the positive prices of grain provisionings.
func averageGrainPrice(provisionings []models.Provisioning) (decimal.Decimal, bool) {
	var prices []decimal.Decimal
	for _, p := range provisionings {
		if p.IsGrain && p.PricePerUnit.Valid && p.PricePerUnit.Decimal.IsPositive() {
			prices = append(prices, p.PricePerUnit.Decimal)
		}
	}
	if len(prices) == 0 {
		return decimal.Zero, false
	}
	return decimal.Avg(prices[0], prices[1:]...), true
}
