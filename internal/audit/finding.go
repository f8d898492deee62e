package audit

import (
	"time"

	"github.com/mmynk/ledgeraudit/internal/models"
)

func newFinding(category models.Category, severity models.Severity, message string, affected []string, details map[string]any, now time.Time) models.Finding {
	if details == nil {
		details = map[string]any{}
	}
	return models.Finding{
		Category:    category,
		Severity:    severity,
		Message:     message,
		AffectedIDs: affected,
		Details:     details,
		DetectedAt:  now,
	}
}

// percentage returns part/total*100, or 0 for an empty total.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func contractIndex(contracts []models.Contract) map[string]struct{} {
	index := make(map[string]struct{}, len(contracts))
	for _, c := range contracts {
		index[c.ID] = struct{}{}
	}
	return index
}

func loadIndex(loads []models.Load) map[string]models.Load {
	index := make(map[string]models.Load, len(loads))
	for _, l := range loads {
		index[l.ID] = l
	}
	return index
}
