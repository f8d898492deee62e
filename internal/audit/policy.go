// Package audit cross-references loads, contracts and settlement entries,
// classifies what does not line up, and groups loads into operations.
//
// Every check is a plain function over in-memory collections: it reads its
// inputs, returns new findings and touches nothing shared, so independent
// snapshots can be audited concurrently.
package audit

import "fmt"

// Policy holds the business thresholds used by the rule checks. They are
// policy, not structural invariants, so they are configurable.
type Policy struct {
	// HighQuantityThreshold flags contracts whose quantity exceeds it.
	HighQuantityThreshold float64 `yaml:"high_quantity_threshold"`

	// LowRemainingRatio flags provisionings whose remaining/quantity ratio
	// drops below it.
	LowRemainingRatio float64 `yaml:"low_remaining_ratio"`

	// PriceDeviationRatio flags grain provisionings priced more than this
	// fraction above the average grain price.
	PriceDeviationRatio float64 `yaml:"price_deviation_ratio"`
}

// DefaultPolicy returns the thresholds the ledger was historically audited with.
func DefaultPolicy() Policy {
	return Policy{
		HighQuantityThreshold: 100000,
		LowRemainingRatio:     0.10,
		PriceDeviationRatio:   0.20,
	}
}

// Validate rejects thresholds that would make a rule meaningless.
func (p Policy) Validate() error {
	if p.HighQuantityThreshold <= 0 {
		return fmt.Errorf("high_quantity_threshold must be positive, got %v", p.HighQuantityThreshold)
	}
	if p.LowRemainingRatio <= 0 || p.LowRemainingRatio >= 1 {
		return fmt.Errorf("low_remaining_ratio must be between 0 and 1, got %v", p.LowRemainingRatio)
	}
	if p.PriceDeviationRatio <= 0 {
		return fmt.Errorf("price_deviation_ratio must be positive, got %v", p.PriceDeviationRatio)
	}
	return nil
}
