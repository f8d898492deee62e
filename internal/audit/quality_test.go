package audit

import (
	"testing"
	"time"

	"github.com/mmynk/ledgeraudit/internal/models"
)

func TestCheckDataQualityAggregates(t *testing.T) {
	date := testNow.Add(-48 * time.Hour)
	loads := []models.Load{
		{ID: "l1", DestinationContractID: "c1"},
		{ID: "l2", DestinationContractID: "c1", Quantity: models.Float64(10)},
		{ID: "l3", DestinationContractID: "c1", LoadingDate: &date},
		{ID: "l4", DestinationContractID: "c1", Quantity: models.Float64(5), LoadingDate: &date},
	}

	findings := CheckDataQuality(loads, nil, testNow)

	missingQty := findByCategory(findings, models.CategoryLoadsMissingQuantity)
	if len(missingQty) != 1 {
		t.Fatalf("expected one aggregated missing quantity finding, got %d", len(missingQty))
	}
	if !sameIDs(missingQty[0].AffectedIDs, []string{"l1", "l3"}) {
		t.Errorf("affected = %v, want [l1 l3]", missingQty[0].AffectedIDs)
	}
	if missingQty[0].Details["count"] != 2 {
		t.Errorf("count = %v, want 2", missingQty[0].Details["count"])
	}
	if missingQty[0].Details["percentage"] != 50.0 {
		t.Errorf("percentage = %v, want 50", missingQty[0].Details["percentage"])
	}
	if missingQty[0].Severity != models.SeverityMedium {
		t.Errorf("severity = %s, want medium", missingQty[0].Severity)
	}

	missingDate := findByCategory(findings, models.CategoryLoadsMissingLoadingDate)
	if len(missingDate) != 1 || !sameIDs(missingDate[0].AffectedIDs, []string{"l1", "l2"}) {
		t.Errorf("missing loading date findings = %+v", missingDate)
	}

	if len(findByCategory(findings, models.CategoryLoadsWithoutContract)) != 0 {
		t.Error("loads with a destination contract must not be reported as contractless")
	}
}

func TestCheckDataQualityOverdueContracts(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)

	tests := []struct {
		name       string
		contracts  []models.Contract
		wantIDs    []string
		wantOldest string
	}{
		{
			name: "open contract past deadline",
			contracts: []models.Contract{
				{ID: "5", DeliveryDeadline: models.DeadlineFromTime(yesterday)},
			},
			wantIDs:    []string{"5"},
			wantOldest: yesterday.Format(time.RFC3339),
		},
		{
			name: "done and canceled contracts are skipped",
			contracts: []models.Contract{
				{ID: "done", Done: true, DeliveryDeadline: "2020-01-01"},
				{ID: "canceled", Canceled: true, DeliveryDeadline: "2020-01-01"},
				{ID: "both", Done: true, Canceled: true, DeliveryDeadline: "2020-01-01"},
			},
		},
		{
			name: "date-only and timestamp deadlines are compared together",
			contracts: []models.Contract{
				{ID: "a", DeliveryDeadline: "2025-06-01T10:30:00Z"},
				{ID: "b", DeliveryDeadline: "2025-05-20"},
				{ID: "future", DeliveryDeadline: "2025-07-01"},
				{ID: "today", DeliveryDeadline: "2025-06-15"},
			},
			wantIDs:    []string{"a", "b", "today"},
			wantOldest: "2025-05-20T00:00:00Z",
		},
		{
			name: "unparseable deadline skips only that contract",
			contracts: []models.Contract{
				{ID: "bad", DeliveryDeadline: "next tuesday"},
				{ID: "good", DeliveryDeadline: "2025-01-31", InProgress: true},
			},
			wantIDs:    []string{"good"},
			wantOldest: "2025-01-31T00:00:00Z",
		},
		{
			name:      "no deadline is never overdue",
			contracts: []models.Contract{{ID: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findByCategory(CheckDataQuality(nil, tt.contracts, testNow), models.CategoryContractsOverdue)
			if len(tt.wantIDs) == 0 {
				if len(got) != 0 {
					t.Fatalf("expected no overdue finding, got %+v", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("expected one overdue finding, got %d", len(got))
			}
			if got[0].Severity != models.SeverityHigh {
				t.Errorf("severity = %s, want high", got[0].Severity)
			}
			if !sameIDs(got[0].AffectedIDs, tt.wantIDs) {
				t.Errorf("affected = %v, want %v", got[0].AffectedIDs, tt.wantIDs)
			}
			if got[0].Details["oldest_overdue"] != tt.wantOldest {
				t.Errorf("oldest_overdue = %v, want %s", got[0].Details["oldest_overdue"], tt.wantOldest)
			}
		})
	}
}

func TestCheckDataQualityNegativeValues(t *testing.T) {
	loads := []models.Load{
		{ID: "l1", OriginContractID: "c", FreightCost: models.Money(-10), GrainValue: models.Money(-3)},
		{ID: "l2", OriginContractID: "c", GrainValue: models.Money(-1)},
		{ID: "l3", OriginContractID: "c", FreightCost: models.Money(0), GrainValue: models.Money(5)},
	}

	got := findByCategory(CheckDataQuality(loads, nil, testNow), models.CategoryLoadsNegativeValues)
	if len(got) != 1 {
		t.Fatalf("expected one negative values finding, got %d", len(got))
	}
	// l1 is negative on both fields but listed once.
	if !sameIDs(got[0].AffectedIDs, []string{"l1", "l2"}) {
		t.Errorf("affected = %v, want [l1 l2]", got[0].AffectedIDs)
	}
	if got[0].Severity != models.SeverityHigh {
		t.Errorf("severity = %s, want high", got[0].Severity)
	}
}

func TestCheckDataQualityLoadsWithoutContract(t *testing.T) {
	loads := []models.Load{
		{ID: "l1"},
		{ID: "l2", OriginContractID: "c1"},
	}
	got := findByCategory(CheckDataQuality(loads, nil, testNow), models.CategoryLoadsWithoutContract)
	if len(got) != 1 || !sameIDs(got[0].AffectedIDs, []string{"l1"}) {
		t.Fatalf("contractless loads finding = %+v", got)
	}
}

func TestCheckDataQualityCleanInput(t *testing.T) {
	date := testNow
	loads := []models.Load{{
		ID:                    "l1",
		Quantity:              models.Float64(1),
		LoadingDate:           &date,
		DestinationContractID: "c1",
		FreightCost:           models.Money(10),
	}}
	contracts := []models.Contract{{ID: "c1", DeliveryDeadline: "2030-01-01"}}

	if findings := CheckDataQuality(loads, contracts, testNow); len(findings) != 0 {
		t.Errorf("expected no findings, got %+v", findings)
	}
}
