package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/ledgeraudit/internal/audit"
	"github.com/mmynk/ledgeraudit/internal/auth"
	"github.com/mmynk/ledgeraudit/internal/models"
	"github.com/mmynk/ledgeraudit/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot() models.Snapshot {
	loaded := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Snapshot{
		Loads: []models.Load{
			{ID: "l1", Number: 1, Status: models.LoadStatusFinalized, LoadingDate: &loaded, Quantity: models.Float64(120.5),
				DestinationContractID: "c1", FreightCost: models.Money(99.9), GrainValue: models.Money(1500), OperationID: "G1"},
			{ID: "l2", Number: 2, Status: models.LoadStatusOpen, OriginContractID: "ghost"},
		},
		Contracts: []models.Contract{
			{ID: "c1", BuyerID: "b1", Quantity: 1000, PricePerUnit: decimal.NewFromFloat(12.34),
				DeliveryDeadline: "2025-05-01", InProgress: true, CreatedAt: created},
		},
		Entries: []models.SettlementEntry{
			{ID: "e1", Quantity: 120.5, LoadID: "l1", Status: models.LoadStatusOpen, DistanceKm: models.Float64(320), Value: models.Money(10)},
		},
		Provisionings: []models.Provisioning{
			{ID: "p1", ContractID: "c1", Quantity: models.Float64(50), Remaining: models.Float64(5),
				PricePerUnit: models.Money(80), IsGrain: true, DeliveryDeadline: "2025-02-01T12:00:00Z", CreatedAt: created},
		},
	}
}

func TestOpen(t *testing.T) {
	t.Run("runs migrations", func(t *testing.T) {
		store := newTestStore(t)
		version, err := store.MigrationVersion()
		if err != nil {
			t.Fatalf("MigrationVersion failed: %v", err)
		}
		if version != 3 {
			t.Errorf("schema version = %d, want 3", version)
		}
	})

	t.Run("reopen is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reopen.db")
		first, err := Open(DriverSQLite, path)
		if err != nil {
			t.Fatalf("first Open failed: %v", err)
		}
		first.Close()

		second, err := Open(DriverSQLite, path)
		if err != nil {
			t.Fatalf("second Open failed: %v", err)
		}
		second.Close()
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := Open("oracle", "x"); err == nil {
			t.Error("expected an error for an unknown driver")
		}
	})
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: dialects[DriverPostgres]}
	lite := &Store{dialect: dialects[DriverSQLite]}
	query := "SELECT a FROM t WHERE b = ? AND c = ?"

	if got := pg.rebind(query); got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := lite.rebind(query); got != query {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot on empty store failed: %v", err)
	}
	if len(empty.Loads) != 0 || len(empty.Contracts) != 0 || len(empty.Entries) != 0 || len(empty.Provisionings) != 0 {
		t.Errorf("expected empty snapshot, got %+v", empty)
	}

	want := testSnapshot()
	if err := store.ImportSnapshot(ctx, want); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if len(got.Loads) != 2 || len(got.Contracts) != 1 || len(got.Entries) != 1 || len(got.Provisionings) != 1 {
		t.Fatalf("unexpected counts: %d loads %d contracts %d entries %d provisionings",
			len(got.Loads), len(got.Contracts), len(got.Entries), len(got.Provisionings))
	}

	l1 := got.Loads[0]
	if l1.ID != "l1" || l1.Quantity == nil || *l1.Quantity != 120.5 {
		t.Errorf("load l1 = %+v", l1)
	}
	if l1.LoadingDate == nil || !l1.LoadingDate.Equal(*want.Loads[0].LoadingDate) {
		t.Errorf("loading date = %v", l1.LoadingDate)
	}
	if !l1.FreightCost.Valid || l1.FreightCost.Decimal.String() != "99.9" {
		t.Errorf("freight = %+v", l1.FreightCost)
	}
	if l1.OperationID != "G1" || l1.DestinationContractID != "c1" {
		t.Errorf("references = %+v", l1)
	}

	l2 := got.Loads[1]
	if l2.Quantity != nil || l2.LoadingDate != nil || l2.FreightCost.Valid || l2.OriginContractID != "ghost" {
		t.Errorf("absent values should stay absent: %+v", l2)
	}

	c1 := got.Contracts[0]
	if c1.PricePerUnit.String() != "12.34" || c1.DeliveryDeadline != "2025-05-01" || !c1.InProgress || c1.Done {
		t.Errorf("contract = %+v", c1)
	}
	if !c1.CreatedAt.Equal(want.Contracts[0].CreatedAt) {
		t.Errorf("created at = %v", c1.CreatedAt)
	}

	e1 := got.Entries[0]
	if e1.LoadID != "l1" || e1.DistanceKm == nil || *e1.DistanceKm != 320 || e1.Value.Decimal.String() != "10" {
		t.Errorf("entry = %+v", e1)
	}

	p1 := got.Provisionings[0]
	if !p1.IsGrain || p1.Remaining == nil || *p1.Remaining != 5 || p1.PricePerUnit.Decimal.String() != "80" {
		t.Errorf("provisioning = %+v", p1)
	}
}

func TestImportSnapshotUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := testSnapshot()
	if err := store.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	snap.Loads[1].Status = models.LoadStatusCanceled
	snap.Contracts[0].Done = true
	if err := store.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(got.Loads) != 2 {
		t.Fatalf("expected upsert, got %d loads", len(got.Loads))
	}
	if got.Loads[1].Status != models.LoadStatusCanceled || !got.Contracts[0].Done {
		t.Errorf("updates not applied: %+v %+v", got.Loads[1], got.Contracts[0])
	}
}

func TestReports(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	var saved []*models.Report
	for i := 0; i < 3; i++ {
		now := base.Add(time.Duration(i) * time.Hour)
		engine := audit.NewEngine(audit.WithClock(func() time.Time { return now }))
		report, err := engine.RunSnapshot(testSnapshot())
		if err != nil {
			t.Fatalf("audit failed: %v", err)
		}
		if err := store.SaveReport(ctx, report); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
		saved = append(saved, report)
	}

	t.Run("GetReport returns the stored report", func(t *testing.T) {
		got, err := store.GetReport(ctx, saved[0].ID)
		if err != nil {
			t.Fatalf("GetReport failed: %v", err)
		}
		if got.ID != saved[0].ID || len(got.Findings) != len(saved[0].Findings) {
			t.Errorf("report mismatch: %s with %d findings", got.ID, len(got.Findings))
		}
		if got.Summary.TotalIssues != saved[0].Summary.TotalIssues {
			t.Errorf("total issues = %d, want %d", got.Summary.TotalIssues, saved[0].Summary.TotalIssues)
		}
		if !got.GeneratedAt.Equal(saved[0].GeneratedAt) {
			t.Errorf("generated at = %v, want %v", got.GeneratedAt, saved[0].GeneratedAt)
		}
		if !got.Metrics.TotalFreight.Equal(saved[0].Metrics.TotalFreight) {
			t.Errorf("total freight = %s, want %s", got.Metrics.TotalFreight, saved[0].Metrics.TotalFreight)
		}
	})

	t.Run("GetReport missing", func(t *testing.T) {
		_, err := store.GetReport(ctx, "nope")
		if !errors.Is(err, storage.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound, got %v", err)
		}
	})

	t.Run("ListReports is newest first", func(t *testing.T) {
		headers, err := store.ListReports(ctx, 2)
		if err != nil {
			t.Fatalf("ListReports failed: %v", err)
		}
		if len(headers) != 2 {
			t.Fatalf("got %d headers, want 2", len(headers))
		}
		if headers[0].ID != saved[2].ID || headers[1].ID != saved[1].ID {
			t.Errorf("order = %s, %s", headers[0].ID, headers[1].ID)
		}
		if headers[0].HighIssues != len(saved[2].HighPriorityFindings()) {
			t.Errorf("high issues = %d", headers[0].HighIssues)
		}
	})

	t.Run("CategoryHistory counts finding rows", func(t *testing.T) {
		history, err := store.CategoryHistory(ctx, models.CategoryLoadOriginContractMissing, 10)
		if err != nil {
			t.Fatalf("CategoryHistory failed: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("got %d points, want 3", len(history))
		}
		for _, point := range history {
			if point.Count != 1 {
				t.Errorf("report %s count = %d, want 1", point.ReportID, point.Count)
			}
		}
	})

	t.Run("SaveReport requires an id", func(t *testing.T) {
		if err := store.SaveReport(ctx, &models.Report{}); err == nil {
			t.Error("expected an error for a report without id")
		}
	})

	t.Run("SaveReport rejects duplicates", func(t *testing.T) {
		if err := store.SaveReport(ctx, saved[0]); err == nil {
			t.Error("expected an error for a duplicate report id")
		}
	})
}

func TestClients(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client := models.NewAPIClient("nightly", models.ScopeRun, "$2a$10$hash")
	if err := store.CreateClient(ctx, client); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}

	got, err := store.GetClient(ctx, client.ID)
	if err != nil {
		t.Fatalf("GetClient failed: %v", err)
	}
	if got.Name != "nightly" || got.Scope != models.ScopeRun || got.SecretHash != client.SecretHash {
		t.Errorf("client = %+v", got)
	}

	if _, err := store.GetClient(ctx, "missing"); !errors.Is(err, auth.ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}
