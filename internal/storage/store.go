// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// ErrReportNotFound is returned when a report id has no stored report.
var ErrReportNotFound = errors.New("report not found")

// Store defines the ledger and report storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// LoadSnapshot reads loads, contracts, settlement entries and
	// provisionings within one transaction, so the audit sees a single
	// consistent view of the ledger.
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)

	// ImportSnapshot upserts every record of snap by id in one transaction.
	ImportSnapshot(ctx context.Context, snap models.Snapshot) error

	// SaveReport persists a generated report. The report must have an ID.
	SaveReport(ctx context.Context, report *models.Report) error

	// GetReport retrieves a stored report by id.
	// Returns ErrReportNotFound if no such report exists.
	GetReport(ctx context.Context, id string) (*models.Report, error)

	// ListReports returns the newest report headers first, at most limit.
	ListReports(ctx context.Context, limit int) ([]models.ReportHeader, error)

	// Close releases any resources held by the store.
	Close() error
}

// ReadSnapshotFile parses a JSON ledger export with the keys "loads",
// "contracts", "entries" and "provisionings".
func ReadSnapshotFile(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse snapshot file %s: %w", path, err)
	}
	return snap, nil
}
