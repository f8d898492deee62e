package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmynk/ledgeraudit/internal/models"
	"github.com/mmynk/ledgeraudit/internal/storage"
)

const defaultListLimit = 20

// SaveReport stores the full report as JSON plus one row per finding.
func (s *Store) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return errors.New("report id is required")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		"INSERT INTO audit_reports (id, generated_at, total_issues, high_issues, payload) VALUES (?, ?, ?, ?, ?)"),
		report.ID, formatTime(report.GeneratedAt), report.Summary.TotalIssues,
		len(report.HighPriorityFindings()), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	for i, f := range report.Findings {
		affected, err := json.Marshal(f.AffectedIDs)
		if err != nil {
			return fmt.Errorf("failed to encode affected ids: %w", err)
		}
		_, err = tx.ExecContext(ctx, s.rebind(
			"INSERT INTO audit_findings (report_id, seq, category, severity, message, affected_ids) VALUES (?, ?, ?, ?, ?, ?)"),
			report.ID, i, string(f.Category), string(f.Severity), f.Message, string(affected),
		)
		if err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReport retrieves a stored report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT payload FROM audit_reports WHERE id = ?"), id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", storage.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &report, nil
}

// ListReports returns report headers, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]models.ReportHeader, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT id, generated_at, total_issues, high_issues FROM audit_reports ORDER BY generated_at DESC, id LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	headers := make([]models.ReportHeader, 0)
	for rows.Next() {
		var (
			h           models.ReportHeader
			generatedAt string
		)
		if err := rows.Scan(&h.ID, &generatedAt, &h.TotalIssues, &h.HighIssues); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if h.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, fmt.Errorf("report %s: %w", h.ID, err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return headers, nil
}

// CategoryHistory counts findings of one category per stored report, newest
// report first. It reads the per-finding rows rather than the payloads.
func (s *Store) CategoryHistory(ctx context.Context, category models.Category, limit int) ([]CategoryCount, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT r.id, r.generated_at, COUNT(f.seq)
		FROM audit_reports r
		LEFT JOIN audit_findings f ON f.report_id = r.id AND f.category = ?
		GROUP BY r.id, r.generated_at
		ORDER BY r.generated_at DESC, r.id
		LIMIT ?`),
		string(category), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query category history: %w", err)
	}
	defer rows.Close()

	history := make([]CategoryCount, 0)
	for rows.Next() {
		var (
			c           CategoryCount
			generatedAt string
		)
		if err := rows.Scan(&c.ReportID, &generatedAt, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		if c.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, fmt.Errorf("report %s: %w", c.ReportID, err)
		}
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category history: %w", err)
	}
	return history, nil
}
