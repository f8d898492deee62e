package audit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// Engine runs every auditor over a snapshot and assembles the report.
// It keeps no state between runs, so one Engine may serve concurrent runs.
type Engine struct {
	policy Policy
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy overrides the default thresholds.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock sets the time source used for deadline checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine with the default policy and the system clock.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy: DefaultPolicy(),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the thresholds the engine audits with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Run audits the three ledger streams.
func (e *Engine) Run(loads []models.Load, contracts []models.Contract, entries []models.SettlementEntry) (*models.Report, error) {
	return e.RunSnapshot(models.Snapshot{
		Loads:     loads,
		Contracts: contracts,
		Entries:   entries,
	})
}

// RunSnapshot audits a full snapshot, including provisionings when present.
//
// Auditors run in a fixed order (consistency, data quality, business rules,
// provisioning); the order only affects how findings are listed. Operation
// groups that fail to build are logged and reported as warnings, every other
// failure aborts the run.
func (e *Engine) RunSnapshot(snap models.Snapshot) (*models.Report, error) {
	if err := e.policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit policy: %w", err)
	}

	start := time.Now()
	now := e.now().UTC()

	findings := make([]models.Finding, 0)
	findings = append(findings, CheckConsistency(snap.Loads, snap.Contracts, snap.Entries, now)...)
	findings = append(findings, CheckDataQuality(snap.Loads, snap.Contracts, now)...)
	findings = append(findings, CheckBusinessRules(snap.Loads, snap.Contracts, snap.Entries, e.policy, now)...)
	findings = append(findings, CheckProvisionings(snap.Provisionings, e.policy, now)...)

	operations, err := BuildOperations(snap.Loads, snap.Contracts)
	var warnings []string
	if err != nil {
		e.logger.Warn("Some operations could not be built", "error", err)
		warnings = append(warnings, err.Error())
	}

	report := &models.Report{
		ID:          e.newID(),
		Findings:    findings,
		Operations:  operations,
		Summary:     summarize(findings, snap, len(operations)),
		Metrics:     ComputeMetrics(snap.Loads, snap.Contracts),
		Warnings:    warnings,
		GeneratedAt: now,
	}

	e.logger.Debug("Audit completed",
		"report_id", report.ID,
		"findings", report.Summary.TotalIssues,
		"operations", report.Summary.TotalOperations,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report, nil
}

func summarize(findings []models.Finding, snap models.Snapshot, operations int) models.Summary {
	s := models.Summary{
		TotalIssues:       len(findings),
		SeverityBreakdown: make(map[models.Severity]int),
		TypeBreakdown:     make(map[models.Category]int),
		TotalLoads:        len(snap.Loads),
		TotalContracts:    len(snap.Contracts),
		TotalEntries:      len(snap.Entries),
		TotalOperations:   operations,
	}
	for _, f := range findings {
		s.SeverityBreakdown[f.Severity]++
		s.TypeBreakdown[f.Category]++
	}
	return s
}
