package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/ledgeraudit/internal/audit"
	"github.com/mmynk/ledgeraudit/internal/metrics"
	"github.com/mmynk/ledgeraudit/internal/middleware"
	"github.com/mmynk/ledgeraudit/internal/models"
	"github.com/mmynk/ledgeraudit/internal/storage"
)

const maxListLimit = 100

// AuditService implements the Connect AuditService.
type AuditService struct {
	engine   *audit.Engine
	store    storage.Store
	recorder *metrics.Recorder
	logger   *slog.Logger
}

var _ AuditServiceHandler = (*AuditService)(nil)

// NewAuditService creates a new AuditService. recorder may be nil.
func NewAuditService(engine *audit.Engine, store storage.Store, recorder *metrics.Recorder, logger *slog.Logger) *AuditService {
	return &AuditService{
		engine:   engine,
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// RunAudit audits a snapshot and optionally stores the report.
func (s *AuditService) RunAudit(ctx context.Context, req *connect.Request[RunAuditRequest]) (*connect.Response[RunAuditResponse], error) {
	start := time.Now()

	report, err := s.run(ctx, req.Msg.Snapshot)
	if err != nil {
		if s.recorder != nil {
			s.recorder.ObserveFailure()
		}
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.ObserveRun(report, time.Since(start))
	}

	if req.Msg.Save {
		if err := s.store.SaveReport(ctx, report); err != nil {
			s.logger.Error("Failed to save report", "report_id", report.ID, "error", err)
			return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to save report: %w", err))
		}
	}

	s.logger.Info("Audit run",
		"report_id", report.ID,
		"findings", report.Summary.TotalIssues,
		"high", len(report.HighPriorityFindings()),
		"saved", req.Msg.Save,
		"client_id", middleware.GetClientID(ctx),
		"scope", middleware.GetScope(ctx),
	)
	return connect.NewResponse(&RunAuditResponse{Report: report}), nil
}

func (s *AuditService) run(ctx context.Context, snap *models.Snapshot) (*models.Report, error) {
	if snap == nil {
		loaded, err := s.store.LoadSnapshot(ctx)
		if err != nil {
			s.logger.Error("Failed to load snapshot", "error", err)
			return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to load snapshot: %w", err))
		}
		snap = &loaded
	}

	report, err := s.engine.RunSnapshot(*snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	return report, nil
}

// GetReport returns a stored report.
func (s *AuditService) GetReport(ctx context.Context, req *connect.Request[GetReportRequest]) (*connect.Response[GetReportResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	report, err := s.store.GetReport(ctx, req.Msg.ID)
	if errors.Is(err, storage.ErrReportNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&GetReportResponse{Report: report}), nil
}

// ListReports returns stored report headers, newest first.
func (s *AuditService) ListReports(ctx context.Context, req *connect.Request[ListReportsRequest]) (*connect.Response[ListReportsResponse], error) {
	limit := req.Msg.Limit
	if limit < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("limit must not be negative, got %d", limit))
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	headers, err := s.store.ListReports(ctx, limit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListReportsResponse{Reports: headers}), nil
}
