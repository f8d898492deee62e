package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/ledgeraudit/internal/export"
	"github.com/mmynk/ledgeraudit/internal/storage"
)

// ExportPath is where NewExportHandler is mounted.
const ExportPath = "/reports/export"

// NewExportHandler serves a stored report as an XLSX download:
// GET /reports/export?id=<report id>.
func NewExportHandler(store storage.Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}

		report, err := store.GetReport(r.Context(), id)
		if errors.Is(err, storage.ErrReportNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("Failed to load report for export", "report_id", id, "error", err)
			http.Error(w, "failed to load report", http.StatusInternalServerError)
			return
		}

		// Render fully before writing headers so a failure can still return 500.
		var buf bytes.Buffer
		if err := export.WriteReport(&buf, report); err != nil {
			logger.Error("Failed to render report", "report_id", id, "error", err)
			http.Error(w, "failed to render report", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename(report)))
		if _, err := buf.WriteTo(w); err != nil {
			logger.Warn("Failed to send export", "report_id", id, "error", err)
		}
	})
}
