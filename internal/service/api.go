package service

import (
	"time"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// RunAuditRequest audits the supplied snapshot, or the stored ledger when
// Snapshot is nil.
type RunAuditRequest struct {
	Snapshot *models.Snapshot `json:"snapshot,omitempty"`

	// Save persists the report so it can be fetched and exported later.
	Save bool `json:"save"`
}

type RunAuditResponse struct {
	Report *models.Report `json:"report"`
}

type GetReportRequest struct {
	ID string `json:"id"`
}

type GetReportResponse struct {
	Report *models.Report `json:"report"`
}

type ListReportsRequest struct {
	// Limit caps the number of headers returned; 0 means the default.
	Limit int `json:"limit"`
}

type ListReportsResponse struct {
	Reports []models.ReportHeader `json:"reports"`
}

type IssueTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type IssueTokenResponse struct {
	Token     string    `json:"token"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}
