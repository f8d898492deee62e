package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/ledgeraudit/internal/models"
)

const (
	// AuditServiceName is the fully-qualified name of the AuditService.
	AuditServiceName = "ledgeraudit.v1.AuditService"
	// AuthServiceName is the fully-qualified name of the AuthService.
	AuthServiceName = "ledgeraudit.v1.AuthService"
)

// Procedure paths, as sent in the HTTP request path.
const (
	AuditServiceRunAuditProcedure    = "/" + AuditServiceName + "/RunAudit"
	AuditServiceGetReportProcedure   = "/" + AuditServiceName + "/GetReport"
	AuditServiceListReportsProcedure = "/" + AuditServiceName + "/ListReports"
	AuthServiceIssueTokenProcedure   = "/" + AuthServiceName + "/IssueToken"
)

// ProcedureScopes lists the scope each protected procedure requires.
var ProcedureScopes = map[string]string{
	AuditServiceRunAuditProcedure:    models.ScopeRun,
	AuditServiceGetReportProcedure:   models.ScopeRead,
	AuditServiceListReportsProcedure: models.ScopeRead,
}

// AuditServiceHandler is implemented by AuditService.
type AuditServiceHandler interface {
	RunAudit(context.Context, *connect.Request[RunAuditRequest]) (*connect.Response[RunAuditResponse], error)
	GetReport(context.Context, *connect.Request[GetReportRequest]) (*connect.Response[GetReportResponse], error)
	ListReports(context.Context, *connect.Request[ListReportsRequest]) (*connect.Response[ListReportsResponse], error)
}

// AuthServiceHandler is implemented by AuthService.
type AuthServiceHandler interface {
	IssueToken(context.Context, *connect.Request[IssueTokenRequest]) (*connect.Response[IssueTokenResponse], error)
}

// NewAuditServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewAuditServiceHandler(svc AuditServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AuditServiceRunAuditProcedure, connect.NewUnaryHandler(AuditServiceRunAuditProcedure, svc.RunAudit, opts...))
	mux.Handle(AuditServiceGetReportProcedure, connect.NewUnaryHandler(AuditServiceGetReportProcedure, svc.GetReport, opts...))
	mux.Handle(AuditServiceListReportsProcedure, connect.NewUnaryHandler(AuditServiceListReportsProcedure, svc.ListReports, opts...))
	return "/" + AuditServiceName + "/", mux
}

// NewAuthServiceHandler builds an HTTP handler for the AuthService.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AuthServiceIssueTokenProcedure, connect.NewUnaryHandler(AuthServiceIssueTokenProcedure, svc.IssueToken, opts...))
	return "/" + AuthServiceName + "/", mux
}

// AuditServiceClient is a client for the AuditService.
type AuditServiceClient struct {
	runAudit    *connect.Client[RunAuditRequest, RunAuditResponse]
	getReport   *connect.Client[GetReportRequest, GetReportResponse]
	listReports *connect.Client[ListReportsRequest, ListReportsResponse]
}

// NewAuditServiceClient constructs a client for the AuditService at baseURL,
// e.g. "http://localhost:8080".
func NewAuditServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuditServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &AuditServiceClient{
		runAudit:    connect.NewClient[RunAuditRequest, RunAuditResponse](httpClient, baseURL+AuditServiceRunAuditProcedure, opts...),
		getReport:   connect.NewClient[GetReportRequest, GetReportResponse](httpClient, baseURL+AuditServiceGetReportProcedure, opts...),
		listReports: connect.NewClient[ListReportsRequest, ListReportsResponse](httpClient, baseURL+AuditServiceListReportsProcedure, opts...),
	}
}

func (c *AuditServiceClient) RunAudit(ctx context.Context, req *connect.Request[RunAuditRequest]) (*connect.Response[RunAuditResponse], error) {
	return c.runAudit.CallUnary(ctx, req)
}

func (c *AuditServiceClient) GetReport(ctx context.Context, req *connect.Request[GetReportRequest]) (*connect.Response[GetReportResponse], error) {
	return c.getReport.CallUnary(ctx, req)
}

func (c *AuditServiceClient) ListReports(ctx context.Context, req *connect.Request[ListReportsRequest]) (*connect.Response[ListReportsResponse], error) {
	return c.listReports.CallUnary(ctx, req)
}

// AuthServiceClient is a client for the AuthService.
type AuthServiceClient struct {
	issueToken *connect.Client[IssueTokenRequest, IssueTokenResponse]
}

// NewAuthServiceClient constructs a client for the AuthService at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &AuthServiceClient{
		issueToken: connect.NewClient[IssueTokenRequest, IssueTokenResponse](httpClient, baseURL+AuthServiceIssueTokenProcedure, opts...),
	}
}

func (c *AuthServiceClient) IssueToken(ctx context.Context, req *connect.Request[IssueTokenRequest]) (*connect.Response[IssueTokenResponse], error) {
	return c.issueToken.CallUnary(ctx, req)
}
