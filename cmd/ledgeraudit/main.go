// Command ledgeraudit runs ledger audits and manages the audit database from
// the command line.
//
// Usage:
//
//	ledgeraudit migrate
//	ledgeraudit seed -file snapshot.json
//	ledgeraudit run [-file snapshot.json] [-save] [-xlsx out.xlsx] [-json]
//	ledgeraudit reports [-limit n]
//	ledgeraudit history -category contracts_overdue [-limit n]
//	ledgeraudit client -name dashboard [-scope read]
//	ledgeraudit token -subject ops [-scope run]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mmynk/ledgeraudit/internal/audit"
	"github.com/mmynk/ledgeraudit/internal/auth"
	"github.com/mmynk/ledgeraudit/internal/config"
	"github.com/mmynk/ledgeraudit/internal/export"
	"github.com/mmynk/ledgeraudit/internal/models"
	"github.com/mmynk/ledgeraudit/internal/storage"
	"github.com/mmynk/ledgeraudit/internal/storage/sqlstore"
	"github.com/mmynk/ledgeraudit/pkg/logging"
)

var errUsage = errors.New("usage: ledgeraudit <migrate|seed|run|reports|history|client|token> [flags]")

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

type app struct {
	cfg *config.Config
	out io.Writer
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	a := &app{cfg: cfg, out: out}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "migrate":
		return a.migrate()
	case "seed":
		return a.seed(ctx, args)
	case "run":
		return a.audit(ctx, args)
	case "reports":
		return a.reports(ctx, args)
	case "history":
		return a.history(ctx, args)
	case "client":
		return a.client(ctx, args)
	case "token":
		return a.token(args)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (a *app) open() (*sqlstore.Store, error) {
	return sqlstore.Open(a.cfg.DBDriver, a.cfg.DSN())
}

func (a *app) migrate() error {
	store, err := a.open()
	if err != nil {
		return err
	}
	defer store.Close()

	version, err := store.MigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "schema version %d\n", version)
	return nil
}

func (a *app) seed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := fs.String("file", "", "snapshot JSON file to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("seed: -file is required")
	}

	snap, err := storage.ReadSnapshotFile(*file)
	if err != nil {
		return err
	}

	store, err := a.open()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ImportSnapshot(ctx, snap); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %d loads, %d contracts, %d entries, %d provisionings\n",
		len(snap.Loads), len(snap.Contracts), len(snap.Entries), len(snap.Provisionings))
	return nil
}

func (a *app) audit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	file := fs.String("file", "", "audit this snapshot file instead of the stored ledger")
	save := fs.Bool("save", false, "store the report")
	xlsx := fs.String("xlsx", "", "write the report as an XLSX workbook to this path")
	asJSON := fs.Bool("json", false, "print the full report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		store *sqlstore.Store
		snap  models.Snapshot
		err   error
	)
	// A snapshot file audited without -save never touches the database.
	if *file == "" || *save {
		if store, err = a.open(); err != nil {
			return err
		}
		defer store.Close()
	}
	if *file != "" {
		snap, err = storage.ReadSnapshotFile(*file)
	} else {
		snap, err = store.LoadSnapshot(ctx)
	}
	if err != nil {
		return err
	}

	engine := audit.NewEngine(audit.WithPolicy(a.cfg.Policy), audit.WithLogger(slog.Default()))
	report, err := engine.RunSnapshot(snap)
	if err != nil {
		return err
	}

	if *save {
		if err := store.SaveReport(ctx, report); err != nil {
			return err
		}
	}
	if *xlsx != "" {
		if err := writeWorkbook(*xlsx, report); err != nil {
			return err
		}
	}

	if *asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(a.out, report, engine.Policy())
	return nil
}

func writeWorkbook(path string, report *models.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteReport(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(w io.Writer, report *models.Report, policy audit.Policy) {
	fmt.Fprintf(w, "report %s generated %s\n", report.ID, report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "policy: high quantity > %g, low remaining < %g, price deviation > %g\n",
		policy.HighQuantityThreshold, policy.LowRemainingRatio, policy.PriceDeviationRatio)
	fmt.Fprintf(w, "%d loads, %d contracts, %d entries, %d operations\n",
		report.Summary.TotalLoads, report.Summary.TotalContracts, report.Summary.TotalEntries, report.Summary.TotalOperations)
	fmt.Fprintf(w, "%d findings (%d high priority)\n\n", report.Summary.TotalIssues, len(report.HighPriorityFindings()))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tCATEGORY\tAFFECTED\tMESSAGE")
	for _, f := range models.BySeverity(report.Findings) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.Severity, f.Category, len(f.AffectedIDs), f.Message)
	}
	tw.Flush()

	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func (a *app) reports(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum number of reports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := a.open()
	if err != nil {
		return err
	}
	defer store.Close()

	headers, err := store.ListReports(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGENERATED\tISSUES\tHIGH")
	for _, h := range headers {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", h.ID, h.GeneratedAt.Format(time.RFC3339), h.TotalIssues, h.HighIssues)
	}
	return tw.Flush()
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	category := fs.String("category", "", "finding category, e.g. contracts_overdue")
	limit := fs.Int("limit", 20, "number of most recent reports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *category == "" {
		return errors.New("history: -category is required")
	}

	store, err := a.open()
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.CategoryHistory(ctx, models.Category(*category), *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPORT\tGENERATED\tCOUNT")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.ReportID, c.GeneratedAt.Format(time.RFC3339), c.Count)
	}
	return tw.Flush()
}

func (a *app) client(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	name := fs.String("name", "", "client name")
	scope := fs.String("scope", models.ScopeRead, "granted scope: read or run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("client: -name is required")
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return err
	}

	store, err := a.open()
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := auth.NewSecretAuthenticator(store).Register(ctx, *name, *scope, secret)
	if err != nil {
		return err
	}
	// The secret is only shown once; only its hash is stored.
	fmt.Fprintf(a.out, "client_id:     %s\nclient_secret: %s\nscope:         %s\n", client.ID, secret, client.Scope)
	return nil
}

func (a *app) token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "token subject")
	scope := fs.String("scope", models.ScopeRead, "granted scope: read or run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("token: -subject is required")
	}
	if a.cfg.AuthSecret == "" {
		return errors.New("token: AUTH_SECRET is not set")
	}
	if *scope != models.ScopeRead && *scope != models.ScopeRun {
		return fmt.Errorf("token: %w", auth.ErrInvalidScope)
	}

	token, err := auth.NewJWTManager(a.cfg.AuthSecret, a.cfg.AuthTokenTTL).GenerateFor(*subject, *subject, *scope)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}
