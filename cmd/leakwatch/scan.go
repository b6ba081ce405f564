package leakwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/leakwatch/leakwatch/internal/audit"
	"github.com/leakwatch/leakwatch/internal/classify"
	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/engine"
	"github.com/leakwatch/leakwatch/internal/filter"
	"github.com/leakwatch/leakwatch/internal/git"
	"github.com/leakwatch/leakwatch/internal/hashstore"
	"github.com/leakwatch/leakwatch/internal/logging"
	"github.com/leakwatch/leakwatch/internal/mail"
	"github.com/leakwatch/leakwatch/internal/metrics"
	"github.com/leakwatch/leakwatch/internal/report"
	"github.com/leakwatch/leakwatch/internal/update"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagRules       string
	flagTokens      []string
	flagWorkers     int
	flagPages       int
	flagPageSize    int
	flagJSON        bool
	flagMetricsAddr string
	flagRedact      bool
	flagToReview    bool
	flagOutput      string
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run every rule against code search and report new leaks",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagRules, "rules", "r", "", "rule file (default: rules from leakwatch.yml)")
	cmd.Flags().StringArrayVar(&flagTokens, "token", nil, "GitHub token (repeatable; rotated round-robin)")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "rules scanned concurrently")
	cmd.Flags().IntVar(&flagPages, "pages", 0, "maximum result pages per rule")
	cmd.Flags().IntVar(&flagPageSize, "page-size", 0, "results per page (max 100)")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit the run summary as JSON instead of tables")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while scanning (e.g. :9090)")
	cmd.Flags().BoolVar(&flagRedact, "redact", false, "mask evidence in terminal output")
	cmd.Flags().BoolVar(&flagToReview, "to-review", false, "also report results that matched the false-positive bank")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "report directory (default: leakwatch-reports)")
}

// scanOverrides turns the flags the user set into a settings layer.
func scanOverrides(cmd *cobra.Command) config.FileConfig {
	var fc config.FileConfig
	f := cmd.Flags()
	if f.Changed("rules") {
		fc.Rules = &flagRules
	}
	if f.Changed("token") {
		fc.Tokens = flagTokens
	}
	if f.Changed("workers") {
		fc.Workers = &flagWorkers
	}
	if f.Changed("pages") {
		fc.MaxPages = &flagPages
	}
	if f.Changed("page-size") {
		fc.PageSize = &flagPageSize
	}
	if f.Changed("to-review") {
		fc.ReportToReview = &flagToReview
	}
	if f.Changed("output") {
		fc.OutputDir = &flagOutput
	}
	return fc
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, global, err := loadFiles(flagConfig)
	if err != nil {
		return err
	}
	s, err := resolve(scanOverrides(cmd), local, global, envTokens(os.Getenv))
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, flagLogLevel, flagLogJSON)
	if err != nil {
		return err
	}

	if !flagJSON && !flagNoUpdateCheck {
		checker := &update.Checker{}
		if latest, newer, _ := checker.Check(ctx, version); newer {
			_, _ = fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'leakwatch update' to upgrade\n", latest)
		}
	}

	rec, err := scan(ctx, s, log)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	if rec.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

// scan runs every rule and returns the audit record of the run. Rule
// failures are counted in the record, not returned.
func scan(ctx context.Context, s settings, log *logrus.Logger) (audit.ScanRecord, error) {
	var rec audit.ScanRecord
	if s.RulesPath == "" {
		return rec, errors.New("no rule file: pass --rules or set rules in leakwatch.yml")
	}
	rules, err := config.LoadRules(s.RulesPath)
	if err != nil {
		return rec, fmt.Errorf("load rules: %w", err)
	}
	if len(rules) == 0 {
		return rec, fmt.Errorf("no enabled rules in %s", s.RulesPath)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if flagMetricsAddr != "" {
		srv := serveMetrics(flagMetricsAddr, reg, log)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	tcs, err := newTokenClients(ctx, s, m)
	if err != nil {
		return rec, err
	}
	client, err := verifiedClient(ctx, tcs, log)
	if err != nil {
		return rec, err
	}

	repoRules, err := filter.CompileAll(s.File.RepositoryRules())
	if err != nil {
		return rec, err
	}
	codeRules, err := filter.CompileAll(s.File.CodesRules())
	if err != nil {
		return rec, err
	}

	driver, path := s.File.GetHashStore()
	store, err := hashstore.Open(driver, path)
	if err != nil {
		return rec, fmt.Errorf("open hash store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("close hash store")
		}
	}()

	started := time.Now()
	var out io.Writer = os.Stdout
	if flagJSON {
		out = nil
	}
	writer := &report.Writer{
		Dir:      filepath.Join(s.OutputDir, started.Format("20060102-150405")),
		Out:      out,
		Recorder: store,
		ToReview: s.ToReview,
		Print:    report.PrintOptions{NoColor: flagNoColor, Redact: flagRedact},
		Log:      log,
	}

	eng := engine.New(s.Engine, client)
	eng.Classifier = classify.New(mail.NewResolver(mail.Options{
		PublicServices: s.File.Publics(),
		Timeout:        s.ProbeTimeout,
		Workers:        s.ProbeWorkers,
		Logger:         log,
		Metrics:        m,
	}))
	eng.Repository = filter.NewRepository(repoRules, s.File.RepositoryGlobs())
	eng.Codes = filter.NewCodes(codeRules)
	eng.Reporter = writer
	eng.Hashes = store
	eng.Log = log
	eng.Metrics = m

	var cloner *git.Cloner
	if cs := s.File.GetClone(); cs.Enabled {
		cloner = git.NewCloner(git.Options{Dir: cs.Dir, Workers: cs.Workers, Depth: cs.Depth, Log: log})
		defer cloner.Close()
		eng.Cloner = cloner
	}

	showProgress := !flagJSON && !log.IsLevelEnabled(logrus.InfoLevel) && term.IsTerminal(int(os.Stderr.Fd()))
	var hits atomic.Int64
	if showProgress {
		eng.OnHit = func() {
			if n := hits.Add(1); n%10 == 0 {
				_, _ = fmt.Fprintf(os.Stderr, "\r[%d hits]", n)
			}
		}
		_, _ = fmt.Fprintf(os.Stderr, "Running %d rules...\n", len(rules))
	}

	sums := eng.ScanAll(ctx, rules)
	if cloner != nil {
		cloner.Wait()
	}
	if showProgress {
		_, _ = fmt.Fprintln(os.Stderr)
	}
	duration := time.Since(started)

	if !flagJSON {
		if err := report.PrintSummary(os.Stdout, sums, report.PrintOptions{NoColor: flagNoColor, Duration: duration}); err != nil {
			return rec, err
		}
	}

	rec = audit.CreateScanRecord(sums, duration)
	rec.ScanID = "scan_" + started.Format("20060102-150405")
	if s.Audit {
		if err := audit.NewAuditLog("").LogScan(rec); err != nil {
			log.WithError(err).Warn("write audit record")
		}
	}
	return rec, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server")
		}
	}()
	log.WithField("addr", addr).Info("serving metrics")
	return srv
}
