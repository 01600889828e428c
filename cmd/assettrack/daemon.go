package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/railtms/assettrack/internal/api"
	"github.com/railtms/assettrack/internal/audit"
	"github.com/railtms/assettrack/internal/config"
	"github.com/railtms/assettrack/internal/logger"
	"github.com/railtms/assettrack/internal/models"
	"github.com/railtms/assettrack/internal/scanner"
	"github.com/railtms/assettrack/internal/scheduler"
	"github.com/railtms/assettrack/internal/store"
)

var (
	configPath string
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the assettrack daemon",
	Long:  `Starts the HTTP API and the daily warranty expiration scan.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ~/.assettrack/config.yaml)")
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("starting assettrack daemon", "db", cfg.DBPath, "listen", cfg.Listen)

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database connection")
		if err := s.Close(); err != nil {
			log.Error("database close error", "error", err)
		}
	}()

	pdr := audit.NewPDRWriter(s)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sc := scanner.New(s,
		scanner.MultiSink{scanner.NewLogSink(log), scanner.NewRecorderSink(s)},
		log,
		scanner.Options{
			Horizon:    cfg.Scanner.Horizon(),
			Metrics:    scanner.NewMetrics(reg),
			OnComplete: recordScan(pdr, cfg.Scanner.HorizonDays, log),
		},
	)

	service := api.NewService(s, pdr, cfg.Policy(), sc, log)
	server := api.NewServer(service, cfg.Listen, log, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	sched, err := scheduler.New(sc, &cfg.Scanner.Config, log)
	if err != nil {
		return err
	}
	if cfg.Scanner.Enabled {
		sched.Start()
	} else {
		log.Warn("daily expiration scan disabled")
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("daemon stopped with error", "error", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// recordScan writes a scan.run decision record for every attempted scan.
func recordScan(pdr *audit.PDRWriter, horizonDays int, log *logger.Logger) func(*models.ScanResult, error) {
	inputs := map[string]int{"horizon_days": horizonDays}
	return func(res *models.ScanResult, err error) {
		outcome := audit.OutcomeSuccess
		details := ""
		switch {
		case errors.Is(err, scanner.ErrScanInProgress):
			outcome = audit.OutcomeRejected
		case errors.Is(err, context.Canceled):
			outcome = audit.OutcomeCancelled
		case err != nil:
			outcome = audit.OutcomeFailed
			details = err.Error()
		}

		subject := ""
		if res != nil {
			subject = res.ID
			if err == nil {
				details = scanSummary(res)
			}
		}
		if _, werr := pdr.Record(audit.ActionScanRun, inputs, outcome, subject, details); werr != nil {
			log.Error("failed to record scan decision", "error", werr)
		}
	}
}

func scanSummary(res *models.ScanResult) string {
	b, _ := jsonCompact(map[string]int{
		"scanned":       res.Scanned,
		"alerted":       res.Alerted,
		"emit_failures": res.EmitFailures,
	})
	return b
}
