// Command srcc2idf converts an SRCC solar collector catalog (CSV) into an
// EnergyPlus input file holding one SolarCollectorPerformance:FlatPlate object
// per flat plate collector. The number of objects written is printed to
// stdout; logs go to stderr.
//
// Usage:
//
//	srcc2idf [-out SolarCollectors2017.idf] <catalog.csv> <energyplus-dir>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkaadapter "github.com/couchcryptid/solar-collector-etl/internal/adapter/kafka"
	"github.com/couchcryptid/solar-collector-etl/internal/catalog"
	"github.com/couchcryptid/solar-collector-etl/internal/config"
	"github.com/couchcryptid/solar-collector-etl/internal/deck"
	"github.com/couchcryptid/solar-collector-etl/internal/idd"
	"github.com/couchcryptid/solar-collector-etl/internal/observability"
	"github.com/couchcryptid/solar-collector-etl/internal/pipeline"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; variables already set take precedence.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "srcc2idf: %v\n", err)
		return 2
	}

	runID := uuid.New().String()
	logger := observability.NewLogger(stderr, cfg).With("run_id", runID)
	metrics := observability.NewMetrics()
	if cfg.MetricsTextfile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
				logger.Warn("metrics not written", "error", err)
			}
		}()
	}

	logger.Info("starting conversion",
		"catalog", cfg.CatalogPath,
		"idd_dir", cfg.IDDDir,
		"output", cfg.OutputPath,
		"publish", cfg.PublishEnabled(),
	)

	dict, err := idd.Load(cfg.IDDDir)
	if err != nil {
		logger.Error("failed to load schema dictionary", "error", err)
		return 1
	}
	logger.Debug("schema dictionary loaded", "version", dict.Version(), "classes", dict.Len())

	builder, err := deck.Open(dict, cfg.OutputPath)
	if err != nil {
		logger.Error("failed to open output", "error", err)
		return 1
	}

	src, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to open catalog", "error", err)
		return 1
	}
	defer func() { _ = src.Close() }()

	var opts []pipeline.Option
	if cfg.PublishEnabled() {
		writer := kafkaadapter.NewWriter(cfg, deck.FlatPlateClass, runID, logger)
		defer closeWriter(writer, cfg.ShutdownTimeout, logger)
		opts = append(opts, pipeline.WithLoader(writer))
	}

	sum, err := pipeline.New(src, builder, logger, metrics, opts...).Run(ctx)
	if err != nil {
		logger.Error("conversion failed", "error", err, "accepted", sum.Accepted, "rows", sum.Rows)
		return 1
	}

	fmt.Fprintln(stdout, sum.Accepted)
	return 0
}

// closeWriter flushes the Kafka writer, giving up after timeout.
func closeWriter(w *kafkaadapter.Writer, timeout time.Duration, logger *slog.Logger) {
	done := make(chan error, 1)
	go func() { done <- w.Close() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	case <-time.After(timeout):
		logger.Warn("kafka writer close timed out", "timeout", timeout)
	}
}
