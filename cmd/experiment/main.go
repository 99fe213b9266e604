package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/experiment"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults target datasets/scifact)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("experiment failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdown(context.Background())
	}

	fmt.Println("Loading corpus, queries, qrels...")
	coll, err := corpus.LoadCollection(cfg.Corpus)
	if err != nil {
		return err
	}

	opts := []experiment.Option{experiment.WithMetrics(m)}
	var store *experiment.SQLStore
	if cfg.Database.Enabled {
		client, err := database.Open(ctx, cfg.Database, resilience.DefaultBackoff())
		if err != nil {
			slog.Warn("run store unavailable, summaries will not be saved", "error", err)
		} else {
			defer client.Close()
			store, err = experiment.NewSQLStore(ctx, client)
			if err != nil {
				return err
			}
			opts = append(opts, experiment.WithStore(store))
			slog.Info("run store enabled", "driver", client.Driver())
		}
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunComplete)
		defer producer.Close()
		opts = append(opts, experiment.WithPublisher(producer, resilience.DefaultBackoff()))
		slog.Info("run events enabled", "topic", producer.Topic())
	}

	runner := experiment.NewRunner(cfg.Experiment, cfg.Search, os.Stdout, opts...)
	report, err := runner.Run(ctx, coll.Documents, coll.Queries, coll.Qrels)
	if err != nil {
		return err
	}
	slog.Info("experiment complete", "best_run", report.BestRun, "best_file", report.BestFile)

	if store != nil {
		recent, err := store.RecentRuns(ctx, historySize)
		if err != nil {
			slog.Warn("reading run history failed", "error", err)
			return nil
		}
		printHistory(os.Stdout, recent)
	}
	return nil
}

const historySize = 10

func printHistory(w io.Writer, runs []experiment.Summary) {
	fmt.Fprintf(w, "\n--- Recent runs ---\n")
	for _, r := range runs {
		best := ""
		if r.Best {
			best = " *"
		}
		fmt.Fprintf(w, "%s  %-16s %-16s MAP = %.4f%s\n",
			r.StartedAt.Format(time.RFC3339), r.Name, r.Field, r.Metrics.MAP, best)
	}
}
