package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	temporalclient "go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/efebarandurmaz/driftwatch/internal/analysis"
	"github.com/efebarandurmaz/driftwatch/internal/config"
	"github.com/efebarandurmaz/driftwatch/internal/graph"
	"github.com/efebarandurmaz/driftwatch/internal/graph/neo4j"
	"github.com/efebarandurmaz/driftwatch/internal/observability"
	"github.com/efebarandurmaz/driftwatch/internal/plugins"
	"github.com/efebarandurmaz/driftwatch/internal/shutdown"
	"github.com/efebarandurmaz/driftwatch/internal/snapshot"
	temporalmod "github.com/efebarandurmaz/driftwatch/internal/temporal"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default ./driftwatch.yaml)")
	envFile := flag.String("env-file", ".env", "Dotenv file loaded before config")
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.Log.Logger(os.Stderr)

	ctx := context.Background()
	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: observability.DefaultTracingConfig().ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	sd := shutdown.New(shutdown.DefaultConfig(), logger)
	sd.Register("tracing", shutdown.PriorityTracing, tp.Shutdown)

	store, err := snapshot.NewStore(cfg.Snapshot.Dir)
	if err != nil {
		log.Fatalf("snapshot store: %v", err)
	}

	var repo graph.Repository
	if cfg.Graph.Enabled() {
		n, err := neo4j.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
		if err != nil {
			log.Fatalf("neo4j: %v", err)
		}
		sd.Register("neo4j", shutdown.PriorityGraph, n.Close)
		repo = n
	}

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	sd.Register("temporal-client", shutdown.PriorityGraph, func(context.Context) error {
		c.Close()
		return nil
	})

	acts := &temporalmod.Activities{
		Config:   cfg,
		Analyzer: analysis.New(plugins.Default(), logger),
		Store:    store,
		Graph:    repo,
		Logger:   logger,
	}
	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue, acts)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	sd.Register("temporal-worker", shutdown.PriorityWorker, func(context.Context) error {
		w.Stop()
		return nil
	})

	logger.Info("worker started", "task_queue", cfg.Temporal.TaskQueue, "graph", cfg.Graph.Enabled())

	sd.Start()
	if errs := sd.Wait(); len(errs) > 0 {
		logger.Error("worker stopped with errors", "count", len(errs))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
