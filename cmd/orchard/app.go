package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/internal/metrics"
	"github.com/jacentio/orchard/store"
	"github.com/jacentio/orchard/store/dynamo"
	"github.com/jacentio/orchard/store/memory"
	"github.com/jacentio/orchard/store/sqlstore"
)

// Backend names accepted by --backend.
const (
	backendMemory   = "memory"
	backendSQLite   = "sqlite"
	backendPostgres = "postgres"
	backendDynamo   = "dynamo"
)

// options holds the persistent flags.
type options struct {
	backend     string
	dsn         string
	owner       string
	tablePrefix string
	endpoint    string
	metrics     bool
	verbose     bool
}

// app lazily opens the backend on first use and releases it when the
// command finishes.
type app struct {
	opts     options
	backend  store.Backend
	svc      *engine.Service
	registry *prometheus.Registry
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (a *app) bindFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&a.opts.backend, "backend", envOr("ORCHARD_BACKEND", backendSQLite), "storage backend: memory, sqlite, postgres or dynamo")
	f.StringVar(&a.opts.dsn, "dsn", envOr("ORCHARD_DSN", ""), "database DSN (sqlite path or postgres URL)")
	f.StringVar(&a.opts.owner, "owner", envOr("ORCHARD_OWNER", ""), "owner ID of the caller")
	f.StringVar(&a.opts.tablePrefix, "table-prefix", envOr("ORCHARD_TABLE_PREFIX", ""), "DynamoDB table name prefix")
	f.StringVar(&a.opts.endpoint, "endpoint", envOr("ORCHARD_DYNAMODB_ENDPOINT", ""), "DynamoDB endpoint override")
	f.BoolVar(&a.opts.metrics, "metrics", false, "print Prometheus metrics to stderr on exit")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log debug output")
}

func (a *app) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// service opens the backend and returns the engine bound to it.
func (a *app) service(cmd *cobra.Command) (*engine.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	b, err := a.openBackend(cmd.Context())
	if err != nil {
		return nil, err
	}

	cfg := engine.DefaultConfig()
	cfg.Logger = a.logger(cmd.ErrOrStderr())
	if a.opts.metrics {
		a.registry = prometheus.NewRegistry()
		rec, err := metrics.NewRecorder(a.registry)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		cfg.Metrics = rec
	}

	a.backend = b
	a.svc = engine.New(b, cfg)
	return a.svc, nil
}

func (a *app) openBackend(ctx context.Context) (store.Backend, error) {
	switch a.opts.backend {
	case backendMemory:
		return memory.NewStore(), nil
	case backendSQLite, backendPostgres:
		driver := sqlstore.DriverSQLite
		if a.opts.backend == backendPostgres {
			driver = sqlstore.DriverPostgres
		}
		s, err := sqlstore.Open(ctx, sqlstore.Config{Driver: driver, DSN: a.opts.dsn})
		if err != nil {
			return nil, err
		}
		return s, nil
	case backendDynamo:
		client, err := a.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		return dynamo.New(client, a.dynamoConfig()), nil
	}
	return nil, fmt.Errorf("unknown backend %q", a.opts.backend)
}

func (a *app) dynamoConfig() dynamo.Config {
	if a.opts.tablePrefix != "" {
		return dynamo.ConfigWithPrefix(a.opts.tablePrefix)
	}
	return dynamo.DefaultConfig()
}

func (a *app) dynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if a.opts.endpoint != "" {
			o.BaseEndpoint = aws.String(a.opts.endpoint)
		}
	}), nil
}

// close releases the backend and prints metrics when requested.
func (a *app) close(w io.Writer) error {
	var errs []error
	if a.registry != nil {
		errs = append(errs, writeMetrics(w, a.registry))
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	a.backend, a.svc, a.registry = nil, nil, nil
	return errors.Join(errs...)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
