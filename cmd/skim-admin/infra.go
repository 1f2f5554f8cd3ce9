package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skimworks/skim-api/config"
	"github.com/skimworks/skim-api/internal/bootstrap"
	"github.com/skimworks/skim-api/internal/data"
	"github.com/skimworks/skim-api/internal/migrate"
)

type connectInfraOptions struct {
	Logger    *slog.Logger
	Config    *config.AppConfig
	WantDB    bool
	WantRedis bool
}

var (
	errRedisNotConfigured = errors.New("redis not configured")
	errRedisNotWanted     = errors.New("redis not wanted")
)

// connectInfra wires up infrastructure dependencies based on CLI options.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectInfra(logger *slog.Logger, cfg *config.AppConfig) (*sql.DB, redis.UniversalClient, error) {
	return connectInfraWithOptions(&connectInfraOptions{
		Logger:    logger,
		Config:    cfg,
		WantDB:    true,
		WantRedis: true,
	})
}

// connectInfraWithOptions allows commands to control which dependencies are created.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectInfraWithOptions(opts *connectInfraOptions) (*sql.DB, redis.UniversalClient, error) {
	var (
		db          *sql.DB
		err         error
		redisClient redis.UniversalClient
	)

	if opts.WantDB {
		db, err = bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: opts.Config.Postgres, Logger: opts.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
	}

	redisClient, err = attachRedisClient(&attachRedisClientRequest{
		Logger:    opts.Logger,
		Config:    &opts.Config.Redis,
		DB:        db,
		WantRedis: opts.WantRedis,
	})
	if err != nil && !errors.Is(err, errRedisNotWanted) && !errors.Is(err, errRedisNotConfigured) {
		return nil, nil, err
	}

	return db, redisClient, nil
}

type attachRedisClientRequest struct {
	Logger    *slog.Logger
	Config    *config.RedisConfig
	DB        *sql.DB
	WantRedis bool
}

// attachRedisClient attaches a Redis client when configuration and CLI flags request it.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func attachRedisClient(req *attachRedisClientRequest) (redis.UniversalClient, error) {
	if !req.WantRedis {
		return nil, errRedisNotWanted
	}

	client, err := maybeConnectRedis(req.Logger, req.Config)
	if err == nil {
		return client, nil
	}

	if errors.Is(err, errRedisNotConfigured) {
		req.Logger.Info("no redis configuration detected; skipping redis connection")
		return nil, errRedisNotConfigured
	}

	if req.DB != nil {
		if closeErr := req.DB.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", closeErr))
		}
	}
	return nil, err
}

// maybeConnectRedis returns a connected client when configuration is present.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func maybeConnectRedis(logger *slog.Logger, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: *cfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

func closeInfra(db *sql.DB, redisClient redis.UniversalClient) error {
	var closeErr error
	if db != nil {
		if err := db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

func runInfraStatus(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	db, redisClient, err := connectInfra(cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(db, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close infra failed", "error", cerr)
		}
	}()

	if err := printConnectionStatus(ctx, &cmdCtx.Config, db, redisClient); err != nil {
		return err
	}

	if err := printAppliedMigrations(ctx, db); err != nil {
		return err
	}

	return printSummaryCounts(ctx, db)
}

func printConnectionStatus(
	ctx context.Context,
	cfg *config.AppConfig,
	db *sql.DB,
	redisClient redis.UniversalClient,
) error {
	if err := writef(os.Stdout, "\nInfrastructure Status\n"); err != nil {
		return fmt.Errorf("print status header: %w", err)
	}

	if err := writef(
		os.Stdout,
		"Postgres: ok (%s:%d/%s)\n",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
	); err != nil {
		return fmt.Errorf("print postgres status: %w", err)
	}

	if redisClient == nil {
		if err := writef(os.Stdout, "Redis:    not configured\n"); err != nil {
			return fmt.Errorf("print redis status: %w", err)
		}
		return nil
	}

	status := "ok"
	if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
		status = "error: " + pingErr.Error()
	}
	if err := writef(os.Stdout, "Redis:    %s\n", status); err != nil {
		return fmt.Errorf("print redis status: %w", err)
	}
	return nil
}

func printAppliedMigrations(ctx context.Context, db *sql.DB) error {
	applied, err := migrate.Applied(ctx, db)
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}

	if err := writef(os.Stdout, "\nApplied Migrations\n"); err != nil {
		return fmt.Errorf("print migrations header: %w", err)
	}
	if len(applied) == 0 {
		if err := writeln(os.Stdout, "(none)"); err != nil {
			return fmt.Errorf("print migrations none: %w", err)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(w, "Version\tApplied At"); err != nil {
		return fmt.Errorf("print migrations table header: %w", err)
	}
	for _, m := range applied {
		if err := writef(w, "%s\t%s\n", m.Version, m.AppliedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("print migration row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush migrations table: %w", err)
	}
	return nil
}

func printSummaryCounts(ctx context.Context, db *sql.DB) error {
	repo := data.NewSummaryRepo(db)
	total, err := repo.Count(ctx, "")
	if err != nil {
		return fmt.Errorf("count summaries: %w", err)
	}

	if err := writef(os.Stdout, "\nSummary records: %d\n", total); err != nil {
		return fmt.Errorf("print summary count: %w", err)
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func write(w io.Writer, args ...any) error {
	_, err := fmt.Fprint(w, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
