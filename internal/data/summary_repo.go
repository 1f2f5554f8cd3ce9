package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/skimworks/skim-api/internal/core"
	"github.com/skimworks/skim-api/internal/data/database"
	"github.com/skimworks/skim-api/internal/data/pgxutil"
	"github.com/skimworks/skim-api/internal/domain/model"
	apperrors "github.com/skimworks/skim-api/internal/errors"
)

// SummaryRepo provides database operations for persisted summary records.
// Records are keyed by URL; a rerun for the same URL overwrites the row.
type SummaryRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSummaryRepo creates a new SummaryRepo with real time provider.
func NewSummaryRepo(db *sql.DB) *SummaryRepo {
	return &SummaryRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSummaryRepoWithTimeProvider creates a new SummaryRepo with a custom time provider (useful for tests).
func NewSummaryRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SummaryRepo {
	return &SummaryRepo{DB: db, timeProvider: tp}
}

// SQL query constants for static queries (no dynamic WHERE/ORDER BY).
const (
	summaryUpsertQuery = `
		INSERT INTO summaries (
			url, status, result, error, duration_seconds, total_tokens, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $7
		)
		ON CONFLICT (url) DO UPDATE SET
			status           = EXCLUDED.status,
			result           = EXCLUDED.result,
			error            = EXCLUDED.error,
			duration_seconds = EXCLUDED.duration_seconds,
			total_tokens     = EXCLUDED.total_tokens,
			updated_at       = EXCLUDED.updated_at
		RETURNING id, url, status, result, error, duration_seconds, total_tokens, created_at, updated_at`

	summaryGetByURLQuery = `
		SELECT id, url, status, result, error, duration_seconds, total_tokens, created_at, updated_at
		FROM summaries
		WHERE url = $1`

	summaryDeleteOlderThanQuery = `
		DELETE FROM summaries
		WHERE updated_at < $1 AND status != $2`
)

// Upsert writes the record for params.URL, replacing every payload column of
// an existing row. Columns absent from params come back NULL, not preserved.
func (r *SummaryRepo) Upsert(ctx context.Context, params core.UpsertSummaryParams) (*model.SummaryRecord, error) {
	url := strings.TrimSpace(params.URL)
	if url == "" {
		return nil, errors.New("url is required")
	}
	if !params.Status.Valid() {
		return nil, fmt.Errorf("invalid summary status %q", params.Status)
	}

	// A JSONB column rejects the empty string; bind NULL when there is no payload.
	var result any
	if len(params.Result) > 0 {
		result = params.Result
	}

	now := r.timeProvider.Now().UTC()
	var out model.SummaryRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, summaryUpsertQuery,
			url,
			params.Status,
			result,
			params.Error,
			params.DurationSeconds,
			params.TotalTokens,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SummaryRecord])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to upsert summary: %w", err)
	}
	return &out, nil
}

// GetByURL retrieves the record for a URL.
func (r *SummaryRepo) GetByURL(ctx context.Context, url string) (*model.SummaryRecord, error) {
	var out model.SummaryRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, summaryGetByURLQuery, strings.TrimSpace(url))
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.SummaryRecord])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("summary not found")
		}
		return nil, fmt.Errorf("failed to get summary by url: %w", err)
	}
	return &out, nil
}

// List retrieves records newest-first, optionally filtered by status.
func (r *SummaryRepo) List(ctx context.Context, opts core.ListSummariesOptions) ([]*model.SummaryRecord, error) {
	query, args := database.BuildListQuery(r.buildListQueryOptions(opts, summaryColumns()...))

	var rowsOut []model.SummaryRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.SummaryRecord])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	res := make([]*model.SummaryRecord, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// SummaryOverview is a trimmed listing row for operator tooling. SummaryText
// is projected out of the JSONB result payload and is nil for failed runs and
// for degraded results that never parsed.
type SummaryOverview struct {
	ID          string          `db:"id"`
	URL         string          `db:"url"`
	Status      model.JobStatus `db:"status"`
	SummaryText *string         `db:"summary_text"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// ListOverview retrieves overview rows newest-first, optionally filtered by status.
func (r *SummaryRepo) ListOverview(ctx context.Context, opts core.ListSummariesOptions) ([]*SummaryOverview, error) {
	cols := []string{
		"id",
		"url",
		"status",
		"result->>'summary' AS summary_text",
		"updated_at",
	}
	query, args := database.BuildListQuery(r.buildListQueryOptions(opts, cols...))

	var rowsOut []SummaryOverview
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[SummaryOverview])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list summary overviews: %w", err)
	}

	res := make([]*SummaryOverview, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count reports the number of records, optionally filtered by status.
func (r *SummaryRepo) Count(ctx context.Context, status model.JobStatus) (int64, error) {
	queryOpts := []database.ListQueryOption{database.WithCountOnly()}
	if status != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(status)),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("summaries", queryOpts...))

	var count int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes terminal records not updated within maxAge and
// reports how many were deleted. Rows still marked in_progress are kept so a
// purge cannot race a live pipeline run.
func (r *SummaryRepo) DeleteOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, errors.New("max age must be positive")
	}
	cutoff := r.timeProvider.Now().UTC().Add(-maxAge)

	var deleted int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, summaryDeleteOlderThanQuery, cutoff, model.JobStatusInProgress)
		if err != nil {
			return err
		}
		deleted = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old summaries: %w", err)
	}
	return deleted, nil
}

// --- helpers ---

// summaryColumns returns the standard column list for summary queries.
func summaryColumns() []string {
	return []string{
		"id",
		"url",
		"status",
		"result",
		"error",
		"duration_seconds",
		"total_tokens",
		"created_at",
		"updated_at",
	}
}

// buildListQueryOptions builds listing query options with shared pagination
// clamps and the newest-first ordering.
func (r *SummaryRepo) buildListQueryOptions(
	opts core.ListSummariesOptions,
	columns ...string,
) *database.ListQueryOptions {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(columns...),
		database.WithOrderBy("updated_at", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Status != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(opts.Status)),
		))
	}
	return database.NewListQueryOptions("summaries", queryOpts...)
}

var _ core.SummaryRepository = (*SummaryRepo)(nil)
