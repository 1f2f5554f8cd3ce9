package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/skimworks/skim-api/internal/adapters/fetcher"
	"github.com/skimworks/skim-api/internal/core"
	"github.com/skimworks/skim-api/internal/data"
	"github.com/skimworks/skim-api/internal/domain/model"
	apperrors "github.com/skimworks/skim-api/internal/errors"
	"github.com/skimworks/skim-api/internal/util"
)

const (
	defaultSummariesTimeout = 30 * time.Second
	defaultListLimit        = 20
	summaryPreviewWidth     = 60
)

type listSummariesOptions struct {
	Status string
	Limit  int
	Offset int
}

func parseListSummariesFlags(args []string) (listSummariesOptions, error) {
	fs := flag.NewFlagSet("list-summaries", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listSummariesOptions{Limit: defaultListLimit}
	fs.StringVar(&opts.Status, "status", "", "Filter by status (in_progress|success|failure)")
	fs.IntVar(&opts.Limit, "limit", opts.Limit, "Maximum number of rows to display")
	fs.IntVar(&opts.Offset, "offset", 0, "Number of rows to skip")

	if err := fs.Parse(args); err != nil {
		return listSummariesOptions{}, err
	}

	opts.Status = strings.ToLower(strings.TrimSpace(opts.Status))
	if opts.Status != "" && !model.JobStatus(opts.Status).Valid() {
		return listSummariesOptions{}, fmt.Errorf("invalid status %q", opts.Status)
	}
	if opts.Limit <= 0 {
		return listSummariesOptions{}, errors.New("--limit must be greater than zero")
	}
	if opts.Offset < 0 {
		return listSummariesOptions{}, errors.New("--offset must not be negative")
	}
	return opts, nil
}

func runListSummaries(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSummariesFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultSummariesTimeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewSummaryRepo(db)
		status := model.JobStatus(opts.Status)

		rows, listErr := repo.ListOverview(ctx, core.ListSummariesOptions{
			Status: status,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		})
		if listErr != nil {
			return fmt.Errorf("list summaries: %w", listErr)
		}

		total, countErr := repo.Count(ctx, status)
		if countErr != nil {
			return fmt.Errorf("count summaries: %w", countErr)
		}

		return printSummaryRows(rows, total, opts)
	})
}

func printSummaryRows(rows []*data.SummaryOverview, total int64, opts listSummariesOptions) error {
	if err := writef(os.Stdout, "\nSummary records"); err != nil {
		return fmt.Errorf("write summaries header: %w", err)
	}
	if opts.Status != "" {
		if err := writef(os.Stdout, " (status %s)", opts.Status); err != nil {
			return fmt.Errorf("write summaries status: %w", err)
		}
	}
	if err := writef(os.Stdout, " (limit %d, offset %d)\n", opts.Limit, opts.Offset); err != nil {
		return fmt.Errorf("write summaries header info: %w", err)
	}

	if len(rows) == 0 {
		if err := writeln(os.Stdout, "  (no rows found)"); err != nil {
			return fmt.Errorf("write summaries empty message: %w", err)
		}
		return nil
	}

	if err := renderSummaryTable(rows); err != nil {
		return err
	}

	if err := writef(os.Stdout, "Total matching rows: %d\n", total); err != nil {
		return fmt.Errorf("write summaries total: %w", err)
	}
	if len(rows) == opts.Limit && int64(opts.Offset+opts.Limit) < total {
		if err := writeln(os.Stdout, "More rows available; adjust --offset or --limit to view additional data."); err != nil {
			return fmt.Errorf("write summaries more-rows message: %w", err)
		}
	}
	return nil
}

func renderSummaryTable(rows []*data.SummaryOverview) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tSTATUS\tUPDATED (UTC)\tSUMMARY\tURL"); err != nil {
		return fmt.Errorf("write summaries header row: %w", err)
	}

	for _, row := range rows {
		preview := "-"
		if row.SummaryText != nil {
			preview = truncateText(*row.SummaryText, summaryPreviewWidth)
		}
		if err := writef(
			tw,
			"%s\t%s\t%s\t%s\t%s\n",
			row.ID,
			row.Status,
			formatTimestamp(row.UpdatedAt),
			preview,
			row.URL,
		); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush summaries table: %w", err)
	}
	return nil
}

type getSummaryOptions struct {
	URL  string
	JSON bool
}

func parseGetSummaryFlags(args []string) (getSummaryOptions, error) {
	fs := flag.NewFlagSet("get-summary", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts getSummaryOptions
	fs.StringVar(&opts.URL, "url", "", "URL whose summary record should be shown")
	fs.BoolVar(&opts.JSON, "json", false, "Print the raw record as indented JSON")

	if err := fs.Parse(args); err != nil {
		return getSummaryOptions{}, err
	}

	opts.URL = strings.TrimSpace(opts.URL)
	if opts.URL == "" {
		return getSummaryOptions{}, errors.New("--url is required")
	}
	return opts, nil
}

func runGetSummary(cmdCtx *commandContext, args []string) error {
	opts, err := parseGetSummaryFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultSummariesTimeout, func(ctx context.Context, db *sql.DB) error {
		record, getErr := data.NewSummaryRepo(db).GetByURL(ctx, opts.URL)
		if getErr != nil {
			if apperrors.IsNotFound(getErr) {
				return writef(os.Stdout, "No summary record found for %s\n", opts.URL)
			}
			return fmt.Errorf("get summary: %w", getErr)
		}

		if opts.JSON {
			return printSummaryJSON(record)
		}
		return printSummaryDetails(record)
	})
}

func printSummaryJSON(record *model.SummaryRecord) error {
	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary record: %w", err)
	}
	if err := writeln(os.Stdout, string(b)); err != nil {
		return fmt.Errorf("print summary json: %w", err)
	}
	return nil
}

func printSummaryDetails(record *model.SummaryRecord) error {
	if err := writef(os.Stdout, "Summary record %s\n", record.ID); err != nil {
		return fmt.Errorf("print summary details: %w", err)
	}
	if err := writef(os.Stdout, "  URL:      %s\n", record.URL); err != nil {
		return fmt.Errorf("print summary details: %w", err)
	}
	if err := writef(os.Stdout, "  Status:   %s\n", record.Status); err != nil {
		return fmt.Errorf("print summary details: %w", err)
	}
	if record.Error != nil && *record.Error != "" {
		if err := writef(os.Stdout, "  Error:    %s\n", *record.Error); err != nil {
			return fmt.Errorf("print summary details: %w", err)
		}
	}

	if err := printSummaryResult(record); err != nil {
		return err
	}

	if record.TotalTokens != nil {
		if err := writef(os.Stdout, "  Tokens:   %d\n", *record.TotalTokens); err != nil {
			return fmt.Errorf("print summary details: %w", err)
		}
	}
	if err := writef(os.Stdout, "  Duration: %s\n", util.FormatProcessingDuration(recordDuration(record))); err != nil {
		return fmt.Errorf("print summary details: %w", err)
	}
	if err := writef(os.Stdout, "  Created:  %s\n", formatTimestamp(record.CreatedAt)); err != nil {
		return fmt.Errorf("print summary details: %w", err)
	}
	if err := writef(os.Stdout, "  Updated:  %s\n", formatTimestamp(record.UpdatedAt)); err != nil {
		return fmt.Errorf("print summary details: %w", err)
	}
	return nil
}

func printSummaryResult(record *model.SummaryRecord) error {
	result, err := record.DecodedResult()
	if err != nil {
		return fmt.Errorf("decode summary result: %w", err)
	}
	if result == nil {
		return nil
	}

	if result.Degraded() {
		if err := writef(os.Stdout, "  Parse error: %s\n", result.ParseError); err != nil {
			return fmt.Errorf("print summary result: %w", err)
		}
		if err := writef(os.Stdout, "  Raw response:\n%s\n", indentText(result.RawResponse)); err != nil {
			return fmt.Errorf("print summary result: %w", err)
		}
		return nil
	}

	if err := writef(os.Stdout, "  Summary:  %s\n", result.Summary); err != nil {
		return fmt.Errorf("print summary result: %w", err)
	}
	if len(result.Tags) > 0 {
		if err := writef(os.Stdout, "  Tags:     %s\n", strings.Join(result.Tags, ", ")); err != nil {
			return fmt.Errorf("print summary result: %w", err)
		}
	}
	if result.ChunkCount > 0 {
		if err := writef(os.Stdout, "  Chunks:   %d\n", result.ChunkCount); err != nil {
			return fmt.Errorf("print summary result: %w", err)
		}
	}
	return nil
}

type purgeSummariesOptions struct {
	OlderThan time.Duration
	Yes       bool
}

func parsePurgeSummariesFlags(args []string) (purgeSummariesOptions, error) {
	fs := flag.NewFlagSet("purge-summaries", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts purgeSummariesOptions
	fs.DurationVar(
		&opts.OlderThan,
		"older-than",
		0,
		"Delete finished records last updated before now minus this age (e.g. 720h)",
	)
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return purgeSummariesOptions{}, err
	}

	if opts.OlderThan <= 0 {
		return purgeSummariesOptions{}, errors.New("--older-than must be greater than zero")
	}
	return opts, nil
}

func runPurgeSummaries(cmdCtx *commandContext, args []string) error {
	opts, err := parsePurgeSummariesFlags(args)
	if err != nil {
		return err
	}
	if err := confirmPurge(opts); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultSummariesTimeout, func(ctx context.Context, db *sql.DB) error {
		deleted, purgeErr := data.NewSummaryRepo(db).DeleteOlderThan(ctx, opts.OlderThan)
		if purgeErr != nil {
			return fmt.Errorf("purge summaries: %w", purgeErr)
		}
		return writef(os.Stdout, "Deleted %d summary record(s) older than %s.\n", deleted, opts.OlderThan)
	})
}

func confirmPurge(opts purgeSummariesOptions) error {
	if opts.Yes {
		return nil
	}

	if err := writef(
		os.Stdout,
		"About to delete finished summary records last updated more than %s ago. In-progress rows are kept.\n",
		opts.OlderThan,
	); err != nil {
		return fmt.Errorf("print confirmation message: %w", err)
	}
	if err := write(os.Stdout, "Continue? [y/N]: "); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	resp, err := reader.ReadString('\n')
	if err != nil {
		if writeErr := writef(os.Stdout, "\nFailed to read confirmation input: %v\n", err); writeErr != nil {
			return fmt.Errorf("aborted by user: report write failed: %w", writeErr)
		}
		return errors.New("aborted by user")
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

type evictCacheOptions struct {
	URL string
}

func parseEvictCacheFlags(args []string) (evictCacheOptions, error) {
	fs := flag.NewFlagSet("evict-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts evictCacheOptions
	fs.StringVar(&opts.URL, "url", "", "URL whose cached article text should be evicted")

	if err := fs.Parse(args); err != nil {
		return evictCacheOptions{}, err
	}

	opts.URL = strings.TrimSpace(opts.URL)
	if opts.URL == "" {
		return evictCacheOptions{}, errors.New("--url is required")
	}
	return opts, nil
}

func runEvictCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseEvictCacheFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultSummariesTimeout)
	defer cancel()

	_, redisClient, err := connectInfraWithOptions(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantDB:    false,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	if redisClient == nil {
		return errors.New("redis is not configured; nothing to evict")
	}
	defer func() {
		if cerr := closeInfra(nil, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close infra failed", "error", cerr)
		}
	}()

	deleted, err := data.NewRedisCacheRepo(redisClient).Delete(ctx, fetcher.CacheKey(opts.URL))
	if err != nil {
		return fmt.Errorf("evict cached article: %w", err)
	}

	if deleted {
		return writef(os.Stdout, "Evicted cached article text for %s.\n", opts.URL)
	}
	return writef(os.Stdout, "No cached article text found for %s.\n", opts.URL)
}

func recordDuration(record *model.SummaryRecord) time.Duration {
	if record.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*record.DurationSeconds * float64(time.Second))
}

// truncateText collapses whitespace and caps the text at width runes so
// multi-line summaries stay on one table row.
func truncateText(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "-"
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width]) + "..."
}

func indentText(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
