// Package classify implements the classify CLI verb: blacklist filtering,
// keyword classification, optional access-status enrichment, and report
// generation.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/sra-classifier/internal/common"
	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/access"
	"github.com/dtnitsch/sra-classifier/pkg/catalog"
	classifypkg "github.com/dtnitsch/sra-classifier/pkg/classify"
	"github.com/dtnitsch/sra-classifier/pkg/keyword"
	"github.com/dtnitsch/sra-classifier/pkg/report"
)

// Command returns the classify CLI command.
func Command() *cli.Command {
	return &cli.Command{
		Name:   "classify",
		Usage:  "classify a candidate table into keyword-defined classes and write per-class reports",
		Action: Action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "candidate table written by the prefilter step",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "blacklist",
				Aliases:  []string{"b"},
				Usage:    "newline-delimited blacklist keyword file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "classes",
				Aliases:  []string{"c"},
				Usage:    "class definitions file (YAML or JSON)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "directory for the per-class reports",
				Value:   ".",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "classification workers (1 = sequential)",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "access-status",
				Usage: "resolve public/controlled access per project via NCBI eutils",
			},
			&cli.StringFlag{
				Name:  "ncbi-api-key",
				Usage: "NCBI API key (raises the allowed request rate)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
		},
	}
}

// Action classifies the candidate table. Configuration errors (bad keyword
// files, malformed class definitions, fields missing from the table schema)
// are fatal before any report file is created.
func Action(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()
	ctx := context.Background()

	table, err := catalog.ReadTableFile(c.String("input"))
	if err != nil {
		logger.Error("failed to read candidate table", "error", err)
		os.Exit(2)
	}
	logger.Info("loaded candidate table", "records", table.Len(), "columns", len(table.Columns))

	blacklist, err := keyword.LoadSet("blacklist", c.String("blacklist"))
	if err != nil {
		logger.Error("failed to load blacklist", "error", err)
		os.Exit(2)
	}

	defs, err := classifypkg.LoadDefinitions(c.String("classes"))
	if err != nil {
		logger.Error("failed to load class definitions", "error", err)
		os.Exit(2)
	}
	logger.Info("loaded class definitions", "classes", len(defs))

	engine := &classifypkg.Engine{
		Blacklist: blacklist,
		Classes:   defs,
		Workers:   c.Int("workers"),
	}
	result, err := engine.Run(ctx, table)
	if err != nil {
		logger.Error("classification failed", "error", err)
		os.Exit(2)
	}
	logger.Info("classification finished",
		"excluded", len(result.Excluded), "undefined", len(result.Undefined))

	var statuses map[string]models.AccessStatus
	if c.Bool("access-status") {
		statuses, err = resolveAccessStatus(ctx, logger, c.String("ncbi-api-key"), result)
		if err != nil {
			logger.Error("access status resolution aborted", "error", err)
			os.Exit(2)
		}
	}

	writer, err := report.NewWriter(c.String("output-dir"))
	if err != nil {
		logger.Error("failed to prepare output directory", "error", err)
		os.Exit(2)
	}
	if statuses != nil {
		writer.WithAccessStatus(statuses)
	}

	summaries, err := writer.WriteAll(result)
	if err != nil {
		logger.Error("failed to write reports", "error", err)
		os.Exit(2)
	}

	fmt.Println(report.RenderSummaries(summaries))
	logger.Info("classify finished",
		"output_dir", c.String("output-dir"),
		"elapsed", time.Since(startTime).Round(time.Millisecond).String(),
	)
	return nil
}

// resolveAccessStatus looks up access status once per distinct project, in
// candidate order. Runs with malformed accessions are skipped and resolve to
// unknown. Only context cancellation aborts; lookup failures degrade.
func resolveAccessStatus(ctx context.Context, logger *slog.Logger, apiKey string, result *classifypkg.Result) (map[string]models.AccessStatus, error) {
	var lookups []access.Lookup
	var invalidRuns int
	for _, cr := range result.Classes {
		for _, m := range cr.Matches {
			run := common.SanitizeAccession(m.Record.RunAccession())
			if !common.IsAccession(run) {
				invalidRuns++
				continue
			}
			lookups = append(lookups, access.Lookup{
				Project: m.Record.StudyAccession(),
				Run:     run,
			})
		}
	}
	if invalidRuns > 0 {
		logger.Warn("skipping malformed run accessions", "count", invalidRuns)
	}

	logger.Info("resolving access status", "lookups", len(lookups), "api_key", apiKey != "")
	client := access.NewClient(apiKey)
	resolver := access.NewResolver(client, logger)
	return resolver.Resolve(ctx, lookups)
}
