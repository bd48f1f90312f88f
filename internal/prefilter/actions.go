// Package prefilter implements the prefilter CLI verb: narrow the catalog to
// a candidate table by taxon, library strategy, and preselection keywords.
package prefilter

import (
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/sra-classifier/pkg/catalog"
	"github.com/dtnitsch/sra-classifier/pkg/keyword"
)

// Command returns the prefilter CLI command.
func Command() *cli.Command {
	return &cli.Command{
		Name:   "prefilter",
		Usage:  "query the catalog for candidate runs and write the candidate table",
		Action: Action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database",
				Aliases:  []string{"d"},
				Usage:    "path to the SRA metadata catalog (SQLite)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "keywords",
				Aliases:  []string{"k"},
				Usage:    "newline-delimited preselection keyword file",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "taxon",
				Aliases: []string{"t"},
				Usage:   "NCBI taxonomy id",
				Value:   catalog.DefaultTaxonID,
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "library strategy",
				Value:   catalog.DefaultLibraryStrategy,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "candidate table output path",
				Value:   "candidates.tsv",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
		},
	}
}

// Action runs the prefiltering query. The keyword list is validated before
// the catalog is touched, so an empty list never opens a connection.
func Action(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()

	keywords, err := keyword.LoadList(c.String("keywords"))
	if err != nil {
		logger.Error("failed to load preselection keywords", "error", err)
		os.Exit(2)
	}
	logger.Info("loaded preselection keywords", "count", len(keywords))

	cat, err := catalog.Open(c.String("database"))
	if err != nil {
		logger.Error("failed to open catalog", "error", err)
		os.Exit(2)
	}
	defer cat.Close()

	p := catalog.Prefilter{
		TaxonID:         c.Int("taxon"),
		LibraryStrategy: c.String("strategy"),
		Keywords:        keywords,
	}
	logger.Info("running prefiltering query",
		"taxon", p.TaxonID, "strategy", p.LibraryStrategy, "keywords", len(keywords))

	table, err := p.Run(cat)
	if err != nil {
		logger.Error("prefiltering query failed", "error", err)
		os.Exit(2)
	}

	outPath := c.String("output")
	if err := catalog.WriteTableFile(outPath, table); err != nil {
		logger.Error("failed to write candidate table", "error", err, "path", outPath)
		os.Exit(2)
	}

	logger.Info("prefilter finished",
		"candidates", table.Len(),
		"output", outPath,
		"elapsed", time.Since(startTime).Round(time.Millisecond).String(),
	)
	return nil
}
