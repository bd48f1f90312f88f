// Package catalog implements the catalog CLI verbs for inspecting the
// metadata catalog.
package catalog

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	catalogpkg "github.com/dtnitsch/sra-classifier/pkg/catalog"
)

// Command returns the catalog CLI command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "inspect the metadata catalog",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "show run counts by library strategy",
				Action: StatsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database",
						Aliases:  []string{"d"},
						Usage:    "path to the SRA metadata catalog (SQLite)",
						Required: true,
					},
				},
			},
		},
	}
}

// StatsAction prints the catalog overview.
func StatsAction(c *cli.Context) error {
	cat, err := catalogpkg.Open(c.String("database"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	total, byStrategy, err := cat.Stats()
	if err != nil {
		return fmt.Errorf("failed to read catalog stats: %w", err)
	}

	fmt.Printf("%-30s %12s\n", "Library Strategy", "Runs")
	fmt.Println(strings.Repeat("-", 43))
	for _, sc := range byStrategy {
		name := sc.LibraryStrategy
		if name == "" {
			name = "(unset)"
		}
		fmt.Printf("%-30s %12d\n", name, sc.Runs)
	}
	fmt.Printf("\nTotal: %d runs\n", total)

	return nil
}
