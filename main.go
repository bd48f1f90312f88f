package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	catalogcmd "github.com/dtnitsch/sra-classifier/internal/catalog"
	classifycmd "github.com/dtnitsch/sra-classifier/internal/classify"
	prefiltercmd "github.com/dtnitsch/sra-classifier/internal/prefilter"
)

func main() {
	app := &cli.App{
		Name:  "srac",
		Usage: "keyword-based classification of SRA sequencing runs",
		Commands: []*cli.Command{
			prefiltercmd.Command(),
			classifycmd.Command(),
			catalogcmd.Command(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
