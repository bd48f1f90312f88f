package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dtnitsch/sra-classifier/models"
)

// RenderSummaries renders the per-class summaries as a console table.
func RenderSummaries(summaries []models.ClassSummary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"class", "samples", "projects", "total bytes"})

	for _, s := range summaries {
		tw.AppendRow(table.Row{
			s.Class,
			s.SampleCount,
			s.ProjectCount,
			fmt.Sprintf("%d", s.TotalSizeBytes),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
