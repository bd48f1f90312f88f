package report

import (
	"sort"

	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/classify"
)

// Summarize computes the per-class summary statistic. Project count
// deduplicates by study accession. Declared sizes in the catalog are recorded
// per run but typically repeat the project-level total, so each distinct
// project contributes its first-seen run's declared size exactly once.
func Summarize(cr classify.ClassResult) models.ClassSummary {
	seen := make(map[string]bool)
	var total int64
	for _, m := range cr.Matches {
		project := m.Record.StudyAccession()
		if seen[project] {
			continue
		}
		seen[project] = true
		total += m.Record.SizeBytes()
	}
	return models.ClassSummary{
		Class:          cr.Name,
		SampleCount:    len(cr.Matches),
		ProjectCount:   len(seen),
		TotalSizeBytes: total,
	}
}

// projectCount is one row of the per-project run ranking.
type projectCount struct {
	Project string
	Runs    int
}

// rankProjects counts runs per study accession and orders busiest first,
// ties broken by accession for stable output.
func rankProjects(matches []models.ClassMatch) []projectCount {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.Record.StudyAccession()]++
	}

	ranked := make([]projectCount, 0, len(counts))
	for project, runs := range counts {
		ranked = append(ranked, projectCount{Project: project, Runs: runs})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Runs != ranked[j].Runs {
			return ranked[i].Runs > ranked[j].Runs
		}
		return ranked[i].Project < ranked[j].Project
	})
	return ranked
}
