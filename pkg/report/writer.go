// Package report writes the per-class output artifacts: download lists,
// sample overviews, and summary statistics.
package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/sra-classifier/models"
	"github.com/dtnitsch/sra-classifier/pkg/classify"
)

const (
	DownloadListsDir  = "download_lists"
	SampleOverviewDir = "sample_overview"
	SummaryStatsDir   = "summary_statistics"
)

// overviewColumns are the candidate-table fields carried into every sample
// overview row, in output order.
var overviewColumns = []string{
	models.ColRunAccession,
	models.ColSampleAttribute,
	models.ColSampleName,
	models.ColExperimentTitle,
	models.ColStudyAccession,
}

// Writer produces the per-class artifacts under a base output directory.
type Writer struct {
	baseDir string

	// accessStatus maps study accession to resolved access status. Nil leaves
	// the access_status column out of the overview tables.
	accessStatus map[string]models.AccessStatus
}

// NewWriter creates the output directory layout.
func NewWriter(baseDir string) (*Writer, error) {
	for _, sub := range []string{DownloadListsDir, SampleOverviewDir, SummaryStatsDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", sub, err)
		}
	}
	return &Writer{baseDir: baseDir}, nil
}

// WithAccessStatus enables the access_status overview column, resolved per
// study accession.
func (w *Writer) WithAccessStatus(byProject map[string]models.AccessStatus) *Writer {
	w.accessStatus = byProject
	return w
}

// WriteAll writes every artifact for a classification result and returns the
// per-class summaries in declared class order. Classes with zero matches
// still produce an empty download list, so downstream consumers can rely on
// one file per declared class.
func (w *Writer) WriteAll(result *classify.Result) ([]models.ClassSummary, error) {
	summaries := make([]models.ClassSummary, 0, len(result.Classes))
	for _, cr := range result.Classes {
		if err := w.writeDownloadList(cr); err != nil {
			return nil, err
		}
		if err := w.writeOverview(cr); err != nil {
			return nil, err
		}
		summary := Summarize(cr)
		if err := w.writeSummary(summary); err != nil {
			return nil, err
		}
		if err := w.writeProjects(cr); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := w.writeExcluded(result.Excluded); err != nil {
		return nil, err
	}
	if err := w.writeUndefined(result.Undefined); err != nil {
		return nil, err
	}
	return summaries, nil
}

// writeDownloadList writes one run accession per line, stable candidate order.
func (w *Writer) writeDownloadList(cr classify.ClassResult) error {
	path := filepath.Join(w.baseDir, DownloadListsDir, cr.Name+"_dl_list.txt")
	return writeFile(path, func(bw *bufio.Writer) error {
		for _, m := range cr.Matches {
			if _, err := bw.WriteString(m.Record.RunAccession() + "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeOverview writes one row per matched record with its key attributes and
// the full matched-keyword annotation.
func (w *Writer) writeOverview(cr classify.ClassResult) error {
	path := filepath.Join(w.baseDir, SampleOverviewDir, cr.Name+"_samples.tsv")
	return writeFile(path, func(bw *bufio.Writer) error {
		if err := w.writeOverviewHeader(bw, "matched_keywords"); err != nil {
			return err
		}
		for _, m := range cr.Matches {
			if err := w.writeOverviewRow(bw, m.Record, formatHits(m.Hits)); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeExcluded logs blacklist-rejected records with the offending hit.
func (w *Writer) writeExcluded(excluded []models.Exclusion) error {
	path := filepath.Join(w.baseDir, SampleOverviewDir, "excluded_samples.tsv")
	return writeFile(path, func(bw *bufio.Writer) error {
		if err := w.writeOverviewHeader(bw, "blacklist_keyword\tblacklist_field"); err != nil {
			return err
		}
		for _, ex := range excluded {
			annotation := sanitize(ex.Hit.Keyword) + "\t" + sanitize(ex.Hit.Field)
			if err := w.writeOverviewRow(bw, ex.Record, annotation); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeUndefined lists candidates that matched no class.
func (w *Writer) writeUndefined(records []models.Record) error {
	path := filepath.Join(w.baseDir, SampleOverviewDir, "undefined_samples.tsv")
	return writeFile(path, func(bw *bufio.Writer) error {
		if err := w.writeOverviewHeader(bw, ""); err != nil {
			return err
		}
		for _, r := range records {
			if err := w.writeOverviewRow(bw, r, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeOverviewHeader(bw *bufio.Writer, annotation string) error {
	cols := append([]string{}, overviewColumns...)
	if w.accessStatus != nil {
		cols = append(cols, "access_status")
	}
	if annotation != "" {
		cols = append(cols, annotation)
	}
	_, err := bw.WriteString(strings.Join(cols, "\t") + "\n")
	return err
}

func (w *Writer) writeOverviewRow(bw *bufio.Writer, record models.Record, annotation string) error {
	cells := make([]string, 0, len(overviewColumns)+2)
	for _, col := range overviewColumns {
		v, _ := record.Field(col)
		cells = append(cells, sanitize(v))
	}
	if w.accessStatus != nil {
		cells = append(cells, w.accessStatus[record.StudyAccession()].String())
	}
	if annotation != "" {
		cells = append(cells, annotation)
	}
	_, err := bw.WriteString(strings.Join(cells, "\t") + "\n")
	return err
}

// writeSummary writes the single-row summary-statistics table for a class.
func (w *Writer) writeSummary(s models.ClassSummary) error {
	path := filepath.Join(w.baseDir, SummaryStatsDir, s.Class+"_summary.tsv")
	return writeFile(path, func(bw *bufio.Writer) error {
		if _, err := bw.WriteString("class\tsample_count\tproject_count\ttotal_size_bytes\n"); err != nil {
			return err
		}
		_, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%d\n", s.Class, s.SampleCount, s.ProjectCount, s.TotalSizeBytes)
		return err
	})
}

// writeProjects writes the per-project run counts of a class, busiest project
// first.
func (w *Writer) writeProjects(cr classify.ClassResult) error {
	path := filepath.Join(w.baseDir, SummaryStatsDir, cr.Name+"_projects.tsv")
	ranked := rankProjects(cr.Matches)
	return writeFile(path, func(bw *bufio.Writer) error {
		if _, err := bw.WriteString("study_accession\trun_count\n"); err != nil {
			return err
		}
		for _, pc := range ranked {
			if _, err := fmt.Fprintf(bw, "%s\t%d\n", pc.Project, pc.Runs); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatHits renders the annotation pass as keyword@field pairs.
func formatHits(hits []models.KeywordHit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = sanitize(h.Keyword) + "@" + sanitize(h.Field)
	}
	return strings.Join(parts, ";")
}

var cellSanitizer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func sanitize(cell string) string {
	return cellSanitizer.Replace(cell)
}

func writeFile(path string, fill func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
