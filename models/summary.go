package models

// KeywordHit records one keyword matching inside one searchable field.
type KeywordHit struct {
	Keyword string
	Field   string
}

// ClassMatch ties a candidate record to every keyword hit that placed it in a
// class. Detection uses the first hit in declared order; Hits carries the full
// annotation pass for auditability.
type ClassMatch struct {
	Record Record
	Hits   []KeywordHit
}

// Exclusion records a candidate rejected by the blacklist, with the offending
// keyword and field.
type Exclusion struct {
	Record Record
	Hit    KeywordHit
}

// ClassSummary is the per-class summary statistic. TotalSizeBytes counts each
// distinct project once (first-seen run's declared size), not per sample.
type ClassSummary struct {
	Class          string
	SampleCount    int
	ProjectCount   int
	TotalSizeBytes int64
}
