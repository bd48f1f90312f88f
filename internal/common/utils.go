package common

import (
	"regexp"
	"strings"
)

// accessionPattern matches SRA/ENA/DDBJ accession shapes: archive prefix
// (S/E/D)R, record-type letter, numeric body.
var accessionPattern = regexp.MustCompile(`^[SED]R[RPXSAZ][0-9]+$`)

// SanitizeAccession performs basic cleanup on accession strings to handle
// common copy-paste issues: surrounding whitespace, stray punctuation, and
// lowercase prefixes.
func SanitizeAccession(raw string) string {
	cleaned := strings.TrimSpace(raw)

	trailingChars := []string{",", ".", ")", "]", "\"", "'", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}
	leadingChars := []string{"(", "[", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.ToUpper(strings.TrimSpace(cleaned))
}

// IsAccession reports whether a string looks like a run/study/experiment/
// sample accession after sanitization.
func IsAccession(s string) bool {
	return accessionPattern.MatchString(s)
}

// SanitizeAndValidateAccessions sanitizes all accessions and partitions them
// into (valid, invalid). Invalid entries keep their raw form for diagnostics.
func SanitizeAndValidateAccessions(accessions []string) ([]string, []string) {
	valid := make([]string, 0, len(accessions))
	var invalid []string

	for _, raw := range accessions {
		cleaned := SanitizeAccession(raw)
		if cleaned == "" || !IsAccession(cleaned) {
			invalid = append(invalid, raw)
			continue
		}
		valid = append(valid, cleaned)
	}
	return valid, invalid
}
