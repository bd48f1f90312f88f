// Package keyword implements case-insensitive substring matching of keyword
// sets against free-text metadata fields.
package keyword

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKeyword reports a keyword that is empty after trimming whitespace.
var ErrInvalidKeyword = errors.New("invalid keyword")

// Match identifies which keyword matched and in which field. FieldIndex is
// the position in the caller's declared field order, so downstream reports can
// cite "the" matching keyword deterministically.
type Match struct {
	Keyword    string
	FieldIndex int
}

// Set is a named, ordered set of keywords. Order is the declared order from
// the source file and governs first-match detection.
type Set struct {
	name     string
	keywords []string
	lowered  []string
}

// NewSet builds a keyword set, normalizing each keyword by trimming
// whitespace. Keywords that are empty after trimming fail with
// ErrInvalidKeyword; matching itself is case-insensitive.
func NewSet(name string, keywords []string) (*Set, error) {
	s := &Set{
		name:     name,
		keywords: make([]string, 0, len(keywords)),
		lowered:  make([]string, 0, len(keywords)),
	}
	for _, kw := range keywords {
		trimmed := strings.TrimSpace(kw)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: blank keyword in set %q", ErrInvalidKeyword, name)
		}
		s.keywords = append(s.keywords, trimmed)
		s.lowered = append(s.lowered, strings.ToLower(trimmed))
	}
	return s, nil
}

// Name returns the set's name.
func (s *Set) Name() string {
	return s.name
}

// Keywords returns the keywords in declared order.
func (s *Set) Keywords() []string {
	return s.keywords
}

// Len returns the number of keywords in the set.
func (s *Set) Len() int {
	return len(s.keywords)
}

// Matches reports whether text contains keyword, case-insensitively. Empty or
// absent text never matches.
func Matches(text, kw string) bool {
	if text == "" || kw == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(kw))
}

// MatchAny scans fields in declared order, and within each field the keywords
// in declared order, returning the first matching pair. Empty fields are
// skipped; absent fields should be passed as empty strings.
func (s *Set) MatchAny(fields []string) (Match, bool) {
	for fi, field := range fields {
		if field == "" {
			continue
		}
		lowered := strings.ToLower(field)
		for ki, kw := range s.lowered {
			if strings.Contains(lowered, kw) {
				return Match{Keyword: s.keywords[ki], FieldIndex: fi}, true
			}
		}
	}
	return Match{}, false
}

// MatchAll returns every keyword/field pair that matches, in field-major
// declared order. Detection uses MatchAny's first hit; MatchAll backs the full
// annotation pass for reporting.
func (s *Set) MatchAll(fields []string) []Match {
	var matches []Match
	for fi, field := range fields {
		if field == "" {
			continue
		}
		lowered := strings.ToLower(field)
		for ki, kw := range s.lowered {
			if strings.Contains(lowered, kw) {
				matches = append(matches, Match{Keyword: s.keywords[ki], FieldIndex: fi})
			}
		}
	}
	return matches
}
