package keyword

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyKeywordList reports a keyword file with no usable entries.
var ErrEmptyKeywordList = errors.New("empty keyword list")

// ParseList reads a newline-delimited keyword list. Lines are trimmed of
// surrounding whitespace and blank lines are skipped. A list with no remaining
// entries fails with ErrEmptyKeywordList.
func ParseList(r io.Reader) ([]string, error) {
	var keywords []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		keywords = append(keywords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keyword list: %w", err)
	}
	if len(keywords) == 0 {
		return nil, ErrEmptyKeywordList
	}
	return keywords, nil
}

// LoadList reads a keyword file from disk via ParseList.
func LoadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyword file %s: %w", path, err)
	}
	defer f.Close()

	keywords, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("keyword file %s: %w", path, err)
	}
	return keywords, nil
}

// LoadSet reads a keyword file and builds a Set named after it.
func LoadSet(name, path string) (*Set, error) {
	keywords, err := LoadList(path)
	if err != nil {
		return nil, err
	}
	return NewSet(name, keywords)
}
