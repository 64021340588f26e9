package wordcount

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// StopWordSet holds words excluded from counting by policy. It is loaded once
// at startup and never mutated afterwards.
type StopWordSet map[string]struct{}

// NewStopWordSet builds a set from literal words (mostly for tests).
func NewStopWordSet(words ...string) StopWordSet {
	s := make(StopWordSet, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// Contains reports whether word is a stop word (case-insensitive).
func (s StopWordSet) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// LoadStopWords reads a CSV file of stop words. Rows may hold any number of
// comma-separated words; all rows are flattened into one set.
func LoadStopWords(path string) (StopWordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stop words: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse stop words: %w", err)
	}

	set := make(StopWordSet)
	for _, row := range rows {
		for _, w := range row {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				set[w] = struct{}{}
			}
		}
	}
	return set, nil
}
