package stream

import (
	"regexp"
	"strings"

	"github.com/xaenox/legal-assistant/internal/models"
)

var caseHeader = regexp.MustCompile(`## \[(.*?)\]\((.*?)\)\n#### Published at (.*?)\n\n#### From: \[source\]\((.*?)\)\n\n#### Excerpts: \n\n`)

// caseSeparator ends the excerpts of one record.
const caseSeparator = "\n\n##"

// ExtractCaseLaw returns every case-law record found in tool output, in the
// order they appear. Excerpts run until the next "\n\n##" or the end of the
// text. Text that matches no record yields an empty slice.
func ExtractCaseLaw(text string) []models.ResearchResult {
	var results []models.ResearchResult

	pos := 0
	for pos < len(text) {
		loc := caseHeader.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}

		bodyStart := pos + loc[1]
		bodyEnd := len(text)
		if i := strings.Index(text[bodyStart:], caseSeparator); i >= 0 {
			bodyEnd = bodyStart + i
		}

		group := func(n int) string {
			return text[pos+loc[2*n] : pos+loc[2*n+1]]
		}
		results = append(results, models.ResearchResult{
			Title:       group(1),
			URL:         group(2),
			PublishedAt: group(3),
			Source:      group(4),
			Excerpts:    strings.TrimSpace(text[bodyStart:bodyEnd]),
		})

		pos = bodyEnd
	}

	return results
}

// ResultSet accumulates research results, keeping only the first record seen
// for each url.
type ResultSet struct {
	seen    map[string]struct{}
	results []models.ResearchResult
}

func NewResultSet() *ResultSet {
	return &ResultSet{seen: make(map[string]struct{})}
}

// Add records r and reports whether it was new.
func (s *ResultSet) Add(r models.ResearchResult) bool {
	if _, dup := s.seen[r.URL]; dup {
		return false
	}
	s.seen[r.URL] = struct{}{}
	s.results = append(s.results, r)
	return true
}

func (s *ResultSet) Len() int { return len(s.results) }

// Results returns the accumulated records in first-seen order.
func (s *ResultSet) Results() []models.ResearchResult {
	out := make([]models.ResearchResult, len(s.results))
	copy(out, s.results)
	return out
}
