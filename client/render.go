package client

import (
	"fmt"

	"github.com/dokufrage/dokufrage/models"
)

// NoSourcesPlaceholder is shown when an answer cites no documents.
const NoSourcesPlaceholder = "Keine spezifischen Quellen gefunden"

// FormatSource renders one citation with its relevance as a percentage to
// one decimal place, e.g. "geo.txt (Relevanz: 87.3%)". Scores outside [0,1]
// are rendered as-is.
func FormatSource(s models.Source) string {
	return fmt.Sprintf("%s (Relevanz: %.1f%%)", s.Filename, s.Score*100)
}

// SourceLines renders the full citation list. An empty or absent list
// yields exactly one placeholder entry.
func SourceLines(sources []models.Source) []string {
	if len(sources) == 0 {
		return []string{NoSourcesPlaceholder}
	}
	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		lines = append(lines, FormatSource(s))
	}
	return lines
}
