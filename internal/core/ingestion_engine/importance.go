package ingestion_engine

import (
	"strings"

	"github.com/contextcraft/docpipe/internal/models"
)

// Heuristic vocabularies for ranking sections. These bias downstream
// retrieval and are tunable, not correctness-critical.
var (
	highImportanceKeywords = []string{
		"requirement", "introduction", "overview", "scope",
		"objective", "feature", "functional", "architecture",
	}
	mediumImportanceKeywords = []string{
		"background", "summary", "conclusion", "design",
	}
)

// classifyImportance ranks a section title by case-insensitive keyword
// membership, high keywords taking priority over medium ones.
func classifyImportance(title string) models.Importance {
	t := strings.ToLower(title)
	for _, kw := range highImportanceKeywords {
		if strings.Contains(t, kw) {
			return models.ImportanceHigh
		}
	}
	for _, kw := range mediumImportanceKeywords {
		if strings.Contains(t, kw) {
			return models.ImportanceMedium
		}
	}
	return models.ImportanceStandard
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
