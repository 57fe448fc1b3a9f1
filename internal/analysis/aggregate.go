package analysis

import (
	"sort"
	"strings"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
)

// Summary is the client-facing shape of a finished analysis: issues ordered
// by severity, technologies deduplicated, recommendations passed through
// verbatim.
type Summary struct {
	Scores          models.ScoreSummary `json:"summary"`
	Issues          []models.Issue      `json:"issues"`
	IssueCounts     map[string]int      `json:"issueCounts"`
	Recommendations []string            `json:"recommendations"`
	Metrics         models.Metrics      `json:"metrics"`
	Technologies    []models.Technology `json:"technologies"`
}

// Summarize orders and deduplicates a validated result for presentation.
// The ordering is a stable severity sort (critical first, unknown last) so
// issues of equal severity keep the model's original ordering. Duplicate
// technology names keep the entry with the highest confidence.
func Summarize(result *models.AnalysisResult) *Summary {
	issues := make([]models.Issue, len(result.Issues))
	copy(issues, result.Issues)
	sort.SliceStable(issues, func(i, j int) bool {
		return models.MapSeverity(issues[i].Severity).Weight() > models.MapSeverity(issues[j].Severity).Weight()
	})

	counts := make(map[string]int)
	for _, issue := range issues {
		counts[string(models.MapSeverity(issue.Severity))]++
	}

	return &Summary{
		Scores:          result.Summary,
		Issues:          issues,
		IssueCounts:     counts,
		Recommendations: result.Recommendations,
		Metrics:         result.Metrics,
		Technologies:    DedupeTechnologies(result.Technologies),
	}
}

// DedupeTechnologies collapses case-insensitive duplicate names, keeping the
// highest-confidence entry and the first-seen position. Also used by the
// gateway to merge technologies across repositories.
func DedupeTechnologies(techs []models.Technology) []models.Technology {
	type slot struct {
		index int
		tech  models.Technology
	}
	seen := make(map[string]*slot)
	order := make([]string, 0, len(techs))

	for _, t := range techs {
		key := normalizeTechName(t.Name)
		if existing, ok := seen[key]; ok {
			if t.Confidence > existing.tech.Confidence {
				existing.tech = t
			}
			continue
		}
		seen[key] = &slot{index: len(order), tech: t}
		order = append(order, key)
	}

	out := make([]models.Technology, 0, len(order))
	for _, key := range order {
		out = append(out, seen[key].tech)
	}
	return out
}

func normalizeTechName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
