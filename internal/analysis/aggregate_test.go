package analysis

import (
	"testing"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
)

func score(v float64) *float64 { return &v }

func TestSummarizeOrdersIssuesBySeverity(t *testing.T) {
	result := &models.AnalysisResult{
		Summary: models.ScoreSummary{
			QualityScore: score(80), SecurityScore: score(70), MaintainabilityScore: score(60),
		},
		Issues: []models.Issue{
			{Type: "a", Severity: "low", Description: "first low"},
			{Type: "b", Severity: "critical", Description: "crit"},
			{Type: "c", Severity: "medium", Description: "med"},
			{Type: "d", Severity: "low", Description: "second low"},
			{Type: "e", Severity: "high", Description: "high"},
			{Type: "f", Severity: "bogus", Description: "unknown severity"},
		},
		Recommendations: []string{"keep recommendations verbatim"},
	}

	s := Summarize(result)

	order := make([]string, len(s.Issues))
	for i, issue := range s.Issues {
		order[i] = issue.Description
	}
	want := []string{"crit", "high", "med", "first low", "second low", "unknown severity"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("issue order = %v, want %v", order, want)
		}
	}

	if s.IssueCounts["low"] != 2 || s.IssueCounts["critical"] != 1 || s.IssueCounts["unknown"] != 1 {
		t.Errorf("issue counts = %v", s.IssueCounts)
	}
	if len(s.Recommendations) != 1 || s.Recommendations[0] != "keep recommendations verbatim" {
		t.Errorf("recommendations altered: %v", s.Recommendations)
	}
}

func TestDedupeTechnologiesKeepsHighestConfidence(t *testing.T) {
	techs := []models.Technology{
		{Name: "Go", Category: "language", Confidence: 0.6},
		{Name: "Postgres", Category: "database", Confidence: 0.8},
		{Name: "go", Category: "language", Confidence: 0.95},
		{Name: "postgres", Category: "database", Confidence: 0.4},
	}

	got := DedupeTechnologies(techs)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// First-seen order preserved, highest-confidence entry kept.
	if got[0].Confidence != 0.95 {
		t.Errorf("go confidence = %v, want 0.95", got[0].Confidence)
	}
	if got[1].Name != "Postgres" || got[1].Confidence != 0.8 {
		t.Errorf("second entry = %+v", got[1])
	}
}
