package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/models"
)

// ErrMalformedResponse: the model's output could not be accepted as a
// complete analysis. Acceptance is all or nothing; no partial result is
// ever stored.
var ErrMalformedResponse = errors.New("malformed analysis response")

// parseResult validates raw model output into an AnalysisResult. Markdown
// code fences around the JSON are tolerated; everything else is strict:
// all three summary scores must be present and within 0-100, metrics must
// be non-negative and technology confidence must sit in [0,1].
func parseResult(raw string) (*models.AnalysisResult, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	var result models.AnalysisResult
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := validateResult(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}

func validateResult(r *models.AnalysisResult) error {
	scores := map[string]*float64{
		"qualityScore":         r.Summary.QualityScore,
		"securityScore":        r.Summary.SecurityScore,
		"maintainabilityScore": r.Summary.MaintainabilityScore,
	}
	for name, score := range scores {
		if score == nil {
			return fmt.Errorf("missing required field summary.%s", name)
		}
		if *score < 0 || *score > 100 {
			return fmt.Errorf("summary.%s %v outside 0-100", name, *score)
		}
	}

	for i, issue := range r.Issues {
		if issue.Description == "" {
			return fmt.Errorf("issue %d has no description", i)
		}
	}

	m := r.Metrics
	if m.LinesOfCode < 0 || m.Complexity < 0 || m.TestCoverage < 0 || m.Dependencies < 0 {
		return fmt.Errorf("negative metric value")
	}
	if m.TestCoverage > 100 {
		return fmt.Errorf("metrics.testCoverage %v outside 0-100", m.TestCoverage)
	}

	for i, tech := range r.Technologies {
		if tech.Name == "" {
			return fmt.Errorf("technology %d has no name", i)
		}
		if tech.Confidence < 0 || tech.Confidence > 1 {
			return fmt.Errorf("technology %q confidence %v outside 0-1", tech.Name, tech.Confidence)
		}
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, leaving bare JSON.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		first := strings.TrimSpace(s[:nl])
		// "```json" style language tag on the opening fence
		if first == "" || !strings.ContainsAny(first, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
