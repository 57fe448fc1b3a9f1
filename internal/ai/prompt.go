package ai

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert software engineer producing code quality and security assessments."

// buildPrompt renders the analysis request. The required response shape
// matches models.AnalysisResult; anything else is rejected downstream.
func buildPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `Analyse the repository %q (hosted on %s, %d files sampled) and return a JSON object with exactly this shape:

{
  "summary": {
    "qualityScore": <0-100>,
    "securityScore": <0-100>,
    "maintainabilityScore": <0-100>
  },
  "issues": [
    {"type": "...", "severity": "critical|high|medium|low", "description": "...", "file": "...", "line": <int>, "suggestion": "..."}
  ],
  "recommendations": ["..."],
  "metrics": {
    "linesOfCode": <int>, "complexity": <float>, "testCoverage": <0-100>, "dependencies": <int>
  },
  "technologies": [
    {"name": "...", "category": "language|framework|tool|database", "version": "...", "confidence": <0.0-1.0>}
  ]
}

Respond ONLY with valid JSON, no markdown code blocks, no commentary.

Repository content:
`, req.RepoName, req.Provider, req.FileCount)

	for _, chunk := range req.Chunks {
		sb.WriteString("\n---\n")
		sb.WriteString(chunk)
	}
	return sb.String()
}
