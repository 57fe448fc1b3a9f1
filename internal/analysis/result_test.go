package analysis

import (
	"errors"
	"strings"
	"testing"
)

func TestParseResultAcceptsFencedJSON(t *testing.T) {
	for _, raw := range []string{
		validResponse,
		"```json\n" + validResponse + "\n```",
		"```\n" + validResponse + "\n```",
		"  \n" + validResponse + "\n  ",
	} {
		result, err := parseResult(raw)
		if err != nil {
			t.Errorf("parseResult rejected valid payload: %v", err)
			continue
		}
		if *result.Summary.SecurityScore != 74 {
			t.Errorf("securityScore = %v", *result.Summary.SecurityScore)
		}
	}
}

func TestParseResultRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "the repository looks fine to me"},
		{"missing quality score", strings.Replace(validResponse, `"qualityScore": 82, `, "", 1)},
		{"missing security score", strings.Replace(validResponse, `"securityScore": 74, `, "", 1)},
		{"score above range", strings.Replace(validResponse, `"qualityScore": 82`, `"qualityScore": 182`, 1)},
		{"negative score", strings.Replace(validResponse, `"qualityScore": 82`, `"qualityScore": -3`, 1)},
		{"confidence above one", strings.Replace(validResponse, `"confidence": 0.99`, `"confidence": 1.2`, 1)},
		{"negative lines of code", strings.Replace(validResponse, `"linesOfCode": 1200`, `"linesOfCode": -1`, 1)},
		{"coverage above range", strings.Replace(validResponse, `"testCoverage": 55`, `"testCoverage": 140`, 1)},
		{"issue without description", strings.Replace(validResponse, `"description": "long function"`, `"description": ""`, 1)},
		{"technology without name", strings.Replace(validResponse, `"name": "Go"`, `"name": ""`, 1)},
	}
	for _, tc := range cases {
		if _, err := parseResult(tc.raw); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("%s: expected ErrMalformedResponse, got %v", tc.name, err)
		}
	}
}

func TestStripFencesLeavesBareJSONAlone(t *testing.T) {
	if got := stripFences(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("stripFences mangled bare JSON: %q", got)
	}
	if got := stripFences("```json\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Errorf("stripFences = %q", got)
	}
}
