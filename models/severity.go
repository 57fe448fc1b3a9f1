package models

// SeverityLevel represents the severity of an analysis issue.
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "critical"
	SeverityHigh     SeverityLevel = "high"
	SeverityMedium   SeverityLevel = "medium"
	SeverityLow      SeverityLevel = "low"
	SeverityUnknown  SeverityLevel = "unknown"
)

// Weight returns a numeric weight for ordering (higher = more severe).
func (s SeverityLevel) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s SeverityLevel) String() string {
	return string(s)
}

// MapSeverity normalises free-form severity strings from the AI response.
func MapSeverity(raw string) SeverityLevel {
	switch raw {
	case "critical", "CRITICAL":
		return SeverityCritical
	case "high", "HIGH", "error", "ERROR":
		return SeverityHigh
	case "medium", "MEDIUM", "moderate", "warning", "WARNING":
		return SeverityMedium
	case "low", "LOW", "info", "INFO":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}
