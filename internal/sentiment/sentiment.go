// Package sentiment flags escalation-worthy user input with a cheap
// keyword gate. It is a fast-path hint for the agent loop, not a
// classifier: matches are advisory and never halt a turn.
package sentiment

import "strings"

// Severity grades how strongly a text matched the signal vocabulary.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// negativeSignals is the curated escalation-signal vocabulary. Matching
// is case-insensitive substring containment.
var negativeSignals = []string{
	"frustrated", "angry", "terrible", "horrible", "awful", "worst",
	"disappointed", "upset", "furious", "manager", "supervisor",
	"unacceptable", "ridiculous", "pathetic", "useless", "waste",
	"complaint", "sue", "lawyer", "refund now", "cancel everything",
}

// Result is the outcome of a sentiment check.
type Result struct {
	IsNegative bool
	Signals    []string
	Severity   Severity
}

// Detect scans text for negative-sentiment signals. Severity is high
// with two or more distinct matches, medium with exactly one, low with
// none (in which case IsNegative is false).
func Detect(text string) Result {
	lower := strings.ToLower(text)

	var matched []string
	for _, signal := range negativeSignals {
		if strings.Contains(lower, signal) {
			matched = append(matched, signal)
		}
	}

	severity := SeverityLow
	switch {
	case len(matched) >= 2:
		severity = SeverityHigh
	case len(matched) == 1:
		severity = SeverityMedium
	}

	return Result{
		IsNegative: len(matched) > 0,
		Signals:    matched,
		Severity:   severity,
	}
}
