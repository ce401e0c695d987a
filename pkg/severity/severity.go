// Package severity defines the ordered severity taxonomy used by policy
// thresholds and alert classification across all scanning technologies.
package severity

import (
	"errors"
	"fmt"
	"strings"
)

// Severity represents a severity label. All values are lowercase strings
// matching the labels GitHub emits for code scanning, Dependabot and
// secret scanning alerts.
type Severity string

const (
	// Critical represents the highest risk issues (exposed secrets, RCE).
	Critical Severity = "critical"

	// High represents significant impact requiring prompt fix.
	High Severity = "high"

	// Error represents code scanning error-level findings.
	Error Severity = "error"

	// Medium represents moderate impact issues.
	Medium Severity = "medium"

	// Moderate is the Dependabot spelling of medium.
	Moderate Severity = "moderate"

	// Low represents limited impact issues.
	Low Severity = "low"

	// Warning represents code scanning warning-level findings.
	Warning Severity = "warning"

	// Note represents informational findings.
	Note Severity = "note"

	// All is a pseudo-level: every severity matches.
	All Severity = "all"

	// None is a pseudo-level: no severity matches.
	None Severity = "none"
)

// ErrUnknown is returned when a label cannot be resolved against the taxonomy.
var ErrUnknown = errors.New("unknown severity")

// ordered is the canonical taxonomy in descending risk order. AtOrAbove
// returns prefixes of this list; the pseudo-levels all/none are not members.
var ordered = []Severity{Critical, High, Error, Medium, Moderate, Low, Warning, Note}

// aliases maps alternate spellings seen in policies and alert payloads
// to their canonical rank.
var aliases = map[string]Severity{
	"errors":   Error,
	"warnings": Warning,
	"notes":    Note,
}

// List returns the full canonical taxonomy, excluding the all/none
// pseudo-levels. The returned slice is a copy.
func List() []Severity {
	out := make([]Severity, len(ordered))
	copy(out, ordered)
	return out
}

// Normalize lower-cases and alias-resolves a label into the taxonomy.
// The pseudo-levels "all" and "none" are valid results. Returns ErrUnknown
// (wrapped with the label) when nothing matches; callers typically log and
// treat the label as never-matching rather than aborting.
func Normalize(label string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(label)))
	if s == All || s == None {
		return s, nil
	}
	if canonical, ok := aliases[string(s)]; ok {
		return canonical, nil
	}
	if s.IsValid() {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, label)
}

// IsValid reports whether s is a member of the ordered taxonomy.
// The all/none pseudo-levels are not members.
func (s Severity) IsValid() bool {
	for _, known := range ordered {
		if s == known {
			return true
		}
	}
	return false
}

// Rank returns the position of s in the canonical ordering, 0 being the
// highest risk. Pseudo-levels and unknown labels rank below everything.
func (s Severity) Rank() int {
	for i, known := range ordered {
		if s == known {
			return i
		}
	}
	return len(ordered)
}

// Score returns a numeric score for sorting and comparison, higher meaning
// more severe. Unknown labels score 0.
func (s Severity) Score() int {
	if !s.IsValid() {
		return 0
	}
	return len(ordered) - s.Rank()
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// AtOrAbove converts a threshold label into the concrete set of severities
// that violate it: the canonical list truncated to and including threshold.
// "all" yields the full list, "none" yields the empty set. An unknown
// threshold behaves as "none"; the caller is expected to warn (the silent
// fallback mirrors the established policy behaviour, see DESIGN.md).
func AtOrAbove(threshold Severity) []Severity {
	switch threshold {
	case None:
		return nil
	case All:
		return List()
	}
	for i, known := range ordered {
		if threshold == known {
			out := make([]Severity, i+1)
			copy(out, ordered[:i+1])
			return out
		}
	}
	return nil
}

// Contains reports whether sev is a member of set.
func Contains(set []Severity, sev Severity) bool {
	for _, s := range set {
		if s == sev {
			return true
		}
	}
	return false
}
