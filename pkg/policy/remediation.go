package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/advanced-security/policy-as-code/pkg/severity"
)

// RemediationPolicy maps a severity threshold to a grace period in days.
// An alert only becomes a violation once its grace period has elapsed.
// Keys may be concrete severities or threshold labels: a `high: 7` entry
// covers critical and high alerts unless a more direct entry exists.
type RemediationPolicy map[severity.Severity]int

// Validate checks every key against the taxonomy and rejects negative
// day counts. Alias spellings (`errors: 5`) are rewritten in place to
// their canonical labels so Elapsed and Covers find them; a table naming
// the same severity twice is ambiguous and rejected. A malformed table
// is a configuration error, fatal to the rule before any alert is
// evaluated.
func (r RemediationPolicy) Validate() error {
	normalized := make(map[severity.Severity]int, len(r))
	for key, days := range r {
		sev, err := severity.Normalize(string(key))
		if err != nil {
			return fmt.Errorf("%w: remediation key %v", ErrInvalidRule, err)
		}
		if days < 0 {
			return fmt.Errorf("%w: remediation period for %q is negative", ErrInvalidRule, sev)
		}
		if _, dup := normalized[sev]; dup {
			return fmt.Errorf("%w: duplicate remediation key %q", ErrInvalidRule, sev)
		}
		normalized[sev] = days
	}
	for key := range r {
		delete(r, key)
	}
	for sev, days := range normalized {
		r[sev] = days
	}
	return nil
}

// Elapsed reports whether the remediation grace period for an alert has
// run out. The deadline is the alert's creation date plus the configured
// day count; it elapses only when today is strictly after it, so a
// deadline falling on today has not yet elapsed.
//
// A direct entry for sev wins. Otherwise each key is expanded as a
// severity threshold (AtOrAbove) and the first expansion containing sev
// applies; keys are visited from the highest-ranked severity down, which
// makes the lookup deterministic where the historical engine depended on
// map order. An alert with no creation time never elapses.
func (r RemediationPolicy) Elapsed(createdAt time.Time, sev severity.Severity, now time.Time) bool {
	if len(r) == 0 || createdAt.IsZero() {
		return false
	}

	today := truncateToDate(now)

	if days, ok := r[sev]; ok {
		return today.After(deadline(createdAt, days))
	}

	for _, key := range r.sortedKeys() {
		if severity.Contains(severity.AtOrAbove(key), sev) {
			return today.After(deadline(createdAt, r[key]))
		}
	}

	// No remediation policy applies to this severity.
	return false
}

// Covers reports whether the table has any entry, direct or expanded,
// that applies to sev.
func (r RemediationPolicy) Covers(sev severity.Severity) bool {
	if _, ok := r[sev]; ok {
		return true
	}
	for key := range r {
		if severity.Contains(severity.AtOrAbove(key), sev) {
			return true
		}
	}
	return false
}

// sortedKeys returns the table's keys ordered by severity rank, highest
// risk first, with "all" sorted last so specific thresholds win.
func (r RemediationPolicy) sortedKeys() []severity.Severity {
	keys := make([]severity.Severity, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Rank() < keys[j].Rank()
	})
	return keys
}

func deadline(createdAt time.Time, days int) time.Time {
	return truncateToDate(createdAt).AddDate(0, 0, days)
}

// truncateToDate drops the time-of-day component, keeping the wall-clock
// date of the evaluating process.
func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
