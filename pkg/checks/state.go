// Package checks implements the policy matching and violation evaluation
// engine: the per-alert decision algorithm, the per-technology checkers
// and the state accumulator feeding the pass/fail threshold.
package checks

// Kind classifies a decision recorded against one alert or rule.
type Kind string

const (
	// KindIgnored marks an alert suppressed by an ignore list.
	KindIgnored Kind = "ignored"
	// KindWarned marks an alert that warns without failing the run.
	KindWarned Kind = "warned"
	// KindErrored marks a violation counted toward the threshold.
	KindErrored Kind = "errored"
	// KindCritical marks a structural failure terminating a checker run.
	KindCritical Kind = "critical"
)

// Trigger labels describing which part of a rule produced a decision.
const (
	TriggerSeverity    = "severity"
	TriggerSeverityAll = "severity-all"
	TriggerIDMatch     = "id-match"
	TriggerNameMatch   = "name-match"
	TriggerLicense     = "license-match"
	TriggerEnabled     = "enabled"
	TriggerRemediation = "remediation"
	TriggerNA          = "na"
)

// Decision is the outcome of evaluating one alert (or one rule-level
// gate) against a policy rule.
type Decision struct {
	Kind    Kind
	Message string
	Trigger string
}

// PolicyState accumulates the decisions of one checker run. It is owned
// by exactly one checker and must not be shared across concurrent runs;
// organization-wide audits use one state per repository.
type PolicyState struct {
	Name string

	Criticals []Decision
	Errors    []Decision
	Warnings  []Decision
	Ignored   []Decision
}

// NewPolicyState creates an empty accumulator for a named checker run.
func NewPolicyState(name string) *PolicyState {
	return &PolicyState{Name: name}
}

// Record appends a decision to the bucket matching its kind.
func (s *PolicyState) Record(d Decision) {
	switch d.Kind {
	case KindCritical:
		s.Criticals = append(s.Criticals, d)
	case KindErrored:
		s.Errors = append(s.Errors, d)
	case KindWarned:
		s.Warnings = append(s.Warnings, d)
	case KindIgnored:
		s.Ignored = append(s.Ignored, d)
	}
}

// Critical records a structural failure.
func (s *PolicyState) Critical(msg, trigger string) {
	s.Record(Decision{Kind: KindCritical, Message: msg, Trigger: trigger})
}

// Error records a violation.
func (s *PolicyState) Error(msg, trigger string) {
	s.Record(Decision{Kind: KindErrored, Message: msg, Trigger: trigger})
}

// Warning records a non-blocking warning.
func (s *PolicyState) Warning(msg, trigger string) {
	s.Record(Decision{Kind: KindWarned, Message: msg, Trigger: trigger})
}

// Ignore records a suppressed alert.
func (s *PolicyState) Ignore(msg, trigger string) {
	s.Record(Decision{Kind: KindIgnored, Message: msg, Trigger: trigger})
}

// TotalViolations returns the count gating the build: criticals plus
// errors. Warnings and ignored alerts are intentionally excluded.
func (s *PolicyState) TotalViolations() int {
	return len(s.Criticals) + len(s.Errors)
}

// Reset clears all four buckets so the checker can be reused for the
// next repository in an audit loop.
func (s *PolicyState) Reset() {
	s.Criticals = nil
	s.Errors = nil
	s.Warnings = nil
	s.Ignored = nil
}
