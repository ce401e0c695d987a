package checks

import "testing"

func TestPolicyStateBuckets(t *testing.T) {
	state := NewPolicyState("Code Scanning")

	state.Critical("Code Scanning is not enabled", TriggerEnabled)
	state.Error("SQL Injection (high)", TriggerSeverity)
	state.Error("XSS (error)", TriggerIDMatch)
	state.Warning("Debug code (low)", TriggerIDMatch)
	state.Ignore("Test helper (note)", TriggerIDMatch)

	if got := len(state.Criticals); got != 1 {
		t.Errorf("Criticals = %d, want 1", got)
	}
	if got := len(state.Errors); got != 2 {
		t.Errorf("Errors = %d, want 2", got)
	}
	if got := len(state.Warnings); got != 1 {
		t.Errorf("Warnings = %d, want 1", got)
	}
	if got := len(state.Ignored); got != 1 {
		t.Errorf("Ignored = %d, want 1", got)
	}
}

func TestTotalViolationsExcludesWarnings(t *testing.T) {
	state := NewPolicyState("Supply Chain")

	state.Critical("Dependabot is not enabled", TriggerEnabled)
	state.Error("lodash (high)", TriggerSeverity)
	state.Warning("maybe-fine (low)", TriggerIDMatch)
	state.Ignore("dev-dep (low)", TriggerIDMatch)

	if got := state.TotalViolations(); got != 2 {
		t.Errorf("TotalViolations() = %d, want 2", got)
	}
}

func TestPolicyStateReset(t *testing.T) {
	state := NewPolicyState("Secret Scanning")
	state.Error("aws_access_key_id (critical)", TriggerSeverityAll)
	state.Warning("push protection", TriggerEnabled)

	state.Reset()

	if state.TotalViolations() != 0 {
		t.Errorf("TotalViolations() after Reset = %d, want 0", state.TotalViolations())
	}
	if len(state.Warnings) != 0 || len(state.Ignored) != 0 {
		t.Error("Reset() left non-empty buckets")
	}
	if state.Name != "Secret Scanning" {
		t.Errorf("Reset() cleared the name: %q", state.Name)
	}
}

func TestRecordUnknownKindDropped(t *testing.T) {
	state := NewPolicyState("x")
	state.Record(Decision{Kind: Kind("bogus"), Message: "m"})

	if state.TotalViolations() != 0 || len(state.Warnings) != 0 || len(state.Ignored) != 0 {
		t.Error("unknown kind should not be recorded anywhere")
	}
}
