package checks

import (
	"errors"
	"testing"
	"time"

	"github.com/advanced-security/policy-as-code/pkg/policy"
	"github.com/advanced-security/policy-as-code/pkg/severity"
)

var evalNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestEvaluatePrecedence(t *testing.T) {
	alert := Alert{
		Severity: "high",
		IDs:      []string{"js/sql-injection"},
		Names:    []string{"SQL Injection"},
	}

	tests := []struct {
		name        string
		rule        Rule
		wantKind    Kind
		wantTrigger string
		wantOK      bool
	}{
		{
			name: "ignore list dominates everything",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Severity:   severity.Low,
				IDs:        []string{"js/*"},
				IDsIgnores: []string{"js/sql-injection"},
			},
			wantKind:    KindIgnored,
			wantTrigger: TriggerIDMatch,
			wantOK:      true,
		},
		{
			name: "warn list beats error list",
			rule: Rule{
				Technology:  policy.TechnologyCodeScanning,
				IDs:         []string{"js/*"},
				IDsWarnings: []string{"js/sql-*"},
			},
			wantKind:    KindWarned,
			wantTrigger: TriggerIDMatch,
			wantOK:      true,
		},
		{
			name: "id match overrides lower threshold",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Severity:   severity.Critical,
				IDs:        []string{"js/sql-injection"},
			},
			wantKind:    KindErrored,
			wantTrigger: TriggerIDMatch,
			wantOK:      true,
		},
		{
			name: "name match",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Names:      []string{"sql *"},
			},
			wantKind:    KindErrored,
			wantTrigger: TriggerNameMatch,
			wantOK:      true,
		},
		{
			name: "ignore list beats all threshold",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Severity:   severity.All,
				IDsIgnores: []string{"js/sql-injection"},
			},
			wantKind:    KindIgnored,
			wantTrigger: TriggerIDMatch,
			wantOK:      true,
		},
		{
			name: "all threshold matches unlisted alerts",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Severity:   severity.All,
				IDsIgnores: []string{"js/other-rule"},
			},
			wantKind:    KindErrored,
			wantTrigger: TriggerSeverityAll,
			wantOK:      true,
		},
		{
			name: "severity threshold met",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Severity:   severity.High,
			},
			wantKind:    KindErrored,
			wantTrigger: TriggerSeverity,
			wantOK:      true,
		},
		{
			name: "severity threshold not met",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Severity:   severity.Critical,
			},
			wantOK: false,
		},
		{
			name: "none threshold never matches",
			rule: Rule{
				Technology: policy.TechnologyCodeScanning,
				Severity:   severity.None,
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, ok, err := Evaluate(alert, tt.rule, evalNow)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Evaluate() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if decision.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", decision.Kind, tt.wantKind)
			}
			if decision.Trigger != tt.wantTrigger {
				t.Errorf("Trigger = %q, want %q", decision.Trigger, tt.wantTrigger)
			}
		})
	}
}

func TestEvaluateRemediation(t *testing.T) {
	rule := Rule{
		Technology: policy.TechnologySupplyChain,
		Severity:   severity.High,
		Remediate:  policy.RemediationPolicy{severity.High: 7},
	}

	old := Alert{Severity: "high", IDs: []string{"GHSA-old"}, CreatedAt: evalNow.AddDate(0, 0, -30)}
	fresh := Alert{Severity: "high", IDs: []string{"GHSA-new"}, CreatedAt: evalNow.AddDate(0, 0, -2)}

	decision, ok, err := Evaluate(old, rule, evalNow)
	if err != nil || !ok {
		t.Fatalf("Evaluate(old) = %v, %v, %v; want violation", decision, ok, err)
	}
	if decision.Trigger != TriggerSeverity {
		t.Errorf("Trigger = %q, want %q", decision.Trigger, TriggerSeverity)
	}

	_, ok, err = Evaluate(fresh, rule, evalNow)
	if err != nil {
		t.Fatalf("Evaluate(fresh) error = %v", err)
	}
	if ok {
		t.Error("alert inside grace period should not match")
	}
}

func TestEvaluateRemediationWithoutThreshold(t *testing.T) {
	rule := Rule{
		Technology: policy.TechnologySupplyChain,
		Remediate:  policy.RemediationPolicy{severity.All: 7},
	}

	elapsed := Alert{Severity: "low", IDs: []string{"GHSA-1"}, CreatedAt: evalNow.AddDate(0, 0, -10)}
	decision, ok, err := Evaluate(elapsed, rule, evalNow)
	if err != nil || !ok {
		t.Fatalf("Evaluate() = %v, %v, %v; want violation", decision, ok, err)
	}
	if decision.Trigger != TriggerRemediation {
		t.Errorf("Trigger = %q, want %q", decision.Trigger, TriggerRemediation)
	}

	fresh := Alert{Severity: "low", IDs: []string{"GHSA-2"}, CreatedAt: evalNow.AddDate(0, 0, -1)}
	if _, ok, _ := Evaluate(fresh, rule, evalNow); ok {
		t.Error("alert inside grace period should not match")
	}
}

func TestEvaluateUnknownSeverity(t *testing.T) {
	alert := Alert{Severity: "catastrophic", IDs: []string{"x"}}
	rule := Rule{Technology: policy.TechnologyCodeScanning, Severity: severity.All}

	// An "all" threshold matches before normalization.
	if _, ok, err := Evaluate(alert, rule, evalNow); err != nil || !ok {
		t.Fatalf("severity-all should match unknown labels, got ok=%v err=%v", ok, err)
	}

	rule.Severity = severity.Low
	_, ok, err := Evaluate(alert, rule, evalNow)
	if ok {
		t.Error("unknown severity should never meet a threshold")
	}
	if !errors.Is(err, severity.ErrUnknown) {
		t.Errorf("error = %v, want severity.ErrUnknown", err)
	}
}

func TestEvaluateEmptyTechnology(t *testing.T) {
	_, _, err := Evaluate(Alert{Severity: "high"}, Rule{}, evalNow)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	alert := Alert{Severity: "high", IDs: []string{"GHSA-1"}, CreatedAt: evalNow.AddDate(0, 0, -10)}
	rule := Rule{
		Technology: policy.TechnologySupplyChain,
		Severity:   severity.High,
		Remediate:  policy.RemediationPolicy{severity.High: 7},
	}

	first, ok1, err1 := Evaluate(alert, rule, evalNow)
	second, ok2, err2 := Evaluate(alert, rule, evalNow)
	if ok1 != ok2 || err1 != nil || err2 != nil || first != second {
		t.Errorf("Evaluate not deterministic: (%v,%v,%v) vs (%v,%v,%v)",
			first, ok1, err1, second, ok2, err2)
	}
}

func TestAlertDescribe(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
		want  string
	}{
		{"name preferred", Alert{Severity: "high", IDs: []string{"id"}, Names: []string{"SQL Injection"}}, "SQL Injection (high)"},
		{"id fallback", Alert{Severity: "low", IDs: []string{"js/x"}}, "js/x (low)"},
		{"no severity", Alert{Names: []string{"thing"}}, "thing"},
		{"nothing known", Alert{}, "unknown alert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.alert.describe(); got != tt.want {
				t.Errorf("describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
