package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/advanced-security/policy-as-code/pkg/policy"
	"github.com/advanced-security/policy-as-code/pkg/severity"
)

type stubSupplyChain struct {
	enabled         bool
	securityUpdates bool
	alerts          []Alert
	dependencies    []Dependency

	dependencyCalls int
	dependenciesErr error
}

func (s *stubSupplyChain) Enabled(context.Context) (bool, error) { return s.enabled, nil }
func (s *stubSupplyChain) SecurityUpdatesEnabled(context.Context) (bool, error) {
	return s.securityUpdates, nil
}
func (s *stubSupplyChain) Alerts(context.Context) ([]Alert, error) { return s.alerts, nil }
func (s *stubSupplyChain) Dependencies(context.Context) ([]Dependency, error) {
	s.dependencyCalls++
	return s.dependencies, s.dependenciesErr
}

func TestSupplyChainCheck(t *testing.T) {
	service := &stubSupplyChain{
		enabled: true,
		alerts: []Alert{
			{Severity: "critical", IDs: []string{"ghsa-xxxx"}, Names: []string{"lodash"}},
			{Severity: "low", IDs: []string{"ghsa-yyyy"}, Names: []string{"leftpad"}},
		},
	}
	checker := NewSupplyChainChecker(service, []policy.SupplyChainPolicy{
		{Enabled: true, Severity: severity.High},
	}, nil)
	checker.Now = fixedNow

	state, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got := state.TotalViolations(); got != 1 {
		t.Errorf("TotalViolations() = %d, want 1", got)
	}
	if service.dependencyCalls != 0 {
		t.Error("dependency graph fetched without a license rule")
	}
}

func TestSupplyChainNotEnabled(t *testing.T) {
	service := &stubSupplyChain{enabled: false}
	checker := NewSupplyChainChecker(service, []policy.SupplyChainPolicy{
		{Enabled: true, Severity: severity.High},
	}, nil)

	state, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(state.Criticals) != 1 || state.Criticals[0].Message != "Dependabot is not enabled" {
		t.Fatalf("Criticals = %+v, want single enablement failure", state.Criticals)
	}
}

func TestSupplyChainSecurityUpdatesRequired(t *testing.T) {
	service := &stubSupplyChain{enabled: true, securityUpdates: false}
	checker := NewSupplyChainChecker(service, []policy.SupplyChainPolicy{
		{Enabled: true, Severity: severity.High, SecurityUpdatesRequired: true},
	}, nil)
	checker.Now = fixedNow

	state, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(state.Errors) != 1 || state.Errors[0].Message != "Dependabot Security Updates is not enabled" {
		t.Fatalf("Errors = %+v, want security updates violation", state.Errors)
	}
	if state.Errors[0].Trigger != TriggerEnabled {
		t.Errorf("trigger = %q, want %q", state.Errors[0].Trigger, TriggerEnabled)
	}
}

func TestSupplyChainLicenses(t *testing.T) {
	service := &stubSupplyChain{
		enabled: true,
		dependencies: []Dependency{
			{Name: "gpl-lib", FullName: "npm://gpl-lib", PURL: "pkg:npm/gpl-lib@1.0.0", License: "GPL-3.0"},
			{Name: "lgpl-lib", FullName: "npm://lgpl-lib", License: "LGPL-2.1"},
			{Name: "banned-by-name", FullName: "npm://banned-by-name", License: "MIT"},
			{Name: "mystery", FullName: "npm://mystery", License: ""},
			{Name: "fine", FullName: "npm://fine", License: "Apache-2.0"},
			{Name: "vendored", FullName: "npm://vendored", License: "GPL-2.0"},
		},
	}
	checker := NewSupplyChainChecker(service, []policy.SupplyChainPolicy{
		{
			Enabled:          true,
			Severity:         severity.None,
			Licenses:         []string{"GPL-*", "npm://banned-by-name"},
			LicensesWarnings: []string{"LGPL-*"},
			LicensesIgnores:  []string{"npm://vendored"},
			LicensesUnknown:  true,
		},
	}, nil)
	checker.Now = fixedNow

	state, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if got := len(state.Errors); got != 2 {
		t.Errorf("Errors = %d, want 2 (GPL license, banned name)", got)
	}
	// LGPL warning plus the unknown-license warning.
	if got := len(state.Warnings); got != 2 {
		t.Errorf("Warnings = %d, want 2", got)
	}
	if got := len(state.Ignored); got != 1 {
		t.Errorf("Ignored = %d, want 1", got)
	}
	if service.dependencyCalls != 1 {
		t.Errorf("dependency graph fetched %d times, want 1", service.dependencyCalls)
	}

	found := false
	for _, w := range state.Warnings {
		if w.Message == "Unknown license :: npm://mystery" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing unknown-license warning, got %+v", state.Warnings)
	}
}

func TestSupplyChainLicenseMessages(t *testing.T) {
	service := &stubSupplyChain{
		enabled: true,
		dependencies: []Dependency{
			{Name: "gpl-lib", FullName: "npm://gpl-lib", License: "GPL-3.0"},
		},
	}
	checker := NewSupplyChainChecker(service, []policy.SupplyChainPolicy{
		{Enabled: true, Severity: severity.None, Licenses: []string{"GPL-*"}},
	}, nil)
	checker.Now = fixedNow

	state, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(state.Errors) != 1 || state.Errors[0].Message != "npm://gpl-lib = GPL-3.0" {
		t.Fatalf("Errors = %+v, want license message", state.Errors)
	}
	if state.Errors[0].Trigger != TriggerLicense {
		t.Errorf("trigger = %q, want %q", state.Errors[0].Trigger, TriggerLicense)
	}
}

func TestSupplyChainDependencyFetchError(t *testing.T) {
	service := &stubSupplyChain{
		enabled:         true,
		dependenciesErr: errors.New("sbom unavailable"),
	}
	checker := NewSupplyChainChecker(service, []policy.SupplyChainPolicy{
		{Enabled: true, Severity: severity.None, Licenses: []string{"GPL-*"}},
	}, nil)
	checker.Now = fixedNow

	if _, err := checker.Check(context.Background()); err == nil {
		t.Fatal("Check() should surface the dependency fetch error")
	}
}
