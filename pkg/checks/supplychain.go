package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/advanced-security/policy-as-code/pkg/policy"
)

// Dependency is the minimal view of a dependency-graph entry used for
// license checks. FullName is manager://name, PURL adds the version.
type Dependency struct {
	Name     string
	FullName string
	PURL     string
	License  string
}

// SupplyChainService is the collaborator contract for Dependabot and the
// dependency graph.
type SupplyChainService interface {
	Enabled(ctx context.Context) (bool, error)
	SecurityUpdatesEnabled(ctx context.Context) (bool, error)
	Alerts(ctx context.Context) ([]Alert, error)
	Dependencies(ctx context.Context) ([]Dependency, error)
}

// SupplyChainChecker evaluates Dependabot alerts and dependency licenses
// against the policy's supplychain rules.
type SupplyChainChecker struct {
	Checker

	service SupplyChainService
	rules   []policy.SupplyChainPolicy

	// Now supplies the remediation clock; overridable in tests.
	Now func() time.Time
}

// NewSupplyChainChecker builds a checker for the given rules.
func NewSupplyChainChecker(service SupplyChainService, rules []policy.SupplyChainPolicy, logger *slog.Logger) *SupplyChainChecker {
	return &SupplyChainChecker{
		Checker: newChecker("Supply Chain", logger),
		service: service,
		rules:   rules,
		Now:     time.Now,
	}
}

// Check fetches the open alerts once and evaluates them against every
// rule. Dependency licenses are only fetched when a rule asks for them.
func (c *SupplyChainChecker) Check(ctx context.Context) (*PolicyState, error) {
	alerts, err := c.service.Alerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching dependabot alerts: %w", err)
	}
	c.logger.Info("checking supply chain alerts", "alerts", len(alerts), "rules", len(c.rules))

	var dependencies []Dependency
	dependenciesLoaded := false

	for _, rule := range c.rules {
		if rule.Enabled && featureDisabled(ctx, c.service.Enabled, c.logger, "dependabot") {
			c.state.Critical("Dependabot is not enabled", TriggerEnabled)
			return c.state, nil
		}

		if rule.SecurityUpdatesRequired &&
			featureDisabled(ctx, c.service.SecurityUpdatesEnabled, c.logger, "dependabot security updates") {
			c.state.Error("Dependabot Security Updates is not enabled", TriggerEnabled)
		}

		engineRule := Rule{
			Technology:  policy.TechnologySupplyChain,
			Severity:    rule.Severity,
			IDs:         rule.IDs,
			IDsWarnings: rule.IDsWarnings,
			IDsIgnores:  rule.IDsIgnores,
			Names:       rule.Names,
			Remediate:   rule.Remediate,
		}
		if err := c.evaluateAlerts(alerts, engineRule, c.Now()); err != nil {
			return nil, err
		}

		if !rule.ChecksLicenses() {
			continue
		}
		if !dependenciesLoaded {
			dependencies, err = c.service.Dependencies(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching dependency graph: %w", err)
			}
			dependenciesLoaded = true
		}
		for _, dep := range dependencies {
			c.checkLicense(dep, rule)
		}
	}

	return c.state, nil
}

// checkLicense applies the rule's license lists to one dependency.
// Ignores beat warnings beat violations; the dependency is matched by
// license identifier and by name/PURL so either can be listed.
func (c *SupplyChainChecker) checkLicense(dep Dependency, rule policy.SupplyChainPolicy) {
	values := []string{dep.License, dep.PURL, dep.FullName, dep.Name}

	for _, value := range values {
		if policy.MatchContent(value, rule.LicensesIgnores) {
			c.state.Ignore(licenseMessage(dep), TriggerLicense)
			return
		}
	}
	for _, value := range values {
		if policy.MatchContent(value, rule.LicensesWarnings) {
			c.state.Warning(licenseMessage(dep), TriggerLicense)
			return
		}
	}
	for _, value := range values {
		if policy.MatchContent(value, rule.Licenses) {
			c.state.Error(licenseMessage(dep), TriggerLicense)
			return
		}
	}

	if rule.LicensesUnknown && strings.TrimSpace(dep.License) == "" {
		c.state.Warning(fmt.Sprintf("Unknown license :: %s", dep.FullName), TriggerLicense)
	}
}

func licenseMessage(dep Dependency) string {
	license := dep.License
	if license == "" {
		license = "None"
	}
	return fmt.Sprintf("%s = %s", dep.FullName, license)
}
