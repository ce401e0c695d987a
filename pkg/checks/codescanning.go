package checks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/advanced-security/policy-as-code/pkg/policy"
)

// CodeScanningService is the collaborator contract for code scanning:
// a feature probe and a materialized open-alert list. Pagination and
// PR-diff semantics are the implementation's responsibility.
type CodeScanningService interface {
	Enabled(ctx context.Context) (bool, error)
	Alerts(ctx context.Context) ([]Alert, error)
}

// CodeScanningChecker evaluates code scanning alerts against the
// policy's codescanning rules.
type CodeScanningChecker struct {
	Checker

	service CodeScanningService
	rules   []policy.CodeScanningPolicy

	// Now supplies the remediation clock; overridable in tests.
	Now func() time.Time
}

// NewCodeScanningChecker builds a checker for the given rules. A nil
// logger falls back to slog.Default.
func NewCodeScanningChecker(service CodeScanningService, rules []policy.CodeScanningPolicy, logger *slog.Logger) *CodeScanningChecker {
	return &CodeScanningChecker{
		Checker: newChecker("Code Scanning", logger),
		service: service,
		rules:   rules,
		Now:     time.Now,
	}
}

// Check fetches the open alerts once and evaluates them against every
// rule, accumulating decisions in the checker's state.
func (c *CodeScanningChecker) Check(ctx context.Context) (*PolicyState, error) {
	alerts, err := c.service.Alerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching code scanning alerts: %w", err)
	}
	c.logger.Info("checking code scanning alerts", "alerts", len(alerts), "rules", len(c.rules))

	for _, rule := range c.rules {
		if rule.Enabled && featureDisabled(ctx, c.service.Enabled, c.logger, "code scanning") {
			// Structural failure: no point evaluating alerts the
			// platform is not producing.
			c.state.Critical("Code Scanning is not enabled", TriggerEnabled)
			return c.state, nil
		}

		c.checkRequiredTools(alerts, rule)

		scoped := filterByTool(alerts, rule.Tools)

		engineRule := Rule{
			Technology:  policy.TechnologyCodeScanning,
			Severity:    rule.Severity,
			IDs:         append(append([]string{}, rule.IDs...), rule.CWEs...),
			IDsWarnings: rule.IDsWarnings,
			IDsIgnores:  rule.IDsIgnores,
			Names:       rule.Names,
			Remediate:   rule.Remediate,
		}
		if err := c.evaluateAlerts(scoped, engineRule, c.Now()); err != nil {
			return nil, err
		}
	}

	return c.state, nil
}

// checkRequiredTools warns when a tool the rule requires has produced
// no results at all.
func (c *CodeScanningChecker) checkRequiredTools(alerts []Alert, rule policy.CodeScanningPolicy) {
	for _, required := range rule.ToolsRequired {
		seen := false
		for _, alert := range alerts {
			if policy.MatchContent(alert.Tool, []string{required}) {
				seen = true
				break
			}
		}
		if !seen {
			c.state.Warning(fmt.Sprintf("Required tool has no results :: %s", required), TriggerEnabled)
		}
	}
}

// filterByTool restricts alerts to those produced by one of the listed
// tools. An empty list keeps everything.
func filterByTool(alerts []Alert, tools []string) []Alert {
	if len(tools) == 0 {
		return alerts
	}
	out := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		if policy.MatchContent(alert.Tool, tools) {
			out = append(out, alert)
		}
	}
	return out
}
