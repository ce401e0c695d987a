package checks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/advanced-security/policy-as-code/pkg/policy"
)

// SecretScanningService is the collaborator contract for secret scanning:
// feature probes and a materialized open-alert list.
type SecretScanningService interface {
	Enabled(ctx context.Context) (bool, error)
	PushProtectionEnabled(ctx context.Context) (bool, error)
	Alerts(ctx context.Context) ([]Alert, error)
}

// SecretScanningChecker evaluates secret scanning alerts against the
// policy's secretscanning rules. With the default rule every open
// secret is a violation (severity threshold "all").
type SecretScanningChecker struct {
	Checker

	service SecretScanningService
	rules   []policy.SecretScanningPolicy

	// Now supplies the remediation clock; overridable in tests.
	Now func() time.Time
}

// NewSecretScanningChecker builds a checker for the given rules.
func NewSecretScanningChecker(service SecretScanningService, rules []policy.SecretScanningPolicy, logger *slog.Logger) *SecretScanningChecker {
	return &SecretScanningChecker{
		Checker: newChecker("Secret Scanning", logger),
		service: service,
		rules:   rules,
		Now:     time.Now,
	}
}

// Check fetches the open alerts once and evaluates them against every rule.
func (c *SecretScanningChecker) Check(ctx context.Context) (*PolicyState, error) {
	alerts, err := c.service.Alerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching secret scanning alerts: %w", err)
	}
	c.logger.Info("checking secret scanning alerts", "alerts", len(alerts), "rules", len(c.rules))

	for _, rule := range c.rules {
		if rule.Enabled && featureDisabled(ctx, c.service.Enabled, c.logger, "secret scanning") {
			c.state.Critical("Secret Scanning is not enabled", TriggerEnabled)
			return c.state, nil
		}

		c.checkPushProtection(ctx, rule)

		engineRule := Rule{
			Technology:  policy.TechnologySecretScanning,
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
	}

	return c.state, nil
}

// checkPushProtection applies the rule-level push protection gates:
// required means a disabled feature is a violation, warning-only
// downgrades it to a warning.
func (c *SecretScanningChecker) checkPushProtection(ctx context.Context, rule policy.SecretScanningPolicy) {
	if !rule.PushProtectionRequired && !rule.PushProtectionWarningOnly {
		return
	}
	if !featureDisabled(ctx, c.service.PushProtectionEnabled, c.logger, "push protection") {
		return
	}

	msg := "Secret Scanning Push Protection is disabled"
	if rule.PushProtectionRequired {
		c.state.Error(msg, TriggerEnabled)
		return
	}
	c.state.Warning(msg, TriggerEnabled)
}
