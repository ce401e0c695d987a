package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/advanced-security/policy-as-code/pkg/policy"
	"github.com/advanced-security/policy-as-code/pkg/severity"
)

// ErrInvalidArgument is returned for configuration misuse, such as a
// rule with no technology. It is fatal to that checker's run; callers
// log it and move on to the next technology.
var ErrInvalidArgument = errors.New("invalid argument")

// Alert is the minimal read-only view of a security alert the engine
// evaluates. The fetch collaborators adapt their wire formats into it.
type Alert struct {
	// Severity is the raw label reported by the platform.
	Severity string

	// IDs hold machine identifiers: rule id, GHSA id, CWE ids, secret type.
	IDs []string

	// Names hold human-readable identifiers: rule names, package
	// fullnames, versionless PURLs, secret display names.
	Names []string

	// Tool is the analysis tool that produced the alert, when known.
	Tool string

	// CreatedAt is the alert creation time; zero when unknown.
	CreatedAt time.Time
}

// describe returns the alert reference used in decision messages.
func (a Alert) describe() string {
	ref := ""
	switch {
	case len(a.Names) > 0:
		ref = a.Names[0]
	case len(a.IDs) > 0:
		ref = a.IDs[0]
	default:
		ref = "unknown alert"
	}
	if a.Severity != "" {
		return fmt.Sprintf("%s (%s)", ref, a.Severity)
	}
	return ref
}

// Rule is the technology-agnostic view of a policy rule the evaluator
// matches alerts against. Checkers build one per typed policy rule.
type Rule struct {
	Technology policy.Technology

	// Severity is the threshold; empty means no threshold, in which
	// case a remediation table alone governs the severity fallback.
	Severity severity.Severity

	IDs         []string
	IDsWarnings []string
	IDsIgnores  []string
	Names       []string

	Remediate policy.RemediationPolicy
}

// Evaluate applies one alert to one rule and returns the decision, if
// any. The precedence is fixed: ignore-by-id, warn-by-id, error-by-id,
// error-by-name, then the severity threshold (an "all" threshold matches
// every remaining alert; otherwise it is gated by the remediation grace
// period when a table is present). Ignores dominate: a rule may pair an
// "all" threshold with an ignore list and the listed alerts stay
// suppressed. An alert matching nothing passes silently (ok is false).
//
// Evaluate is pure: it performs no I/O, takes no logger and never
// mutates the rule, so the same inputs always yield the same decision.
// An unknown alert severity returns severity.ErrUnknown so the caller
// can log it; the alert is treated as never matching the threshold.
func Evaluate(alert Alert, rule Rule, now time.Time) (Decision, bool, error) {
	if rule.Technology == "" {
		return Decision{}, false, fmt.Errorf("%w: technology is empty", ErrInvalidArgument)
	}

	if policy.MatchAny(alert.IDs, rule.IDsIgnores) {
		return Decision{Kind: KindIgnored, Message: alert.describe(), Trigger: TriggerIDMatch}, true, nil
	}
	if policy.MatchAny(alert.IDs, rule.IDsWarnings) {
		return Decision{Kind: KindWarned, Message: alert.describe(), Trigger: TriggerIDMatch}, true, nil
	}
	if policy.MatchAny(alert.IDs, rule.IDs) {
		return Decision{Kind: KindErrored, Message: alert.describe(), Trigger: TriggerIDMatch}, true, nil
	}
	if policy.MatchAny(alert.Names, rule.Names) {
		return Decision{Kind: KindErrored, Message: alert.describe(), Trigger: TriggerNameMatch}, true, nil
	}

	// Every unlisted alert violates an "all" threshold, even when its
	// severity label is unknown.
	if rule.Severity == severity.All {
		return Decision{
			Kind:    KindErrored,
			Message: alert.describe(),
			Trigger: TriggerSeverityAll,
		}, true, nil
	}

	sev, err := severity.Normalize(alert.Severity)
	if err != nil {
		// Unknown labels never trip the threshold.
		return Decision{}, false, err
	}

	meets := severity.Contains(severity.AtOrAbove(rule.Severity), sev)

	if len(rule.Remediate) > 0 {
		elapsed := rule.Remediate.Elapsed(alert.CreatedAt, sev, now)
		if rule.Severity == "" || rule.Severity == severity.None {
			// No threshold: the remediation clock alone governs.
			if elapsed {
				return Decision{Kind: KindErrored, Message: alert.describe(), Trigger: TriggerRemediation}, true, nil
			}
			return Decision{}, false, nil
		}
		if meets && elapsed {
			return Decision{Kind: KindErrored, Message: alert.describe(), Trigger: TriggerSeverity}, true, nil
		}
		return Decision{}, false, nil
	}

	if meets {
		return Decision{Kind: KindErrored, Message: alert.describe(), Trigger: TriggerSeverity}, true, nil
	}
	return Decision{}, false, nil
}

// Checker carries the shared pieces of the per-technology checkers: a
// name, the accumulated state and an optional logger for recoverable
// input problems (the evaluator itself stays logger-free).
type Checker struct {
	name   string
	state  *PolicyState
	logger *slog.Logger
}

func newChecker(name string, logger *slog.Logger) Checker {
	return Checker{
		name:   name,
		state:  NewPolicyState(name),
		logger: orDefault(logger),
	}
}

// Name returns the checker's display name.
func (c *Checker) Name() string { return c.name }

// State returns the accumulator for this checker's current run.
func (c *Checker) State() *PolicyState { return c.state }

// Reset clears the accumulated state between independent runs.
func (c *Checker) Reset() { c.state.Reset() }

// evaluateAlerts runs the evaluator over a materialized alert list,
// recording decisions and logging unknown severities.
func (c *Checker) evaluateAlerts(alerts []Alert, rule Rule, now time.Time) error {
	for _, alert := range alerts {
		decision, ok, err := Evaluate(alert, rule, now)
		if err != nil {
			if errors.Is(err, severity.ErrUnknown) {
				c.logger.Warn("unknown alert severity, treating as non-matching",
					"checker", c.name, "severity", alert.Severity,
					"alert", strings.Join(alert.IDs, ","))
				continue
			}
			return err
		}
		if ok {
			c.state.Record(decision)
		}
	}
	return nil
}

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// featureDisabled reports whether a platform feature probe came back
// negative. Probe errors degrade to "enabled" so a flaky settings API
// cannot fail a run with a false critical.
func featureDisabled(ctx context.Context, probe func(context.Context) (bool, error), logger *slog.Logger, feature string) bool {
	enabled, err := probe(ctx)
	if err != nil {
		orDefault(logger).Warn("feature probe failed, assuming enabled",
			"feature", feature, "error", err)
		return false
	}
	return !enabled
}
