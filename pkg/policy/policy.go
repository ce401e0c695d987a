// Package policy defines the declarative compliance policy evaluated
// against security alerts: per-technology rules, wildcard matching and
// the time-to-remediate clock.
package policy

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/advanced-security/policy-as-code/pkg/severity"
)

// Technology identifies a scanning technology a rule applies to.
type Technology string

const (
	// TechnologyCodeScanning covers code scanning (SAST) alerts.
	TechnologyCodeScanning Technology = "code-scanning"
	// TechnologySupplyChain covers Dependabot / dependency alerts.
	TechnologySupplyChain Technology = "supply-chain"
	// TechnologySecretScanning covers secret scanning alerts.
	TechnologySecretScanning Technology = "secret-scanning"
)

// ErrInvalidRule is returned when a rule fails construction-time validation.
var ErrInvalidRule = errors.New("invalid policy rule")

// CodeScanningPolicy is one declarative rule for code scanning alerts.
type CodeScanningPolicy struct {
	// Enabled requires the code scanning feature itself to be active.
	Enabled bool `yaml:"enabled"`

	// Severity is the threshold: alerts at or above it are violations.
	Severity severity.Severity `yaml:"severity"`

	// IDs, IDsWarnings and IDsIgnores are wildcard lists matched against
	// rule identifiers (e.g. py/sqli). Ignores beat warnings beat errors.
	IDs         []string `yaml:"ids"`
	IDsWarnings []string `yaml:"ids-warnings"`
	IDsIgnores  []string `yaml:"ids-ignores"`

	// Names are matched against human-readable rule names.
	Names []string `yaml:"names"`

	// CWEs are additional identifiers matched alongside IDs.
	CWEs []string `yaml:"cwes"`

	// Tools restricts which analysis tools the rule considers;
	// ToolsRequired lists tools that must have uploaded results.
	Tools         []string `yaml:"tools"`
	ToolsRequired []string `yaml:"tools-required"`

	// Remediate grants a per-severity grace period in days.
	Remediate RemediationPolicy `yaml:"remediate"`
}

// DefaultCodeScanningPolicy returns the rule applied when a policy file
// has no codescanning section.
func DefaultCodeScanningPolicy() CodeScanningPolicy {
	return CodeScanningPolicy{
		Enabled:  true,
		Severity: severity.Error,
	}
}

// SupplyChainPolicy is one declarative rule for Dependabot alerts.
type SupplyChainPolicy struct {
	Enabled bool `yaml:"enabled"`

	Severity severity.Severity `yaml:"severity"`

	// IDs match advisory identifiers (GHSA ids, CWE ids).
	IDs         []string `yaml:"ids"`
	IDsWarnings []string `yaml:"ids-warnings"`
	IDsIgnores  []string `yaml:"ids-ignores"`

	// Names match package fullnames and versionless PURLs
	// (org.apache.commons, maven://org.apache.commons).
	Names []string `yaml:"names"`

	// Licenses lists SPDX identifiers that are violations outright;
	// LicensesWarnings warn only, LicensesIgnores suppress.
	Licenses         []string `yaml:"licenses"`
	LicensesWarnings []string `yaml:"licenses-warnings"`
	LicensesIgnores  []string `yaml:"licenses-ignores"`

	// LicensesUnknown flags dependencies with no license metadata.
	LicensesUnknown bool `yaml:"licenses-unknown"`

	// SecurityUpdatesRequired requires Dependabot security updates
	// to be switched on for the repository.
	SecurityUpdatesRequired bool `yaml:"security-updates"`

	Remediate RemediationPolicy `yaml:"remediate"`
}

// ChecksLicenses reports whether the rule configures any license checks,
// so the dependency graph is only fetched when needed.
func (p *SupplyChainPolicy) ChecksLicenses() bool {
	return len(p.Licenses) > 0 || len(p.LicensesWarnings) > 0 ||
		len(p.LicensesIgnores) > 0 || p.LicensesUnknown
}

// DefaultSupplyChainPolicy returns the rule applied when a policy file
// has no supplychain section.
func DefaultSupplyChainPolicy() SupplyChainPolicy {
	return SupplyChainPolicy{
		Enabled:  true,
		Severity: severity.High,
	}
}

// SecretScanningPolicy is one declarative rule for secret scanning alerts.
type SecretScanningPolicy struct {
	Enabled bool `yaml:"enabled"`

	Severity severity.Severity `yaml:"severity"`

	// IDs match secret types (e.g. aws_access_key_id).
	IDs         []string `yaml:"ids"`
	IDsWarnings []string `yaml:"ids-warnings"`
	IDsIgnores  []string `yaml:"ids-ignores"`

	// Names match secret type display names.
	Names []string `yaml:"names"`

	// PushProtectionRequired requires push protection to be enabled;
	// PushProtectionWarningOnly downgrades that failure to a warning.
	PushProtectionRequired    bool `yaml:"push-protection"`
	PushProtectionWarningOnly bool `yaml:"push-protection-warning-only"`

	Remediate RemediationPolicy `yaml:"remediate"`
}

// DefaultSecretScanningPolicy returns the rule applied when a policy file
// has no secretscanning section. Every open secret is a violation.
func DefaultSecretScanningPolicy() SecretScanningPolicy {
	return SecretScanningPolicy{
		Enabled:  true,
		Severity: severity.All,
	}
}

// Policy is a named bundle of rules, zero or more per technology.
// Empty lists fall back to the technology's default rule.
type Policy struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name"`

	// Display includes individual alert details in the output log.
	Display bool `yaml:"display"`

	CodeScanning   []CodeScanningPolicy   `yaml:"codescanning"`
	SupplyChain    []SupplyChainPolicy    `yaml:"supplychain"`
	SecretScanning []SecretScanningPolicy `yaml:"secretscanning"`
}

// CodeScanningRules returns the code scanning rules, defaulting to a
// single default-constructed rule when the list is empty.
func (p *Policy) CodeScanningRules() []CodeScanningPolicy {
	if len(p.CodeScanning) == 0 {
		return []CodeScanningPolicy{DefaultCodeScanningPolicy()}
	}
	return p.CodeScanning
}

// SupplyChainRules returns the supply chain rules, defaulting to a
// single default-constructed rule when the list is empty.
func (p *Policy) SupplyChainRules() []SupplyChainPolicy {
	if len(p.SupplyChain) == 0 {
		return []SupplyChainPolicy{DefaultSupplyChainPolicy()}
	}
	return p.SupplyChain
}

// SecretScanningRules returns the secret scanning rules, defaulting to a
// single default-constructed rule when the list is empty.
func (p *Policy) SecretScanningRules() []SecretScanningPolicy {
	if len(p.SecretScanning) == 0 {
		return []SecretScanningPolicy{DefaultSecretScanningPolicy()}
	}
	return p.SecretScanning
}

// NewSeverityPolicy builds an ad-hoc policy applying one threshold to
// every technology, for runs configured by flag instead of a file.
func NewSeverityPolicy(threshold severity.Severity) *Policy {
	cs := DefaultCodeScanningPolicy()
	cs.Severity = threshold
	sc := DefaultSupplyChainPolicy()
	sc.Severity = threshold
	ss := DefaultSecretScanningPolicy()
	ss.Severity = threshold

	return &Policy{
		Version:        "3",
		CodeScanning:   []CodeScanningPolicy{cs},
		SupplyChain:    []SupplyChainPolicy{sc},
		SecretScanning: []SecretScanningPolicy{ss},
	}
}

// String returns a human-readable representation of the policy.
func (p *Policy) String() string {
	if p.Name != "" {
		return fmt.Sprintf("Policy(%s v%s)", p.Name, p.Version)
	}
	return fmt.Sprintf("Policy(v%s)", p.Version)
}

// Validate checks a policy bundle at construction time so misconfiguration
// fails the run before any alert is evaluated.
func (p *Policy) Validate() error {
	for i := range p.CodeScanning {
		if err := p.CodeScanning[i].Validate(); err != nil {
			return fmt.Errorf("codescanning[%d]: %w", i, err)
		}
	}
	for i := range p.SupplyChain {
		if err := p.SupplyChain[i].Validate(); err != nil {
			return fmt.Errorf("supplychain[%d]: %w", i, err)
		}
	}
	for i := range p.SecretScanning {
		if err := p.SecretScanning[i].Validate(); err != nil {
			return fmt.Errorf("secretscanning[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate normalizes the threshold and remediation table.
func (p *CodeScanningPolicy) Validate() error {
	sev, err := normalizeThreshold(p.Severity)
	if err != nil {
		return err
	}
	p.Severity = sev
	return p.Remediate.Validate()
}

// Validate normalizes the threshold and remediation table.
func (p *SupplyChainPolicy) Validate() error {
	sev, err := normalizeThreshold(p.Severity)
	if err != nil {
		return err
	}
	p.Severity = sev
	return p.Remediate.Validate()
}

// Validate normalizes the threshold and remediation table.
func (p *SecretScanningPolicy) Validate() error {
	sev, err := normalizeThreshold(p.Severity)
	if err != nil {
		return err
	}
	p.Severity = sev
	return p.Remediate.Validate()
}

func normalizeThreshold(threshold severity.Severity) (severity.Severity, error) {
	if threshold == "" {
		return "", nil
	}
	sev, err := severity.Normalize(string(threshold))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return sev, nil
}

// UnmarshalYAML applies defaults before decoding so an omitted field keeps
// its default rather than the zero value.
func (p *CodeScanningPolicy) UnmarshalYAML(value *yaml.Node) error {
	if err := checkFields(value, "enabled", "severity", "ids", "ids-warnings",
		"ids-ignores", "names", "cwes", "tools", "tools-required", "remediate"); err != nil {
		return err
	}
	type raw CodeScanningPolicy
	tmp := raw(DefaultCodeScanningPolicy())
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*p = CodeScanningPolicy(tmp)
	return nil
}

// UnmarshalYAML applies defaults before decoding.
func (p *SupplyChainPolicy) UnmarshalYAML(value *yaml.Node) error {
	if err := checkFields(value, "enabled", "severity", "ids", "ids-warnings",
		"ids-ignores", "names", "licenses", "licenses-warnings",
		"licenses-ignores", "licenses-unknown", "security-updates", "remediate"); err != nil {
		return err
	}
	type raw SupplyChainPolicy
	tmp := raw(DefaultSupplyChainPolicy())
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*p = SupplyChainPolicy(tmp)
	return nil
}

// UnmarshalYAML applies defaults before decoding.
func (p *SecretScanningPolicy) UnmarshalYAML(value *yaml.Node) error {
	if err := checkFields(value, "enabled", "severity", "ids", "ids-warnings",
		"ids-ignores", "names", "push-protection", "push-protection-warning-only",
		"remediate"); err != nil {
		return err
	}
	type raw SecretScanningPolicy
	tmp := raw(DefaultSecretScanningPolicy())
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*p = SecretScanningPolicy(tmp)
	return nil
}

// UnmarshalYAML accepts either a single mapping or a sequence for each
// technology section, mirroring the layered rule-set format. Unknown
// fields are rejected by the enclosing RootPolicy, which owns the node.
func (p *Policy) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		Version        string    `yaml:"version"`
		Name           string    `yaml:"name"`
		Display        bool      `yaml:"display"`
		CodeScanning   yaml.Node `yaml:"codescanning"`
		SupplyChain    yaml.Node `yaml:"supplychain"`
		SecretScanning yaml.Node `yaml:"secretscanning"`
	}
	var tmp raw
	if err := value.Decode(&tmp); err != nil {
		return err
	}

	p.Version = tmp.Version
	p.Name = tmp.Name
	p.Display = tmp.Display

	if err := decodeRuleList(&tmp.CodeScanning, &p.CodeScanning); err != nil {
		return fmt.Errorf("codescanning: %w", err)
	}
	if err := decodeRuleList(&tmp.SupplyChain, &p.SupplyChain); err != nil {
		return fmt.Errorf("supplychain: %w", err)
	}
	if err := decodeRuleList(&tmp.SecretScanning, &p.SecretScanning); err != nil {
		return fmt.Errorf("secretscanning: %w", err)
	}
	return nil
}

// decodeRuleList decodes a technology section that may be a single rule
// mapping or a sequence of rule mappings.
func decodeRuleList[T any](node *yaml.Node, out *[]T) error {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil
	}
	if node.Kind == yaml.SequenceNode {
		return node.Decode(out)
	}
	var single T
	if err := node.Decode(&single); err != nil {
		return err
	}
	*out = []T{single}
	return nil
}
