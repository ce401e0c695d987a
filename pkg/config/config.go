// Package config holds the CLI configuration: flags, their Actions
// environment defaults and validation.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/advanced-security/policy-as-code/pkg/output/exitcode"
	"github.com/advanced-security/policy-as-code/pkg/severity"
)

// Config holds all CLI configuration options.
type Config struct {
	// Target settings
	Repository string // owner/name, defaults from GITHUB_REPOSITORY
	Token      string // API token, defaults from GITHUB_TOKEN
	BaseURL    string // API base URL, defaults from GITHUB_API_URL
	Ref        string // Git ref under evaluation, defaults from GITHUB_REF
	BaseRef    string // PR base branch, defaults from GITHUB_BASE_REF

	// Policy settings
	PolicyPath   string // Local policy file path
	PolicyRepo   string // owner/name of a central policy repository
	PolicyBranch string // Ref to fetch the remote policy from
	Severity     string // Threshold used when no policy file is given
	Action       string // break or continue

	// Check toggles
	DisableCodeScanning   bool
	DisableDependabot     bool
	DisableSecretScanning bool

	// Output settings
	Display     bool   // Print every decision, not just counts
	PRComment   bool   // Post the summary as a pull request comment
	ResultsDir  string // Snapshot directory (empty = .compliance)
	Debug       bool   // Verbose logging
	ListLevels  bool   // Print the severity taxonomy and exit
	ShowVersion bool   // Print the version and exit
}

// RegisterFlags binds the configuration to fs, seeding defaults from
// the Actions environment so the binary works unconfigured in a
// workflow step.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Repository, "repository", os.Getenv("GITHUB_REPOSITORY"), "Repository to check (owner/name)")
	fs.StringVar(&c.Token, "token", os.Getenv("GITHUB_TOKEN"), "GitHub API token")
	fs.StringVar(&c.BaseURL, "api-url", os.Getenv("GITHUB_API_URL"), "GitHub API base URL")
	fs.StringVar(&c.Ref, "ref", os.Getenv("GITHUB_REF"), "Git reference under evaluation")
	fs.StringVar(&c.BaseRef, "base-ref", os.Getenv("GITHUB_BASE_REF"), "Pull request base branch; restricts code scanning to newly introduced alerts")

	fs.StringVar(&c.PolicyPath, "policy-path", "", "Path to a policy YAML file")
	fs.StringVar(&c.PolicyRepo, "policy-repo", "", "Repository to fetch the policy from (owner/name)")
	fs.StringVar(&c.PolicyBranch, "policy-branch", "", "Branch of the policy repository")
	fs.StringVar(&c.Severity, "severity", "error", "Severity threshold when no policy file is given")
	fs.StringVar(&c.Action, "action", "break", "Behaviour on violations: break or continue")

	fs.BoolVar(&c.DisableCodeScanning, "disable-code-scanning", false, "Skip the code scanning check")
	fs.BoolVar(&c.DisableDependabot, "disable-dependabot", false, "Skip the supply chain check")
	fs.BoolVar(&c.DisableSecretScanning, "disable-secret-scanning", false, "Skip the secret scanning check")

	fs.BoolVar(&c.Display, "display", false, "Print every alert decision")
	fs.BoolVar(&c.PRComment, "pr-comment", false, "Post the summary as a PR comment")
	fs.StringVar(&c.ResultsDir, "results-dir", "", "Directory for result snapshots")
	fs.BoolVar(&c.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&c.ListLevels, "list-severities", false, "Print the severity taxonomy and exit")
	fs.BoolVar(&c.ShowVersion, "version", false, "Print the version and exit")
}

// Validate checks the configuration for a run. Informational modes
// (list-severities, version) skip validation at the call site.
func (c *Config) Validate() error {
	if c.Repository == "" {
		return fmt.Errorf("%w: repository (set -repository or GITHUB_REPOSITORY)", ErrMissingRequired)
	}
	if !strings.Contains(c.Repository, "/") {
		return fmt.Errorf("%w: repository must be owner/name, got %q", ErrInvalidConfig, c.Repository)
	}
	if c.Token == "" {
		return fmt.Errorf("%w: token (set -token or GITHUB_TOKEN)", ErrMissingRequired)
	}
	if !exitcode.Action(c.Action).Valid() {
		return fmt.Errorf("%w: action must be break or continue, got %q", ErrInvalidConfig, c.Action)
	}
	if c.PolicyRepo != "" {
		if !strings.Contains(c.PolicyRepo, "/") {
			return fmt.Errorf("%w: policy-repo must be owner/name, got %q", ErrInvalidConfig, c.PolicyRepo)
		}
		if c.PolicyPath == "" {
			return fmt.Errorf("%w: policy-path (required with policy-repo)", ErrMissingRequired)
		}
	}
	if c.PolicyPath == "" {
		if _, err := severity.Normalize(c.Severity); err != nil {
			return fmt.Errorf("%w: severity %q (known: %s)",
				ErrInvalidConfig, c.Severity, strings.Join(severityLabels(), ", "))
		}
	}
	return nil
}

// AllChecksDisabled reports whether every technology was toggled off.
func (c *Config) AllChecksDisabled() bool {
	return c.DisableCodeScanning && c.DisableDependabot && c.DisableSecretScanning
}

func severityLabels() []string {
	levels := severity.List()
	out := make([]string, 0, len(levels)+2)
	for _, s := range levels {
		out = append(out, string(s))
	}
	return append(out, string(severity.All), string(severity.None))
}
