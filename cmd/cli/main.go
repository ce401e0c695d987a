// Command policy-as-code evaluates a repository's GitHub security
// alerts against a declarative policy and fails the workflow when the
// risk threshold is breached.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/advanced-security/policy-as-code/pkg/checks"
	"github.com/advanced-security/policy-as-code/pkg/config"
	"github.com/advanced-security/policy-as-code/pkg/github"
	"github.com/advanced-security/policy-as-code/pkg/output"
	"github.com/advanced-security/policy-as-code/pkg/output/exitcode"
	"github.com/advanced-security/policy-as-code/pkg/policy"
	"github.com/advanced-security/policy-as-code/pkg/severity"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	cfg := &config.Config{}
	fs := flag.NewFlagSet("policy-as-code", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	logger := newLogger(cfg.Debug)
	slog.SetDefault(logger)

	if cfg.ShowVersion {
		fmt.Printf("policy-as-code %s\n", version)
		return
	}
	if cfg.ListLevels {
		for _, s := range severity.List() {
			fmt.Println(s)
		}
		return
	}

	manager := exitcode.New(exitcode.Action(cfg.Action))

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		manager.SetConfigError()
		exit(manager, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, manager, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			manager.SetInterrupted()
		}
		logger.Error("run failed", "error", err)
	}
	exit(manager, logger)
}

func run(ctx context.Context, cfg *config.Config, manager *exitcode.Manager, logger *slog.Logger) error {
	clientOpts := []github.Option{github.WithLogger(logger)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(cfg.BaseURL))
	}
	client, err := github.NewClient(cfg.Repository, cfg.Token, clientOpts...)
	if err != nil {
		manager.SetConfigError()
		return err
	}

	pol, err := loadPolicy(ctx, cfg, client, logger)
	if err != nil {
		manager.SetConfigError()
		return err
	}

	if cfg.AllChecksDisabled() {
		logger.Warn("all checks disabled, nothing to evaluate")
	}

	report := output.NewReport(client.Repository(), pol.Name)
	display := cfg.Display || pol.Display

	codeScanning := client.CodeScanning()
	if cfg.BaseRef != "" {
		logger.Info("diffing code scanning alerts against base", "base", cfg.BaseRef)
		codeScanning = codeScanning.WithRefs(cfg.Ref, cfg.BaseRef)
	}

	type check struct {
		name     string
		disabled bool
		run      func(context.Context) (*checks.PolicyState, error)
	}
	all := []check{
		{
			name:     "Code Scanning",
			disabled: cfg.DisableCodeScanning,
			run:      checks.NewCodeScanningChecker(codeScanning, pol.CodeScanningRules(), logger).Check,
		},
		{
			name:     "Supply Chain",
			disabled: cfg.DisableDependabot,
			run:      checks.NewSupplyChainChecker(client.Dependabot(), pol.SupplyChainRules(), logger).Check,
		},
		{
			name:     "Secret Scanning",
			disabled: cfg.DisableSecretScanning,
			run:      checks.NewSecretScanningChecker(client.SecretScanning(), pol.SecretScanningRules(), logger).Check,
		},
	}

	for _, c := range all {
		if c.disabled {
			logger.Info("check disabled, skipping", "check", c.name)
			continue
		}
		state, err := c.run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("check failed", "check", c.name, "error", err)
			report.AddError(c.name, err)
			manager.RecordFailure()
			continue
		}
		report.Add(c.name, state)
		manager.RecordViolations(state.TotalViolations())
	}

	console := output.NewConsoleReporter(os.Stdout, display)
	console.Report(report)

	if err := output.WriteJobSummary(report); err != nil {
		logger.Warn("could not write job summary", "error", err)
	}
	if path, err := output.WriteSnapshot(report, cfg.ResultsDir); err != nil {
		logger.Warn("could not write results snapshot", "error", err)
	} else {
		logger.Debug("results snapshot written", "path", path)
	}
	if cfg.PRComment {
		postComment(ctx, client, cfg.Ref, report, logger)
	}

	return nil
}

// loadPolicy resolves the policy for the run: a central policy repo
// when configured, a local file when given, the severity flag otherwise.
func loadPolicy(ctx context.Context, cfg *config.Config, client *github.Client, logger *slog.Logger) (*policy.Policy, error) {
	if cfg.PolicyRepo != "" {
		data, err := client.FetchFile(ctx, cfg.PolicyRepo, cfg.PolicyBranch, cfg.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("fetching remote policy: %w", err)
		}
		root, err := policy.Parse(data)
		if err != nil {
			return nil, err
		}
		pol := root.PolicyFor(cfg.Repository)
		logger.Info("policy loaded", "repo", cfg.PolicyRepo, "path", cfg.PolicyPath, "policy", pol.String())
		return pol, nil
	}

	if cfg.PolicyPath == "" {
		threshold, err := severity.Normalize(cfg.Severity)
		if err != nil {
			return nil, err
		}
		logger.Debug("using severity threshold policy", "severity", threshold)
		return policy.NewSeverityPolicy(threshold), nil
	}

	root, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}
	pol := root.PolicyFor(cfg.Repository)
	logger.Info("policy loaded", "path", cfg.PolicyPath, "policy", pol.String())
	return pol, nil
}

// postComment upserts the summary comment on the pull request when the
// ref is one; branch and tag runs skip silently.
func postComment(ctx context.Context, client *github.Client, ref string, report *output.Report, logger *slog.Logger) {
	number, ok := github.PullRequestNumber(ref)
	if !ok {
		logger.Debug("not a pull request ref, skipping comment", "ref", ref)
		return
	}
	body, err := output.RenderPRComment(report)
	if err != nil {
		logger.Warn("could not render comment", "error", err)
		return
	}
	if err := client.Comments().Upsert(ctx, number, output.CommentMarker, body); err != nil {
		logger.Warn("could not post comment", "pr", number, "error", err)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exit logs the outcome and terminates with the manager's code.
func exit(manager *exitcode.Manager, logger *slog.Logger) {
	code, reason := manager.ExitCode()
	if code == exitcode.Success {
		logger.Info(reason)
	} else {
		logger.Error(reason, "exit_code", int(code))
	}
	os.Exit(int(code))
}
