// Package exitcode provides semantic exit codes for CI/CD integration.
// Exit codes communicate the compliance outcome to the workflow runner.
//
// Exit codes:
//   - 0: Success (no unacceptable alerts)
//   - 1: Policy violations detected (suppressed by --action continue)
//   - 2: Check failed to complete
//   - 3: Invalid configuration or policy
//   - 5: Run interrupted
package exitcode

import (
	"fmt"
	"sync"
)

// Code represents a semantic exit code for CI/CD pipelines.
type Code int

const (
	// Success indicates the run completed with no unacceptable alerts.
	Success Code = 0
	// Violations indicates the policy threshold was breached.
	Violations Code = 1
	// CheckFailed indicates at least one checker could not complete.
	CheckFailed Code = 2
	// Configuration indicates an invalid configuration or policy file.
	Configuration Code = 3
	// Interrupted indicates the run was interrupted (e.g., SIGINT).
	Interrupted Code = 5
)

// Action controls whether violations fail the run.
type Action string

const (
	// ActionBreak fails the workflow when violations are found.
	ActionBreak Action = "break"
	// ActionContinue reports violations but exits successfully.
	ActionContinue Action = "continue"
)

// Valid reports whether the action is one of the supported values.
func (a Action) Valid() bool {
	return a == ActionBreak || a == ActionContinue
}

var codeStrings = map[Code]string{
	Success:       "success",
	Violations:    "violations_detected",
	CheckFailed:   "check_failed",
	Configuration: "invalid_configuration",
	Interrupted:   "run_interrupted",
}

var codeDescriptions = map[Code]string{
	Success:       "Run completed with no unacceptable alerts",
	Violations:    "One or more policy violations were detected",
	CheckFailed:   "A compliance check failed to complete",
	Configuration: "Invalid configuration or policy provided",
	Interrupted:   "Run was interrupted by user or signal",
}

// Manager tracks run outcomes and determines the appropriate exit code.
type Manager struct {
	action     Action
	violations int
	failures   int
	mu         sync.Mutex

	configError bool
	interrupted bool
}

// New creates an exit code manager. An empty action defaults to break.
func New(action Action) *Manager {
	if action == "" {
		action = ActionBreak
	}
	return &Manager{action: action}
}

// RecordViolations adds to the unacceptable alert count.
func (m *Manager) RecordViolations(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations += n
}

// RecordFailure marks that a checker could not complete.
func (m *Manager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// SetConfigError marks that a configuration or policy error occurred.
func (m *Manager) SetConfigError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configError = true
}

// SetInterrupted marks that the run was interrupted.
func (m *Manager) SetInterrupted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrupted = true
}

// ExitCode returns the appropriate exit code based on recorded
// outcomes. The returned string provides a human-readable reason.
//
// Priority order (highest to lowest):
//  1. Interrupted
//  2. Configuration error
//  3. Check failure
//  4. Violations (unless the action is continue)
//  5. Success
func (m *Manager) ExitCode() (Code, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interrupted {
		return Interrupted, codeDescriptions[Interrupted]
	}
	if m.configError {
		return Configuration, codeDescriptions[Configuration]
	}
	if m.failures > 0 {
		return CheckFailed, fmt.Sprintf("%s (failed checks: %d)",
			codeDescriptions[CheckFailed], m.failures)
	}
	if m.violations > 0 {
		if m.action == ActionContinue {
			return Success, fmt.Sprintf("%s (count: %d, action: continue)",
				codeDescriptions[Violations], m.violations)
		}
		return Violations, fmt.Sprintf("%s (count: %d)",
			codeDescriptions[Violations], m.violations)
	}

	return Success, codeDescriptions[Success]
}

// Stats returns the current violation and failure counts.
func (m *Manager) Stats() (violations, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.violations, m.failures
}

// Reset clears all recorded outcomes and state flags.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations = 0
	m.failures = 0
	m.configError = false
	m.interrupted = false
}

// CodeString returns the string representation of an exit code.
func CodeString(code Code) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown_code_%d", code)
}

// CodeDescription returns a detailed description of an exit code.
func CodeDescription(code Code) string {
	if s, ok := codeDescriptions[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown exit code: %d", code)
}
