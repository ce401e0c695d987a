// Package output renders accumulated policy decisions: console logging,
// the job summary, pull request comments and the on-disk results
// snapshot. The engine's only contract toward it is the four-bucket
// PolicyState plus each decision's trigger label.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/advanced-security/policy-as-code/pkg/checks"
)

// CheckResult is the outcome of one checker run, or the error that
// prevented it. A failed checker still appears in the report so partial
// runs stay visible.
type CheckResult struct {
	Name  string              `json:"name"`
	State *checks.PolicyState `json:"state,omitempty"`
	Err   string              `json:"error,omitempty"`
}

// Violations returns the checker's gating count, zero for failed runs.
func (r CheckResult) Violations() int {
	if r.State == nil {
		return 0
	}
	return r.State.TotalViolations()
}

// Report aggregates one full compliance run across all technologies.
type Report struct {
	RunID      string    `json:"run_id"`
	Repository string    `json:"repository"`
	PolicyName string    `json:"policy_name,omitempty"`
	StartedAt  time.Time `json:"started_at"`

	Results []CheckResult `json:"results"`
}

// NewReport starts a report for one repository run.
func NewReport(repository, policyName string) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		Repository: repository,
		PolicyName: policyName,
		StartedAt:  time.Now(),
	}
}

// Add records a completed checker run.
func (r *Report) Add(name string, state *checks.PolicyState) {
	r.Results = append(r.Results, CheckResult{Name: name, State: state})
}

// AddError records a checker that could not run; its technology is
// reported as errored rather than silently absent.
func (r *Report) AddError(name string, err error) {
	result := CheckResult{Name: name}
	if err != nil {
		result.Err = err.Error()
	}
	r.Results = append(r.Results, result)
}

// TotalViolations sums the gating counts across all checkers.
func (r *Report) TotalViolations() int {
	total := 0
	for _, result := range r.Results {
		total += result.Violations()
	}
	return total
}

// Failed reports whether any checker could not complete.
func (r *Report) Failed() bool {
	for _, result := range r.Results {
		if result.Err != "" {
			return true
		}
	}
	return false
}
