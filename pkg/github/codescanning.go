package github

import (
	"context"
	"fmt"
	"net/url"

	"github.com/advanced-security/policy-as-code/pkg/checks"
)

// codeScanningAlert is the wire format of a code scanning alert,
// reduced to the fields the engine consumes.
type codeScanningAlert struct {
	Number    int    `json:"number"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	Rule      struct {
		ID                    string   `json:"id"`
		Name                  string   `json:"name"`
		Description           string   `json:"description"`
		Severity              string   `json:"severity"`
		SecuritySeverityLevel string   `json:"security_severity_level"`
		Tags                  []string `json:"tags"`
	} `json:"rule"`
	Tool struct {
		Name string `json:"name"`
	} `json:"tool"`
}

// CodeScanningService fetches code scanning alerts and reports feature
// enablement. It implements checks.CodeScanningService.
type CodeScanningService struct {
	client  *Client
	ref     string
	baseRef string
}

// CodeScanning returns the code scanning service for this repository.
func (c *Client) CodeScanning() *CodeScanningService {
	return &CodeScanningService{client: c}
}

// WithRefs scopes the alert listing to ref and, when baseRef is
// non-empty, diffs against it: alerts that also have an instance on the
// base branch predate the pull request and are dropped, so only the
// alerts the change introduced are evaluated.
func (s *CodeScanningService) WithRefs(ref, baseRef string) *CodeScanningService {
	return &CodeScanningService{client: s.client, ref: ref, baseRef: baseRef}
}

// Enabled probes the alerts endpoint: GitHub answers 404 when code
// scanning has never run for the repository.
func (s *CodeScanningService) Enabled(ctx context.Context) (bool, error) {
	params := url.Values{"per_page": {"1"}}
	err := s.client.getJSON(ctx, s.client.repoPath("/code-scanning/alerts"), params, nil)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Alerts returns the open code scanning alerts, adapted to the engine's
// view: the rule id plus CWE tags as ids, the rule name and description
// as names. A service scoped with WithRefs lists the pull request's ref
// and keeps only alerts absent from the base branch.
func (s *CodeScanningService) Alerts(ctx context.Context) ([]checks.Alert, error) {
	params := url.Values{"state": {"open"}}
	if s.ref != "" {
		params.Set("ref", s.ref)
	}
	raw, err := listAll[codeScanningAlert](ctx, s.client, s.client.repoPath("/code-scanning/alerts"), params)
	if err != nil {
		return nil, err
	}

	alerts := make([]checks.Alert, 0, len(raw))
	for _, alert := range raw {
		// Dismissed alerts come back with state filters in some GHES
		// versions; keep only open ones.
		if alert.State != "" && alert.State != "open" {
			continue
		}

		if s.baseRef != "" {
			preexisting, err := s.existsOnRef(ctx, alert.Number, s.baseRef)
			if err != nil {
				return nil, err
			}
			if preexisting {
				continue
			}
		}

		severity := alert.Rule.SecuritySeverityLevel
		if severity == "" {
			severity = alert.Rule.Severity
		}

		ids := []string{alert.Rule.ID}
		for _, tag := range alert.Rule.Tags {
			if cwe, ok := cweFromTag(tag); ok {
				ids = append(ids, cwe)
			}
		}

		names := []string{alert.Rule.Name}
		if alert.Rule.Description != "" && alert.Rule.Description != alert.Rule.Name {
			names = append(names, alert.Rule.Description)
		}

		alerts = append(alerts, checks.Alert{
			Severity:  severity,
			IDs:       ids,
			Names:     names,
			Tool:      alert.Tool.Name,
			CreatedAt: parseTime(alert.CreatedAt),
		})
	}
	return alerts, nil
}

// existsOnRef reports whether an alert has at least one instance on the
// given ref. One instance is enough to call it preexisting.
func (s *CodeScanningService) existsOnRef(ctx context.Context, number int, ref string) (bool, error) {
	params := url.Values{"ref": {ref}, "per_page": {"1"}}
	var instances []struct {
		Ref string `json:"ref"`
	}
	path := s.client.repoPath(fmt.Sprintf("/code-scanning/alerts/%d/instances", number))
	if err := s.client.getJSON(ctx, path, params, &instances); err != nil {
		return false, err
	}
	return len(instances) > 0, nil
}

// cweFromTag extracts a CWE identifier from a CodeQL rule tag such as
// "external/cwe/cwe-089".
func cweFromTag(tag string) (string, bool) {
	const prefix = "external/cwe/"
	if len(tag) > len(prefix) && tag[:len(prefix)] == prefix {
		return tag[len(prefix):], true
	}
	return "", false
}
