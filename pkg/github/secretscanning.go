package github

import (
	"context"
	"net/url"

	"github.com/advanced-security/policy-as-code/pkg/checks"
)

// secretAlert is the wire format of a secret scanning alert, reduced to
// the fields the engine consumes. The API reports no severity; every
// exposed secret is treated as critical.
type secretAlert struct {
	Number                int    `json:"number"`
	State                 string `json:"state"`
	CreatedAt             string `json:"created_at"`
	SecretType            string `json:"secret_type"`
	SecretTypeDisplayName string `json:"secret_type_display_name"`
}

// SecretScanningService fetches secret scanning alerts and reports
// feature enablement. It implements checks.SecretScanningService.
type SecretScanningService struct {
	client *Client
}

// SecretScanning returns the secret scanning service for this repository.
func (c *Client) SecretScanning() *SecretScanningService {
	return &SecretScanningService{client: c}
}

// securityAndAnalysis reads the repository settings block shared by the
// secret scanning probes.
func (s *SecretScanningService) securityAndAnalysis(ctx context.Context) (secretScanningSettings, error) {
	var repo struct {
		SecurityAndAnalysis secretScanningSettings `json:"security_and_analysis"`
	}
	if err := s.client.getJSON(ctx, s.client.repoPath(""), nil, &repo); err != nil {
		return secretScanningSettings{}, err
	}
	return repo.SecurityAndAnalysis, nil
}

type secretScanningSettings struct {
	SecretScanning struct {
		Status string `json:"status"`
	} `json:"secret_scanning"`
	SecretScanningPushProtection struct {
		Status string `json:"status"`
	} `json:"secret_scanning_push_protection"`
}

// Enabled reads the repository's secret scanning setting.
func (s *SecretScanningService) Enabled(ctx context.Context) (bool, error) {
	settings, err := s.securityAndAnalysis(ctx)
	if err != nil {
		return false, err
	}
	return settings.SecretScanning.Status == "enabled", nil
}

// PushProtectionEnabled reads the repository's push protection setting.
func (s *SecretScanningService) PushProtectionEnabled(ctx context.Context) (bool, error) {
	settings, err := s.securityAndAnalysis(ctx)
	if err != nil {
		return false, err
	}
	return settings.SecretScanningPushProtection.Status == "enabled", nil
}

// Alerts returns all open secret scanning alerts adapted to the
// engine's view: the secret type as id, the display name as name.
func (s *SecretScanningService) Alerts(ctx context.Context) ([]checks.Alert, error) {
	params := url.Values{"state": {"open"}}
	raw, err := listAll[secretAlert](ctx, s.client, s.client.repoPath("/secret-scanning/alerts"), params)
	if err != nil {
		return nil, err
	}

	alerts := make([]checks.Alert, 0, len(raw))
	for _, alert := range raw {
		alerts = append(alerts, checks.Alert{
			Severity:  "critical",
			IDs:       []string{alert.SecretType},
			Names:     []string{alert.SecretTypeDisplayName},
			CreatedAt: parseTime(alert.CreatedAt),
		})
	}
	return alerts, nil
}
