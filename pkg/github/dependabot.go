package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/advanced-security/policy-as-code/pkg/checks"
)

// dependabotAlert is the wire format of a Dependabot alert, reduced to
// the fields the engine consumes.
type dependabotAlert struct {
	Number        int    `json:"number"`
	State         string `json:"state"`
	CreatedAt     string `json:"created_at"`
	DismissReason string `json:"dismissed_reason"`
	Dependency    struct {
		Package struct {
			Ecosystem string `json:"ecosystem"`
			Name      string `json:"name"`
		} `json:"package"`
		ManifestPath string `json:"manifest_path"`
	} `json:"dependency"`
	SecurityAdvisory struct {
		GHSAID   string `json:"ghsa_id"`
		CVEID    string `json:"cve_id"`
		Severity string `json:"severity"`
		CWEs     []struct {
			CWEID string `json:"cwe_id"`
		} `json:"cwes"`
	} `json:"security_advisory"`
}

// sbomDocument is the SPDX SBOM payload from the dependency graph API,
// reduced to name, license and PURL per package.
type sbomDocument struct {
	SBOM struct {
		Packages []struct {
			Name             string `json:"name"`
			VersionInfo      string `json:"versionInfo"`
			LicenseConcluded string `json:"licenseConcluded"`
			ExternalRefs     []struct {
				ReferenceType    string `json:"referenceType"`
				ReferenceLocator string `json:"referenceLocator"`
			} `json:"externalRefs"`
		} `json:"packages"`
	} `json:"sbom"`
}

// DependabotService fetches Dependabot alerts and the dependency graph.
// It implements checks.SupplyChainService.
type DependabotService struct {
	client *Client
}

// Dependabot returns the supply chain service for this repository.
func (c *Client) Dependabot() *DependabotService {
	return &DependabotService{client: c}
}

// Enabled probes the vulnerability-alerts setting: 204 means Dependabot
// alerts are enabled, 404 means they are not.
func (s *DependabotService) Enabled(ctx context.Context) (bool, error) {
	err := s.client.getJSON(ctx, s.client.repoPath("/vulnerability-alerts"), nil, nil)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SecurityUpdatesEnabled reads the repository's security_and_analysis
// settings block.
func (s *DependabotService) SecurityUpdatesEnabled(ctx context.Context) (bool, error) {
	var repo struct {
		SecurityAndAnalysis struct {
			DependabotSecurityUpdates struct {
				Status string `json:"status"`
			} `json:"dependabot_security_updates"`
		} `json:"security_and_analysis"`
	}
	if err := s.client.getJSON(ctx, s.client.repoPath(""), nil, &repo); err != nil {
		return false, err
	}
	return repo.SecurityAndAnalysis.DependabotSecurityUpdates.Status == "enabled", nil
}

// Alerts returns all open, undismissed Dependabot alerts adapted to the
// engine's view: GHSA, CVE and CWE ids as ids; the package fullname and
// versionless PURL as names.
func (s *DependabotService) Alerts(ctx context.Context) ([]checks.Alert, error) {
	params := url.Values{"state": {"open"}}
	raw, err := listAll[dependabotAlert](ctx, s.client, s.client.repoPath("/dependabot/alerts"), params)
	if err != nil {
		return nil, err
	}

	alerts := make([]checks.Alert, 0, len(raw))
	for _, alert := range raw {
		if alert.DismissReason != "" {
			continue
		}

		ids := []string{strings.ToLower(alert.SecurityAdvisory.GHSAID)}
		if alert.SecurityAdvisory.CVEID != "" {
			ids = append(ids, strings.ToLower(alert.SecurityAdvisory.CVEID))
		}
		for _, cwe := range alert.SecurityAdvisory.CWEs {
			ids = append(ids, strings.ToLower(cwe.CWEID))
		}

		ecosystem := alert.Dependency.Package.Ecosystem
		name := alert.Dependency.Package.Name
		names := []string{
			name,
			fmt.Sprintf("%s://%s", ecosystem, name),
		}

		alerts = append(alerts, checks.Alert{
			Severity:  alert.SecurityAdvisory.Severity,
			IDs:       ids,
			Names:     names,
			CreatedAt: parseTime(alert.CreatedAt),
		})
	}
	return alerts, nil
}

// Dependencies returns the dependency graph as license-check entries,
// sourced from the SPDX SBOM export.
func (s *DependabotService) Dependencies(ctx context.Context) ([]checks.Dependency, error) {
	var doc sbomDocument
	if err := s.client.getJSON(ctx, s.client.repoPath("/dependency-graph/sbom"), nil, &doc); err != nil {
		return nil, err
	}

	deps := make([]checks.Dependency, 0, len(doc.SBOM.Packages))
	for _, pkg := range doc.SBOM.Packages {
		purl := ""
		for _, ref := range pkg.ExternalRefs {
			if ref.ReferenceType == "purl" {
				purl = ref.ReferenceLocator
				break
			}
		}

		license := pkg.LicenseConcluded
		if license == "NOASSERTION" || license == "NONE" {
			license = ""
		}

		deps = append(deps, checks.Dependency{
			Name:     pkg.Name,
			FullName: purlToFullName(purl, pkg.Name),
			PURL:     purl,
			License:  license,
		})
	}
	return deps, nil
}

// purlToFullName converts pkg:npm/lodash@4.17.21 into npm://lodash,
// the manager://name form policies match against. Falls back to the
// bare package name when there is no PURL.
func purlToFullName(purl, fallback string) string {
	if !strings.HasPrefix(purl, "pkg:") {
		return fallback
	}
	rest := strings.TrimPrefix(purl, "pkg:")
	rest, _, _ = strings.Cut(rest, "@")
	manager, name, ok := strings.Cut(rest, "/")
	if !ok {
		return fallback
	}
	return manager + "://" + name
}
