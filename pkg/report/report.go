// Package report assembles the consolidated markdown report an analysis run
// uploads to the threat model.
//
// A report has five sections separated by horizontal rules: a header naming
// the threat model, an executive summary, one section per analyzed
// repository, consolidated findings, and a generated-by footer. The
// per-repository bodies come straight from the language model; everything
// around them is assembled here.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/threatmap/threatmap/pkg/errors"
)

// sectionRule separates top-level report sections.
const sectionRule = "\n\n---\n\n"

// RepoAnalysis is one repository's analysis result as it appears in the
// report. Content carries the model's markdown for successful runs and a
// failure notice for failed ones.
type RepoAnalysis struct {
	RepoName string
	RepoURL  string
	Content  string
	Success  bool
}

// Failed builds the report entry for a repository whose analysis did not
// finish. The notice carries the user-facing message; the full error chain
// belongs in the run's log, not the published report.
func Failed(name, url string, err error) RepoAnalysis {
	return RepoAnalysis{
		RepoName: name,
		RepoURL:  url,
		Content:  fmt.Sprintf("**Analysis Failed**: %s", errors.UserMessage(err)),
	}
}

// Builder generates consolidated reports. The zero value is usable; Engine
// and Version name the model and tool build in the footer when set.
type Builder struct {
	Engine  string
	Version string
}

// Generate renders the full report for a threat model.
func (b *Builder) Generate(tmName, tmID string, analyses []RepoAnalysis) string {
	log.Debug("Generating markdown report", "repositories", len(analyses))

	sections := []string{
		b.header(tmName, tmID, analyses),
		executiveSummary(analyses),
	}
	if len(analyses) > 0 {
		sections = append(sections, repositorySections(analyses))
	}
	sections = append(sections, consolidatedFindings(analyses), b.footer())

	return strings.Join(sections, sectionRule)
}

func (b *Builder) header(tmName, tmID string, analyses []RepoAnalysis) string {
	successful := countSuccessful(analyses)
	failed := len(analyses) - successful

	var buf strings.Builder
	buf.WriteString("# Terraform Infrastructure Analysis\n\n")
	fmt.Fprintf(&buf, "**Threat Model**: %s\n", tmName)
	fmt.Fprintf(&buf, "**Threat Model ID**: `%s`\n", tmID)
	fmt.Fprintf(&buf, "**Generated**: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&buf, "**Repositories Analyzed**: %d (%d successful, %d failed)\n\n",
		len(analyses), successful, failed)
	buf.WriteString("This report provides an automated analysis of Terraform infrastructure code associated with this threat model. The analysis identifies infrastructure components, relationships, data flows, and potential security considerations.")
	return buf.String()
}

func executiveSummary(analyses []RepoAnalysis) string {
	var failedNames []string
	for _, a := range analyses {
		if !a.Success {
			failedNames = append(failedNames, a.RepoName)
		}
	}
	successful := len(analyses) - len(failedNames)

	parts := []string{"## Executive Summary"}

	if successful > 0 {
		parts = append(parts, fmt.Sprintf(
			"Successfully analyzed %d %s containing Terraform infrastructure code. Each repository has been examined to identify cloud resources, component relationships, data flows, and potential security concerns.",
			successful, pluralRepo(successful)))
	}

	if len(failedNames) > 0 {
		parts = append(parts, fmt.Sprintf("⚠️ **Warning**: %d %s failed analysis: %s",
			len(failedNames), pluralRepo(len(failedNames)), strings.Join(failedNames, ", ")))
	}

	parts = append(parts, "The detailed analysis for each repository is provided below, followed by consolidated findings and recommendations for threat modeling focus areas.")

	return strings.Join(parts, "\n\n")
}

func repositorySections(analyses []RepoAnalysis) string {
	sections := make([]string, 0, len(analyses))

	for i, a := range analyses {
		status, verdict := "✅", "Analysis Successful"
		if !a.Success {
			status, verdict = "❌", "Analysis Failed"
		}

		var buf strings.Builder
		fmt.Fprintf(&buf, "## Repository %d: %s %s\n\n", i+1, a.RepoName, status)
		fmt.Fprintf(&buf, "**URL**: [%s](%s)\n", a.RepoURL, a.RepoURL)
		fmt.Fprintf(&buf, "**Status**: %s\n\n", verdict)
		buf.WriteString(a.Content)
		sections = append(sections, buf.String())
	}

	return strings.Join(sections, sectionRule)
}

const findingsBody = `### Threat Modeling Recommendations

Based on the analyzed infrastructure, consider focusing threat modeling efforts on:

1. **Authentication & Authorization**: Review access controls, IAM policies, and service-to-service authentication mechanisms
2. **Data Protection**: Examine data at rest and in transit, encryption configurations, and data flow paths
3. **Network Security**: Analyze network segmentation, firewall rules, security groups, and exposure to public networks
4. **Secrets Management**: Verify proper handling of credentials, API keys, and sensitive configuration
5. **Logging & Monitoring**: Ensure adequate logging, monitoring, and alerting for security events
6. **Compliance & Configuration**: Check for compliance with security standards and best practice configurations

### Next Steps

1. Review the detailed findings for each repository above
2. Identify high-risk components and data flows
3. Inspect the generated data-flow diagram for critical infrastructure components
4. Document identified threats in the threat model
5. Prioritize remediation based on risk assessment
6. Update security controls and verify effectiveness

### Additional Resources

- Cross-reference with your organization's security policies and compliance requirements
- Consider running automated security scanning tools (e.g., tfsec, checkov) for additional validation`

func consolidatedFindings(analyses []RepoAnalysis) string {
	successful := countSuccessful(analyses)
	if successful == 0 {
		return "## Consolidated Findings\n\nNo successful analyses to consolidate."
	}

	var buf strings.Builder
	buf.WriteString("## Consolidated Findings\n\n")
	fmt.Fprintf(&buf, "This section provides a high-level view across all %d analyzed %s.\n\n",
		successful, pluralRepo(successful))
	buf.WriteString(findingsBody)
	return buf.String()
}

func (b *Builder) footer() string {
	engine := b.Engine
	if engine == "" {
		engine = "unknown"
	}
	version := b.Version
	if version == "" {
		version = "dev"
	}

	var buf strings.Builder
	buf.WriteString("**Report Generated By**: threatmap\n")
	fmt.Fprintf(&buf, "**Analysis Engine**: %s\n", engine)
	fmt.Fprintf(&buf, "**Tool Version**: %s\n\n", version)
	buf.WriteString("*This is an automated analysis. Please review findings with your security and infrastructure teams for validation and prioritization.*")
	return buf.String()
}

func countSuccessful(analyses []RepoAnalysis) int {
	n := 0
	for _, a := range analyses {
		if a.Success {
			n++
		}
	}
	return n
}

func pluralRepo(n int) string {
	if n == 1 {
		return "repository"
	}
	return "repositories"
}

// WriteFile saves a rendered report to path.
func WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}
	log.Info("Report saved", "path", path)
	return nil
}
