package llm

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/threatmap/threatmap/pkg/source/git"
)

const (
	// docTruncateLimit bounds how much of each documentation file goes
	// into the analysis prompt.
	docTruncateLimit = 2000

	// tokenWarnThreshold triggers a warning when the estimated input
	// size approaches typical context limits.
	tokenWarnThreshold = 150_000
)

const analysisSystemPrompt = `You are an expert infrastructure security analyst specializing in Terraform and cloud architecture.

Your task is to analyze Terraform (.tf) files to:
1. Identify all infrastructure components being provisioned
2. Map relationships and dependencies between components
3. Identify potential security concerns or misconfigurations
4. Create a clear inventory suitable for threat modeling

Provide your analysis in clear, structured markdown format.`

const analysisInstructions = `Please analyze these Terraform files and provide:

## Infrastructure Inventory
List all resources by type (compute, storage, network, databases, etc.)

## Component Relationships
How do components connect and depend on each other?

## Data Flows
How does data move between components?

## Security Observations
Potential security concerns or best practices violations

## Architecture Summary
High-level summary of what this infrastructure does`

// extractionPrompt asks for the structured component/flow records the
// diagram builder consumes. The type list and field names must stay in
// sync with pkg/dfd.
const extractionPrompt = `You convert infrastructure analysis reports into structured data-flow diagram records.

Respond with a single JSON object and nothing else - no narrative, no code fences. The object has exactly two keys:

{
  "components": [
    {
      "id": "unique-string",
      "name": "Display Name",
      "type": "one of the types below",
      "subtype": "optional free-text refinement",
      "parent_id": "optional id of the containing component"
    }
  ],
  "flows": [
    {
      "id": "unique-string",
      "source_id": "component id",
      "target_id": "component id",
      "name": "short label",
      "protocol": "optional, e.g. tcp or https",
      "port": 5432,
      "bidirectional": false
    }
  ]
}

Rules:
- "type" must be exactly one of: tenancy, container, network (boundaries that contain other components), gateway, compute, storage, actor (leaf nodes).
- "parent_id", when present, must reference a component in the same list and must not create a cycle.
- Every flow's "source_id" and "target_id" must match a component "id".
- Use boundary components (tenancy, container, network) to group resources that share an account, cluster, or VPC.
- Omit optional fields rather than sending null or empty strings.`

// BuildAnalysisRequest builds the repository analysis call: the security
// analyst system prompt plus the checkout's Terraform sources and docs.
func BuildAnalysisRequest(checkout *git.Checkout) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\nURL: %s\n\n", checkout.Name, checkout.URL)

	b.WriteString("Terraform Files:\n")
	if len(checkout.Files) == 0 {
		b.WriteString("(No Terraform files found)\n")
	}
	for _, f := range checkout.Files {
		fmt.Fprintf(&b, "### File: %s\n```hcl\n%s\n```\n\n", f.Path, f.Content)
	}

	if len(checkout.Docs) > 0 {
		b.WriteString("Documentation Files:\n")
		for _, f := range checkout.Docs {
			fmt.Fprintf(&b, "### %s\n%s\n\n", f.Path, truncate(f.Content, docTruncateLimit))
		}
	}

	b.WriteString(analysisInstructions)
	prompt := b.String()

	estimate := EstimateTokens(analysisSystemPrompt + prompt)
	log.Debug("Built analysis prompt", "repo", checkout.Name, "estimated_tokens", estimate)
	if estimate > tokenWarnThreshold {
		log.Warn("Analysis input may be too large for the model",
			"repo", checkout.Name, "estimated_tokens", estimate)
	}

	return Request{
		System:    analysisSystemPrompt,
		Prompt:    prompt,
		MaxTokens: DefaultMaxTokens,
	}
}

// BuildExtractionRequest builds the structured-extraction call over a
// finished analysis report.
func BuildExtractionRequest(analysis string) Request {
	return Request{
		Prompt: extractionPrompt + "\n\n# Infrastructure Analysis\n\n" + analysis,
		// Deterministic output for structured data. go-openai drops a
		// literal 0 from the request, so send the smallest positive value.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   DefaultMaxTokens,
	}
}

// EstimateTokens gives a rough token count (~4 characters per token).
func EstimateTokens(text string) int {
	return len(text) / 4
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
