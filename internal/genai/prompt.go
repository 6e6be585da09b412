package genai

import (
	"fmt"
	"strings"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

const systemPrompt = `You are a B2B market research assistant for a regional business directory. You generate plausible prospective company profiles matching a search brief. Respond only with valid JSON matching the requested schema. Do not invent companies from the exclusion list.`

const candidateSchema = `{
  "companies": [
    {
      "company_name": "<string, required>",
      "sector": "<string, required>",
      "location": "<string>",
      "employee_count": <integer>,
      "estimated_revenue": <number, annual EUR>,
      "contact_name": "<string>",
      "contact_email": "<string>",
      "contact_phone": "<string>",
      "suitability_score": <integer 0-100>,
      "reasoning": "<one sentence explaining the score>",
      "website": "<string>",
      "description": "<string>"
    }
  ]
}`

// BuildPrompt renders the system and user prompts for one generation brief.
// The exclusion list is expected to be pre-capped by the caller; it goes
// into the user prompt so the cached system block stays stable.
func BuildPrompt(criteria model.GenerationCriteria, excludeNames []string) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate exactly %d candidate companies matching this brief:\n", criteria.Quantity)
	fmt.Fprintf(&b, "- Sector: %s\n", criteria.Sector)
	fmt.Fprintf(&b, "- Location: %s\n", criteria.Location)
	if criteria.CompanySizeBand != "" {
		fmt.Fprintf(&b, "- Company size: %s employees\n", criteria.CompanySizeBand)
	}
	if criteria.Keywords != "" {
		fmt.Fprintf(&b, "- Keywords: %s\n", criteria.Keywords)
	}
	if f := criteria.Filters; f != nil {
		if f.MinRevenue != nil {
			fmt.Fprintf(&b, "- Minimum annual revenue: %.0f EUR\n", *f.MinRevenue)
		}
		if f.MaxRevenue != nil {
			fmt.Fprintf(&b, "- Maximum annual revenue: %.0f EUR\n", *f.MaxRevenue)
		}
		if f.FoundedAfter > 0 {
			fmt.Fprintf(&b, "- Founded after: %d\n", f.FoundedAfter)
		}
		if len(f.TechTags) > 0 {
			fmt.Fprintf(&b, "- Technology: %s\n", strings.Join(f.TechTags, ", "))
		}
	}

	if len(excludeNames) > 0 {
		b.WriteString("\nDo NOT include any of these companies (already in our database):\n")
		for _, name := range excludeNames {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}

	b.WriteString("\nAssign each company a suitability_score from 0 to 100 for this brief, with a one-sentence reasoning.\n")
	b.WriteString("Return a JSON object with this schema:\n")
	b.WriteString(candidateSchema)

	return systemPrompt, b.String()
}
