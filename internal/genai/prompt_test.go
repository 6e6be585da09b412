package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	minRev := 500000.0
	criteria := model.GenerationCriteria{
		Sector:          model.SectorTechnology,
		Location:        "Barcelona",
		CompanySizeBand: "10-50",
		Quantity:        5,
		Keywords:        "saas, fintech",
		Filters: &model.AdvancedFilters{
			MinRevenue:   &minRev,
			FoundedAfter: 2015,
			TechTags:     []string{"go", "postgres"},
		},
	}

	system, user := BuildPrompt(criteria, []string{"Acme SL", "Nova Dades SL"})

	assert.Equal(t, systemPrompt, system)
	assert.Contains(t, user, "exactly 5 candidate companies")
	assert.Contains(t, user, "Sector: TECHNOLOGY")
	assert.Contains(t, user, "Location: Barcelona")
	assert.Contains(t, user, "Company size: 10-50 employees")
	assert.Contains(t, user, "Keywords: saas, fintech")
	assert.Contains(t, user, "Minimum annual revenue: 500000 EUR")
	assert.Contains(t, user, "Founded after: 2015")
	assert.Contains(t, user, "Technology: go, postgres")
	assert.Contains(t, user, "Do NOT include")
	assert.Contains(t, user, "- Acme SL")
	assert.Contains(t, user, "- Nova Dades SL")
	assert.Contains(t, user, candidateSchema)
}

func TestBuildPrompt_MinimalBrief(t *testing.T) {
	t.Parallel()

	criteria := model.GenerationCriteria{Sector: model.SectorRetail, Location: "Lleida", Quantity: 10}
	system, user := BuildPrompt(criteria, nil)

	// The system prompt never varies, so the provider cache stays warm.
	assert.Equal(t, systemPrompt, system)
	assert.NotContains(t, user, "Do NOT include")
	assert.NotContains(t, user, "Company size")
	assert.NotContains(t, user, "Keywords")
}
