package genai

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

func testCriteria() model.GenerationCriteria {
	return model.GenerationCriteria{
		Sector:   model.SectorTechnology,
		Location: "Barcelona",
		Quantity: 5,
	}
}

func seededDefaulter(enabled bool) *Defaulter {
	return NewDefaulter(enabled, rand.New(rand.NewPCG(1, 2)))
}

func TestParseCandidates(t *testing.T) {
	t.Parallel()

	t.Run("envelope with full fields", func(t *testing.T) {
		t.Parallel()
		text := `{"companies":[{"company_name":"Codi Obert SL","sector":"TECHNOLOGY","location":"Girona","employee_count":42,"estimated_revenue":2500000,"contact_name":"Anna","contact_email":"anna@codiobert.cat","suitability_score":91,"reasoning":"strong fit"}]}`

		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 1)
		c := got[0]
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "Codi Obert SL", c.CompanyName)
		assert.Equal(t, "Girona", c.Location)
		assert.Equal(t, 42, c.EmployeeCount)
		assert.Equal(t, 91, c.SuitabilityScore)
		assert.Equal(t, model.PriorityHigh, c.Priority)
	})

	t.Run("bare array accepted", func(t *testing.T) {
		t.Parallel()
		text := `[{"company_name":"Alfa","sector":"FINANCE","suitability_score":75}]`
		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 1)
		assert.Equal(t, model.PriorityMedium, got[0].Priority)
	})

	t.Run("markdown fences stripped", func(t *testing.T) {
		t.Parallel()
		text := "```json\n{\"companies\":[{\"company_name\":\"Beta\",\"sector\":\"RETAIL\",\"suitability_score\":60}]}\n```"
		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 1)
		assert.Equal(t, "Beta", got[0].CompanyName)
	})

	t.Run("missing required fields dropped", func(t *testing.T) {
		t.Parallel()
		text := `{"companies":[
			{"company_name":"","sector":"TECHNOLOGY","suitability_score":90},
			{"company_name":"No Sector","suitability_score":90},
			{"company_name":"Kept","sector":"TECHNOLOGY","suitability_score":90}
		]}`
		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 1)
		assert.Equal(t, "Kept", got[0].CompanyName)
	})

	t.Run("string numerics coerced", func(t *testing.T) {
		t.Parallel()
		text := `{"companies":[{"company_name":"Gamma","sector":"TECHNOLOGY","employee_count":"30","estimated_revenue":"1500000.5","suitability_score":"88"}]}`
		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 1)
		assert.Equal(t, 30, got[0].EmployeeCount)
		assert.Equal(t, 1500000.5, got[0].EstimatedRevenue)
		assert.Equal(t, 88, got[0].SuitabilityScore)
	})

	t.Run("score clamped to 0-100", func(t *testing.T) {
		t.Parallel()
		text := `{"companies":[
			{"company_name":"Over","sector":"TECHNOLOGY","suitability_score":140},
			{"company_name":"Under","sector":"TECHNOLOGY","suitability_score":-10}
		]}`
		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 2)
		assert.Equal(t, 100, got[0].SuitabilityScore)
		assert.Equal(t, 0, got[1].SuitabilityScore)
	})

	t.Run("absent score gets a default even in strict mode", func(t *testing.T) {
		t.Parallel()
		text := `{"companies":[{"company_name":"Delta","sector":"TECHNOLOGY"}]}`
		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 1)
		assert.GreaterOrEqual(t, got[0].SuitabilityScore, 60)
		assert.Less(t, got[0].SuitabilityScore, 100)
	})

	t.Run("empty location falls back to criteria", func(t *testing.T) {
		t.Parallel()
		text := `{"companies":[{"company_name":"Eps","sector":"TECHNOLOGY","suitability_score":70}]}`
		got := ParseCandidates(text, testCriteria(), seededDefaulter(false))
		require.Len(t, got, 1)
		assert.Equal(t, "Barcelona", got[0].Location)
	})

	t.Run("unparseable text returns nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, ParseCandidates("sorry, I cannot help with that", testCriteria(), seededDefaulter(false)))
	})
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n[1,2]\n```", want: `[1,2]`},
		{name: "surrounding prose", in: "Here you go:\n{\"a\":1}\nHope that helps!", want: `{"a":1}`},
		{name: "array before object", in: `[{"a":1}] trailing`, want: `[{"a":1}]`},
		{name: "no json at all", in: "nothing here", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
