package genai

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

// rawCandidate mirrors the JSON schema requested from the provider. Numeric
// fields are `any` because models sometimes return them as strings.
type rawCandidate struct {
	CompanyName      string `json:"company_name"`
	Sector           string `json:"sector"`
	Location         string `json:"location"`
	EmployeeCount    any    `json:"employee_count"`
	EstimatedRevenue any    `json:"estimated_revenue"`
	ContactName      string `json:"contact_name"`
	ContactEmail     string `json:"contact_email"`
	ContactPhone     string `json:"contact_phone"`
	SuitabilityScore any    `json:"suitability_score"`
	Reasoning        string `json:"reasoning"`
	Website          string `json:"website"`
	LinkedInURL      string `json:"linkedin_url"`
	Description      string `json:"description"`
}

type candidateEnvelope struct {
	Companies []rawCandidate `json:"companies"`
}

// ParseCandidates extracts candidate leads from provider response text.
// Candidates missing the required fields (company name, sector) are dropped.
// Optional fields are filled by the defaulter; the suitability score is
// clamped to 0-100 and the priority ladder is applied uniformly.
func ParseCandidates(text string, criteria model.GenerationCriteria, defaulter *Defaulter) []model.CandidateLead {
	cleaned := cleanJSON(text)

	var envelope candidateEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil || len(envelope.Companies) == 0 {
		// Some responses are a bare array rather than the envelope.
		if arrErr := json.Unmarshal([]byte(cleaned), &envelope.Companies); arrErr != nil {
			zap.L().Warn("genai: failed to parse candidate JSON", zap.Error(err))
			return nil
		}
	}

	candidates := make([]model.CandidateLead, 0, len(envelope.Companies))
	for _, raw := range envelope.Companies {
		if strings.TrimSpace(raw.CompanyName) == "" || strings.TrimSpace(raw.Sector) == "" {
			zap.L().Debug("genai: dropping candidate missing required fields",
				zap.String("company_name", raw.CompanyName),
			)
			continue
		}

		score, hasScore := toInt(raw.SuitabilityScore)
		employees, _ := toInt(raw.EmployeeCount)
		revenue, _ := toFloat(raw.EstimatedRevenue)

		c := model.CandidateLead{
			ID:               uuid.New().String(),
			CompanyName:      strings.TrimSpace(raw.CompanyName),
			Sector:           strings.TrimSpace(raw.Sector),
			Location:         strings.TrimSpace(raw.Location),
			EmployeeCount:    employees,
			EstimatedRevenue: revenue,
			ContactName:      raw.ContactName,
			ContactEmail:     strings.TrimSpace(raw.ContactEmail),
			ContactPhone:     raw.ContactPhone,
			Reasoning:        raw.Reasoning,
			Website:          raw.Website,
			LinkedInURL:      raw.LinkedInURL,
			Description:      raw.Description,
		}
		if c.Location == "" {
			c.Location = criteria.Location
		}
		if hasScore {
			c.SuitabilityScore = clampScore(score)
		} else {
			c.SuitabilityScore = -1 // sentinel: let the defaulter assign one
		}

		defaulter.Apply(&c, criteria)
		c.Priority = model.PriorityForScore(c.SuitabilityScore)
		candidates = append(candidates, c)
	}
	return candidates
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// cleanJSON extracts a JSON document from text that may contain markdown
// code fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find the outermost object or array.
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return strings.TrimSpace(text[arrStart : end+1])
		}
	}
	if objStart >= 0 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			return strings.TrimSpace(text[objStart : end+1])
		}
	}
	return strings.TrimSpace(text)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
