package model

import "github.com/rotisserie/eris"

// Sector identifiers recognized by the generation prompt and the synthetic
// generator's vocabulary. Free-text sectors are accepted; these are the ones
// the admin UI offers.
const (
	SectorTechnology   = "TECHNOLOGY"
	SectorFinance      = "FINANCE"
	SectorHealthcare   = "HEALTHCARE"
	SectorRetail       = "RETAIL"
	SectorHospitality  = "HOSPITALITY"
	SectorConstruction = "CONSTRUCTION"
	SectorEducation    = "EDUCATION"
	SectorLogistics    = "LOGISTICS"
)

// AdvancedFilters narrows a generation brief beyond the basic fields.
type AdvancedFilters struct {
	MinRevenue      *float64 `json:"min_revenue,omitempty"`
	MaxRevenue      *float64 `json:"max_revenue,omitempty"`
	FoundedAfter    int      `json:"founded_after,omitempty"`
	TechTags        []string `json:"tech_tags,omitempty"`
	ExcludeExisting bool     `json:"exclude_existing"`
}

// GenerationCriteria is the immutable search brief for one generation
// attempt. A snapshot is stored on the generation run so it can be replayed.
type GenerationCriteria struct {
	Sector          string           `json:"sector"`
	Location        string           `json:"location"`
	CompanySizeBand string           `json:"company_size_band,omitempty"`
	Quantity        int              `json:"quantity"`
	Keywords        string           `json:"keywords,omitempty"`
	Filters         *AdvancedFilters `json:"filters,omitempty"`
}

// MaxGenerationQuantity caps a single brief so one request cannot burn the
// whole provider quota.
const MaxGenerationQuantity = 50

// Validate checks the brief and fills the default location for empty ones.
func (c *GenerationCriteria) Validate(defaultLocation string) error {
	if c.Sector == "" {
		return eris.New("criteria: sector is required")
	}
	if c.Quantity <= 0 {
		return eris.New("criteria: quantity must be positive")
	}
	if c.Quantity > MaxGenerationQuantity {
		return eris.Errorf("criteria: quantity %d exceeds maximum %d", c.Quantity, MaxGenerationQuantity)
	}
	if c.Location == "" {
		c.Location = defaultLocation
	}
	return nil
}
