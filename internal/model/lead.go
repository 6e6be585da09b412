package model

import "time"

// Priority buckets a candidate's suitability score for operator triage.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Priority ladder thresholds, applied uniformly to live and synthetic
// candidates so priority never reveals provenance.
const (
	priorityHighMin   = 85
	priorityMediumMin = 70
)

// PriorityForScore maps a 0-100 suitability score onto a priority bucket.
func PriorityForScore(score int) Priority {
	switch {
	case score >= priorityHighMin:
		return PriorityHigh
	case score >= priorityMediumMin:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// LeadStatus tracks a persisted lead through the sales workflow. Only
// StatusNew is assigned by this pipeline; later transitions belong to the
// assignment workflows.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusClosed    LeadStatus = "CLOSED"
)

// LeadSource marks how a lead entered the corpus.
type LeadSource string

const (
	LeadSourceAIGenerated LeadSource = "AI_GENERATED"
	LeadSourceManual      LeadSource = "MANUAL"
)

// CandidateLead is an ephemeral generated lead awaiting operator review.
// It is never persisted directly; acceptance converts it into a Lead.
type CandidateLead struct {
	ID               string   `json:"id"`
	CompanyName      string   `json:"company_name"`
	Sector           string   `json:"sector"`
	Location         string   `json:"location"`
	EmployeeCount    int      `json:"employee_count"`
	EstimatedRevenue float64  `json:"estimated_revenue"`
	ContactName      string   `json:"contact_name"`
	ContactEmail     string   `json:"contact_email"`
	ContactPhone     string   `json:"contact_phone"`
	SuitabilityScore int      `json:"suitability_score"`
	Priority         Priority `json:"priority"`
	Reasoning        string   `json:"reasoning"`
	Website          string   `json:"website,omitempty"`
	LinkedInURL      string   `json:"linkedin_url,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// LeadProvenance records where a persisted lead came from, for audit.
type LeadProvenance struct {
	GenerationID string    `json:"generation_id"`
	Model        string    `json:"model"`
	Reasoning    string    `json:"reasoning,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Lead is the durable record created when an operator accepts a candidate.
type Lead struct {
	ID               string         `json:"id"`
	CompanyName      string         `json:"company_name"`
	Sector           string         `json:"sector"`
	Location         string         `json:"location"`
	EmployeeCount    int            `json:"employee_count"`
	EstimatedRevenue float64        `json:"estimated_revenue"`
	ContactName      string         `json:"contact_name"`
	ContactEmail     string         `json:"contact_email,omitempty"`
	ContactPhone     string         `json:"contact_phone,omitempty"`
	SuitabilityScore int            `json:"suitability_score"`
	Priority         Priority       `json:"priority"`
	Website          string         `json:"website,omitempty"`
	LinkedInURL      string         `json:"linkedin_url,omitempty"`
	Description      string         `json:"description,omitempty"`
	Status           LeadStatus     `json:"status"`
	Source           LeadSource     `json:"source"`
	GenerationMethod string         `json:"generation_method"`
	AssignedTo       *string        `json:"assigned_to,omitempty"`
	Provenance       LeadProvenance `json:"provenance"`
	Tags             []string       `json:"tags,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
