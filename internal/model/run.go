package model

import "time"

// RunStatus represents the outcome of a generation run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFallback  RunStatus = "fallback"
	RunStatusFailed    RunStatus = "failed"
)

// GenerationRun is one append-only ledger entry per pipeline invocation.
// Only AcceptedCount is updated after creation, once persistence completes.
type GenerationRun struct {
	ID             string             `json:"id"`
	OperatorID     string             `json:"operator_id"`
	Criteria       GenerationCriteria `json:"criteria"`
	Model          string             `json:"model"`
	Source         string             `json:"source"`
	Status         RunStatus          `json:"status"`
	GeneratedCount int                `json:"generated_count"`
	AcceptedCount  int                `json:"accepted_count"`
	CreatedAt      time.Time          `json:"created_at"`
}

// WeeklyBucket aggregates generated vs accepted leads for one ISO week.
// WeekStart is the Monday of the week in UTC.
type WeeklyBucket struct {
	WeekStart      time.Time `json:"week_start"`
	GeneratedCount int       `json:"generated_count"`
	AcceptedCount  int       `json:"accepted_count"`
}

// WeekStart returns the UTC Monday 00:00 of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding Monday's week.
	}
	day := t.Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -(weekday - 1))
}
