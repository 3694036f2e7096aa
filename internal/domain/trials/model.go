package trials

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClinicalTrial is one catalog entry. The catalog is what gets serialized
// into the trial matching prompt, so the JSON field names are part of the
// prompt contract.
type ClinicalTrial struct {
	ID                uuid.UUID `json:"-"`
	TrialID           string    `json:"trial_id"`
	Title             string    `json:"title"`
	Phase             string    `json:"phase"`
	Sponsor           string    `json:"sponsor"`
	Condition         string    `json:"condition"`
	InclusionCriteria []string  `json:"inclusion_criteria"`
	ExclusionCriteria []string  `json:"exclusion_criteria"`
	Locations         []string  `json:"locations"`
	EnrollmentStatus  string    `json:"enrollment_status"`
	ContactInfo       string    `json:"contact_info,omitempty"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}

// Validate checks the fields required to make a catalog entry matchable.
func (t *ClinicalTrial) Validate() error {
	if t.TrialID == "" {
		return fmt.Errorf("trial_id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Condition == "" {
		return fmt.Errorf("condition is required")
	}
	return nil
}
