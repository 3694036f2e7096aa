package trials

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no trial carries the requested trial id.
var ErrNotFound = errors.New("trial not found")

// Repository stores the clinical trial catalog.
type Repository interface {
	List(ctx context.Context) ([]*ClinicalTrial, error)
	GetByTrialID(ctx context.Context, trialID string) (*ClinicalTrial, error)
	Upsert(ctx context.Context, trial *ClinicalTrial) error
	Delete(ctx context.Context, trialID string) error
}
