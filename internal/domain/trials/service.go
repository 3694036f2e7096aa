package trials

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Service manages the trial catalog and renders it for prompt consumption.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]*ClinicalTrial, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, trialID string) (*ClinicalTrial, error) {
	return s.repo.GetByTrialID(ctx, trialID)
}

func (s *Service) Upsert(ctx context.Context, trial *ClinicalTrial) error {
	if err := trial.Validate(); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, trial)
}

func (s *Service) Delete(ctx context.Context, trialID string) error {
	return s.repo.Delete(ctx, trialID)
}

// ContextJSON renders the whole catalog as indented JSON for the trial
// matching prompt. An empty catalog renders as an empty string so the prompt
// layer can substitute its fallback text.
func (s *Service) ContextJSON(ctx context.Context) (string, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
