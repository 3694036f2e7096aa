package trials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// repoFile serves the catalog from a JSON file on disk. It is the deployment
// mode without a database: reads are cached, writes rewrite the whole file.
type repoFile struct {
	path string

	mu     sync.RWMutex
	loaded bool
	items  []*ClinicalTrial
}

// NewRepoFile builds a file-backed catalog repository. The file holds a JSON
// array of trials; a missing file reads as an empty catalog.
func NewRepoFile(path string) Repository { return &repoFile{path: path} }

func (r *repoFile) load() error {
	if r.loaded {
		return nil
	}
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.items = nil
		r.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	var items []*ClinicalTrial
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("parse trial catalog %s: %w", r.path, err)
	}
	r.items = items
	r.loaded = true
	return nil
}

func (r *repoFile) flush() error {
	raw, err := json.MarshalIndent(r.items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, raw, 0o644)
}

func (r *repoFile) List(ctx context.Context) ([]*ClinicalTrial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]*ClinicalTrial, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *repoFile) GetByTrialID(ctx context.Context, trialID string) (*ClinicalTrial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return nil, err
	}
	for _, t := range r.items {
		if t.TrialID == trialID {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *repoFile) Upsert(ctx context.Context, trial *ClinicalTrial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	for i, t := range r.items {
		if t.TrialID == trial.TrialID {
			r.items[i] = trial
			return r.flush()
		}
	}
	r.items = append(r.items, trial)
	return r.flush()
}

func (r *repoFile) Delete(ctx context.Context, trialID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	for i, t := range r.items {
		if t.TrialID == trialID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return r.flush()
		}
	}
	return ErrNotFound
}
