package trials

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG builds the Postgres-backed catalog repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const trialCols = `id, trial_id, title, phase, sponsor, condition, inclusion_criteria, exclusion_criteria, locations, enrollment_status, contact_info, created_at, updated_at`

func (r *repoPG) scanTrial(row pgx.Row) (*ClinicalTrial, error) {
	var t ClinicalTrial
	err := row.Scan(&t.ID, &t.TrialID, &t.Title, &t.Phase, &t.Sponsor, &t.Condition,
		&t.InclusionCriteria, &t.ExclusionCriteria, &t.Locations, &t.EnrollmentStatus,
		&t.ContactInfo, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *repoPG) List(ctx context.Context) ([]*ClinicalTrial, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+trialCols+` FROM clinical_trial ORDER BY trial_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ClinicalTrial
	for rows.Next() {
		t, err := r.scanTrial(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *repoPG) GetByTrialID(ctx context.Context, trialID string) (*ClinicalTrial, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+trialCols+` FROM clinical_trial WHERE trial_id = $1`, trialID)
	return r.scanTrial(row)
}

func (r *repoPG) Upsert(ctx context.Context, t *ClinicalTrial) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clinical_trial (id, trial_id, title, phase, sponsor, condition, inclusion_criteria, exclusion_criteria, locations, enrollment_status, contact_info)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (trial_id) DO UPDATE SET
			title = EXCLUDED.title,
			phase = EXCLUDED.phase,
			sponsor = EXCLUDED.sponsor,
			condition = EXCLUDED.condition,
			inclusion_criteria = EXCLUDED.inclusion_criteria,
			exclusion_criteria = EXCLUDED.exclusion_criteria,
			locations = EXCLUDED.locations,
			enrollment_status = EXCLUDED.enrollment_status,
			contact_info = EXCLUDED.contact_info,
			updated_at = now()`,
		t.ID, t.TrialID, t.Title, t.Phase, t.Sponsor, t.Condition,
		t.InclusionCriteria, t.ExclusionCriteria, t.Locations, t.EnrollmentStatus, t.ContactInfo)
	return err
}

func (r *repoPG) Delete(ctx context.Context, trialID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clinical_trial WHERE trial_id = $1`, trialID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
