package consultation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type recordRepoPG struct{ pool *pgxpool.Pool }

// NewRecordRepoPG builds the Postgres-backed record repository.
func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository { return &recordRepoPG{pool: pool} }

const recordCols = `id, consultation_id, patient_id, model_used, total_processing_time_ms, envelope, created_at`

func (r *recordRepoPG) scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.ConsultationID, &rec.PatientID, &rec.ModelUsed,
		&rec.TotalProcessingTimeMS, &rec.Envelope, &rec.CreatedAt)
	return &rec, err
}

func (r *recordRepoPG) Save(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consultation_record (id, consultation_id, patient_id, model_used, total_processing_time_ms, envelope)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.ConsultationID, rec.PatientID, rec.ModelUsed, rec.TotalProcessingTimeMS, rec.Envelope)
	return err
}

func (r *recordRepoPG) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultation_record`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+recordCols+` FROM consultation_record ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}
