package consultation

import "context"

// RecordRepository persists and reads back consultation audit records.
type RecordRepository interface {
	Save(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
}
