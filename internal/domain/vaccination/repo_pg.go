package vaccination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaxtrack/vaxtrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct{ pool *pgxpool.Pool }

// NewRecordRepoPG returns a RecordRepository backed by the vaccine_record table.
func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, child_id, vaccine_name, age_group, position, due_date,
	status, completed_date, proof_url, created_at, updated_at`

func (r *recordRepoPG) scanRecord(row pgx.Row) (*VaccineRecord, error) {
	var rec VaccineRecord
	var ageGroup, status string
	err := row.Scan(&rec.ID, &rec.ChildID, &rec.Name, &ageGroup, &rec.Position, &rec.DueDate,
		&status, &rec.CompletedDate, &rec.ProofURL, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.AgeGroup = AgeGroup(ageGroup)
	rec.Status = RecordStatus(status)
	return &rec, nil
}

const insertRecordSQL = `
	INSERT INTO vaccine_record (id, child_id, vaccine_name, age_group, position,
		due_date, status, completed_date, proof_url)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (child_id, age_group, vaccine_name) DO NOTHING`

func (r *recordRepoPG) CreateBatch(ctx context.Context, records []*VaccineRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	written := 0
	err := db.InTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			batch.Queue(insertRecordSQL,
				rec.ID, rec.ChildID, rec.Name, string(rec.AgeGroup), rec.Position,
				rec.DueDate, string(rec.Status), rec.CompletedDate, rec.ProofURL)
		}
		br := tx.SendBatch(ctx, batch)
		for range records {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return fmt.Errorf("insert vaccine record: %w", err)
			}
			written += int(tag.RowsAffected())
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*VaccineRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM vaccine_record WHERE id = $1`, id))
}

func (r *recordRepoPG) ListByChild(ctx context.Context, childID uuid.UUID) ([]*VaccineRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+recordCols+` FROM vaccine_record
		WHERE child_id = $1 ORDER BY due_date ASC NULLS LAST, position ASC`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*VaccineRecord
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *recordRepoPG) CountByChild(ctx context.Context, childID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM vaccine_record WHERE child_id = $1`, childID).Scan(&n)
	return n, err
}

func (r *recordRepoPG) MarkCompleted(ctx context.Context, id uuid.UUID, completedDate time.Time, proofURL *string) (*VaccineRecord, bool, error) {
	rec, err := r.scanRecord(r.conn(ctx).QueryRow(ctx, `
		UPDATE vaccine_record SET status = 'completed', completed_date = $2,
			proof_url = COALESCE($3, proof_url), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+recordCols,
		id, DateOf(completedDate), proofURL))
	if errors.Is(err, ErrNotFound) {
		// Either the id is unknown or the record was already completed.
		rec, err = r.GetByID(ctx, id)
		return rec, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}
