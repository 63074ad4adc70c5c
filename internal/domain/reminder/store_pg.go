package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaxtrack/vaxtrack/internal/platform/db"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const selectSettings = `
	SELECT global_enabled, call_enabled, notification_enabled, days_before, disabled_vaccine_ids
	FROM reminder_settings WHERE caregiver_id = $1`

type storePG struct{ pool *pgxpool.Pool }

// NewStorePG returns a Store backed by the reminder_settings table.
func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (r *storePG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *storePG) Get(ctx context.Context, scope string) (Settings, bool, error) {
	return r.load(ctx, r.conn(ctx), selectSettings, scope)
}

// Update locks the caregiver's row for the duration of the transaction.
// When no row exists yet the insert races other first writers; the loser
// finds the winner's row and retries against it.
func (r *storePG) Update(ctx context.Context, scope string, fn Mutation) (Settings, bool, error) {
	var (
		out     Settings
		changed bool
	)
	err := db.InTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for attempt := 0; attempt < 2; attempt++ {
			cur, found, err := r.load(ctx, tx, selectSettings+` FOR UPDATE`, scope)
			if err != nil {
				return err
			}
			if !found {
				cur = DefaultSettings()
			}
			next, ok := fn(cur)
			if !ok {
				out, changed = cur, false
				return nil
			}
			if found {
				if err := r.save(ctx, tx, scope, next); err != nil {
					return err
				}
				out, changed = next, true
				return nil
			}
			inserted, err := r.insert(ctx, tx, scope, next)
			if err != nil {
				return err
			}
			if inserted {
				out, changed = next, true
				return nil
			}
		}
		return fmt.Errorf("reminder settings for %s: row vanished during update", scope)
	})
	if err != nil {
		return Settings{}, false, err
	}
	return out, changed, nil
}

func (r *storePG) load(ctx context.Context, q queryable, query, scope string) (Settings, bool, error) {
	var s Settings
	err := q.QueryRow(ctx, query, scope).
		Scan(&s.GlobalRemindersEnabled, &s.CallRemindersEnabled, &s.NotificationRemindersEnabled,
			&s.ReminderDaysBefore, &s.DisabledVaccineIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	if s.DisabledVaccineIDs == nil {
		s.DisabledVaccineIDs = []string{}
	}
	return s, true, nil
}

func (r *storePG) insert(ctx context.Context, q queryable, scope string, s Settings) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO reminder_settings (caregiver_id, global_enabled, call_enabled,
			notification_enabled, days_before, disabled_vaccine_ids)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (caregiver_id) DO NOTHING`,
		scope, s.GlobalRemindersEnabled, s.CallRemindersEnabled,
		s.NotificationRemindersEnabled, s.ReminderDaysBefore, idsOrEmpty(s.DisabledVaccineIDs))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *storePG) save(ctx context.Context, q queryable, scope string, s Settings) error {
	_, err := q.Exec(ctx, `
		UPDATE reminder_settings SET
			global_enabled = $2,
			call_enabled = $3,
			notification_enabled = $4,
			days_before = $5,
			disabled_vaccine_ids = $6,
			updated_at = NOW()
		WHERE caregiver_id = $1`,
		scope, s.GlobalRemindersEnabled, s.CallRemindersEnabled,
		s.NotificationRemindersEnabled, s.ReminderDaysBefore, idsOrEmpty(s.DisabledVaccineIDs))
	return err
}

func idsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
