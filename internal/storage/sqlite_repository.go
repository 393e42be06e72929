package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Fixed width so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveEvent(ctx context.Context, in Event) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, title, description, location, start_at, end_at, all_day, type, priority, recurrence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			location = excluded.location,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			all_day = excluded.all_day,
			type = excluded.type,
			priority = excluded.priority,
			recurrence = excluded.recurrence,
			updated_at = excluded.updated_at`,
		in.ID, in.Title, in.Description, in.Location, mustTime(in.StartAt), mustTime(in.EndAt), boolInt(in.AllDay),
		in.Type, in.Priority, in.Recurrence, mustTime(in.CreatedAt), mustTime(in.UpdatedAt),
	); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_tags WHERE event_id = ?`, in.ID); err != nil {
		return err
	}
	for i, tag := range in.Tags {
		if _, err = tx.ExecContext(ctx, `INSERT INTO event_tags (event_id, position, tag) VALUES (?, ?, ?)`, in.ID, i, tag); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_reminders WHERE event_id = ?`, in.ID); err != nil {
		return err
	}
	for i, rem := range in.Reminders {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO event_reminders (event_id, position, offset_minutes, channel)
			VALUES (?, ?, ?, ?)`, in.ID, i, rem.OffsetMinutes, rem.Channel); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, location, start_at, end_at, all_day, type, priority, recurrence, created_at, updated_at
		FROM events WHERE id = ?`, id)
	item, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	if err := r.loadChildren(ctx, &item); err != nil {
		return Event{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, filter EventListFilter) ([]Event, error) {
	query := `SELECT id, title, description, location, start_at, end_at, all_day, type, priority, recurrence, created_at, updated_at FROM events`
	args := make([]any, 0, 5)
	where := ""
	and := func(clause string, v any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, v)
	}
	if filter.From != nil {
		and("start_at >= ?", mustTime(*filter.From))
	}
	if filter.To != nil {
		and("start_at < ?", mustTime(*filter.To))
	}
	if filter.Tag != "" {
		and("id IN (SELECT event_id FROM event_tags WHERE tag = ?)", filter.Tag)
	}
	query += where + ` ORDER BY start_at ASC, created_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0)
	for rows.Next() {
		item, scanErr := scanEvent(rows)
		if scanErr != nil {
			_ = rows.Close()
			return nil, scanErr
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) loadChildren(ctx context.Context, item *Event) error {
	tags, err := r.loadTags(ctx, item.ID)
	if err != nil {
		return err
	}
	reminders, err := r.loadReminders(ctx, item.ID)
	if err != nil {
		return err
	}
	item.Tags = tags
	item.Reminders = reminders
	return nil
}

func (r *SQLiteRepository) loadTags(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tag FROM event_tags WHERE event_id = ? ORDER BY position`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadReminders(ctx context.Context, eventID string) ([]Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT offset_minutes, channel FROM event_reminders WHERE event_id = ? ORDER BY position`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Reminder, 0)
	for rows.Next() {
		var rem Reminder
		if err := rows.Scan(&rem.OffsetMinutes, &rem.Channel); err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateAnalysis(ctx context.Context, in Analysis) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analyses (id, period, start_at, end_at, payload, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.Period, mustTime(in.StartAt), mustTime(in.EndAt), in.Payload, mustTime(in.GeneratedAt),
	)
	return err
}

func (r *SQLiteRepository) ListAnalyses(ctx context.Context, filter AnalysisListFilter) ([]Analysis, error) {
	query := `SELECT id, period, start_at, end_at, payload, generated_at FROM analyses`
	args := make([]any, 0, 3)
	if filter.Period != "" {
		query += ` WHERE period = ?`
		args = append(args, filter.Period)
	}
	query += ` ORDER BY generated_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Analysis, 0)
	for rows.Next() {
		item, scanErr := scanAnalysis(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateReschedule(ctx context.Context, in Reschedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reschedules (suggestion_id, event_id, from_start_at, from_end_at, to_start_at, to_end_at, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.SuggestionID, in.EventID, mustTime(in.FromStart), mustTime(in.FromEnd),
		mustTime(in.ToStart), mustTime(in.ToEnd), mustTime(in.AppliedAt),
	)
	return err
}

func (r *SQLiteRepository) ListReschedules(ctx context.Context) ([]Reschedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT suggestion_id, event_id, from_start_at, from_end_at, to_start_at, to_end_at, applied_at
		FROM reschedules ORDER BY applied_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reschedule, 0)
	for rows.Next() {
		item, scanErr := scanReschedule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (Event, error) {
	var out Event
	var start, end, created, updated string
	var allDay int
	if err := s.Scan(&out.ID, &out.Title, &out.Description, &out.Location, &start, &end, &allDay,
		&out.Type, &out.Priority, &out.Recurrence, &created, &updated); err != nil {
		return Event{}, err
	}
	times, err := parseTimes(start, end, created, updated)
	if err != nil {
		return Event{}, err
	}
	out.StartAt, out.EndAt, out.CreatedAt, out.UpdatedAt = times[0], times[1], times[2], times[3]
	out.AllDay = allDay == 1
	return out, nil
}

func scanAnalysis(s scanner) (Analysis, error) {
	var out Analysis
	var start, end, generated string
	if err := s.Scan(&out.ID, &out.Period, &start, &end, &out.Payload, &generated); err != nil {
		return Analysis{}, err
	}
	times, err := parseTimes(start, end, generated)
	if err != nil {
		return Analysis{}, err
	}
	out.StartAt, out.EndAt, out.GeneratedAt = times[0], times[1], times[2]
	return out, nil
}

func scanReschedule(s scanner) (Reschedule, error) {
	var out Reschedule
	var fromStart, fromEnd, toStart, toEnd, applied string
	if err := s.Scan(&out.SuggestionID, &out.EventID, &fromStart, &fromEnd, &toStart, &toEnd, &applied); err != nil {
		return Reschedule{}, err
	}
	times, err := parseTimes(fromStart, fromEnd, toStart, toEnd, applied)
	if err != nil {
		return Reschedule{}, err
	}
	out.FromStart, out.FromEnd, out.ToStart, out.ToEnd, out.AppliedAt = times[0], times[1], times[2], times[3], times[4]
	return out, nil
}

func parseTimes(values ...string) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		tm, err := parseRequiredTime(v)
		if err != nil {
			return nil, fmt.Errorf("parse stored time %q: %w", v, err)
		}
		out[i] = tm
	}
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
