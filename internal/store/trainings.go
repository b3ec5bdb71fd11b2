package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mimir/internal/model"
)

func nullableInterval(t model.Training) sql.NullInt64 {
	if t.IntervalMonths == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*t.IntervalMonths), Valid: true}
}

func intervalFrom(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return model.Months(int(v.Int64))
}

// CreateTraining 创建培训项目，回填 ID
func (s *Store) CreateTraining(ctx context.Context, t *model.Training) error {
	return s.createTraining(ctx, s.db, t)
}

func (s *Store) createTraining(ctx context.Context, q queryer, t *model.Training) error {
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO trainings (title, description, interval_months) VALUES (?, ?, ?)
		RETURNING id
	`), t.Title, t.Description, nullableInterval(*t)).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create training: %w", err)
	}
	return nil
}

// ListTrainings 按名称列出全部培训项目
func (s *Store) ListTrainings(ctx context.Context) ([]model.Training, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, interval_months FROM trainings ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	defer rows.Close()

	var out []model.Training
	for rows.Next() {
		var (
			t        model.Training
			interval sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &interval); err != nil {
			return nil, fmt.Errorf("failed to scan training: %w", err)
		}
		t.IntervalMonths = intervalFrom(interval)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateSession 创建培训场次，回填 ID
func (s *Store) CreateSession(ctx context.Context, ts *model.TrainingSession) error {
	return s.createSession(ctx, s.db, ts)
}

func (s *Store) createSession(ctx context.Context, q queryer, ts *model.TrainingSession) error {
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO training_sessions (training_id, session_date, location) VALUES (?, ?, ?)
		RETURNING id
	`), ts.TrainingID, model.FormatDate(ts.Date), ts.Location).Scan(&ts.ID)
	if err != nil {
		return fmt.Errorf("failed to create training session: %w", err)
	}
	return nil
}

func scanSession(sc interface{ Scan(dest ...any) error }, extra ...any) (model.TrainingSession, error) {
	var (
		ts   model.TrainingSession
		date string
	)
	dest := append(extra, &ts.ID, &ts.TrainingID, &date, &ts.Location)
	if err := sc.Scan(dest...); err != nil {
		return ts, err
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return ts, fmt.Errorf("session %d: %w", ts.ID, err)
	}
	ts.Date = d
	return ts, nil
}

// ListUpcomingSessions 列出 after 之后（不含当天）的培训场次
func (s *Store) ListUpcomingSessions(ctx context.Context, after time.Time) ([]model.TrainingSession, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, training_id, session_date, location
		FROM training_sessions
		WHERE session_date > ?
		ORDER BY session_date, id
	`), model.FormatDate(after))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming sessions: %w", err)
	}
	defer rows.Close()

	var out []model.TrainingSession
	for rows.Next() {
		ts, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training session: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// ListSessionAttendees 查询某场次的参加者（按姓名排序，不加载关联）
func (s *Store) ListSessionAttendees(ctx context.Context, sessionID int64) ([]model.Employee, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM training_sessions WHERE id = ?`), sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("training session %d: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT e.id, e.name, e.department_id
		FROM session_attendance sa
		JOIN employees e ON e.id = sa.employee_id
		WHERE sa.session_id = ?
		ORDER BY e.name, e.id
	`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session attendees: %w", err)
	}
	defer rows.Close()

	out := []model.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
