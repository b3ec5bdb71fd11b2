package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mimir/internal/model"
)

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func scanEmployee(sc interface{ Scan(dest ...any) error }) (model.Employee, error) {
	var (
		e    model.Employee
		dept sql.NullInt64
	)
	if err := sc.Scan(&e.ID, &e.Name, &dept); err != nil {
		return e, fmt.Errorf("failed to scan employee: %w", err)
	}
	if dept.Valid {
		id := dept.Int64
		e.DepartmentID = &id
	}
	return e, nil
}

// CreateEmployee 创建员工，同时写入强制培训与参训记录（按已有的培训 / 场次 ID）
func (s *Store) CreateEmployee(ctx context.Context, e *model.Employee) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.createEmployee(ctx, tx, e)
	})
}

func (s *Store) createEmployee(ctx context.Context, q queryer, e *model.Employee) error {
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO employees (name, department_id) VALUES (?, ?)
		RETURNING id
	`), e.Name, nullableID(e.DepartmentID)).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}

	for _, t := range e.MandatoryTrainings {
		if err := s.assignMandatoryTraining(ctx, q, e.ID, t.ID); err != nil {
			return err
		}
	}
	for _, ts := range e.AttendedSessions {
		if err := s.recordAttendance(ctx, q, e.ID, ts.ID); err != nil {
			return err
		}
	}
	return nil
}

// AssignMandatoryTraining 将培训设为员工的强制培训（重复分配忽略）
func (s *Store) AssignMandatoryTraining(ctx context.Context, employeeID, trainingID int64) error {
	return s.assignMandatoryTraining(ctx, s.db, employeeID, trainingID)
}

func (s *Store) assignMandatoryTraining(ctx context.Context, q queryer, employeeID, trainingID int64) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO employee_mandatory_trainings (employee_id, training_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`), employeeID, trainingID)
	if err != nil {
		return fmt.Errorf("failed to assign training %d to employee %d: %w", trainingID, employeeID, err)
	}
	return nil
}

// RecordAttendance 记录员工参加某场次（重复记录忽略）
func (s *Store) RecordAttendance(ctx context.Context, employeeID, sessionID int64) error {
	return s.recordAttendance(ctx, s.db, employeeID, sessionID)
}

func (s *Store) recordAttendance(ctx context.Context, q queryer, employeeID, sessionID int64) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO session_attendance (employee_id, session_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`), employeeID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to record attendance of employee %d at session %d: %w", employeeID, sessionID, err)
	}
	return nil
}

// GetEmployee 按 ID 获取员工（含强制培训与参训记录）
func (s *Store) GetEmployee(ctx context.Context, id int64) (model.Employee, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, department_id FROM employees WHERE id = ?
	`), id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return e, err
	}

	employees := []model.Employee{e}
	if err := s.loadRelations(ctx, "e.id = ?", id, employees); err != nil {
		return e, err
	}
	return employees[0], nil
}

// ListEmployeesByDepartment 列出部门内的员工（按姓名排序，含强制培训与参训记录）
func (s *Store) ListEmployeesByDepartment(ctx context.Context, departmentID int64) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, name, department_id FROM employees
		WHERE department_id = ?
		ORDER BY name, id
	`), departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	if len(employees) == 0 {
		return employees, nil
	}

	if err := s.loadRelations(ctx, "e.department_id = ?", departmentID, employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// loadRelations 批量加载员工的强制培训与参训记录；where 作用于 employees e
//
// SQLite 单连接下，必须在上一个结果集关闭后再发起查询。
func (s *Store) loadRelations(ctx context.Context, where string, arg any, employees []model.Employee) error {
	index := make(map[int64]int, len(employees))
	for i := range employees {
		index[employees[i].ID] = i
		employees[i].MandatoryTrainings = []model.Training{}
		employees[i].AttendedSessions = []model.TrainingSession{}
	}

	trainings, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT emt.employee_id, t.id, t.title, t.description, t.interval_months
		FROM employee_mandatory_trainings emt
		JOIN trainings t ON t.id = emt.training_id
		JOIN employees e ON e.id = emt.employee_id
		WHERE `+where+`
		ORDER BY t.title, t.id
	`), arg)
	if err != nil {
		return fmt.Errorf("failed to load mandatory trainings: %w", err)
	}
	for trainings.Next() {
		var (
			employeeID int64
			t          model.Training
			interval   sql.NullInt64
		)
		if err := trainings.Scan(&employeeID, &t.ID, &t.Title, &t.Description, &interval); err != nil {
			trainings.Close()
			return fmt.Errorf("failed to scan mandatory training: %w", err)
		}
		t.IntervalMonths = intervalFrom(interval)
		if i, ok := index[employeeID]; ok {
			employees[i].MandatoryTrainings = append(employees[i].MandatoryTrainings, t)
		}
	}
	if err := trainings.Close(); err != nil {
		return err
	}
	if err := trainings.Err(); err != nil {
		return fmt.Errorf("failed to load mandatory trainings: %w", err)
	}

	sessions, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT sa.employee_id, ts.id, ts.training_id, ts.session_date, ts.location
		FROM session_attendance sa
		JOIN training_sessions ts ON ts.id = sa.session_id
		JOIN employees e ON e.id = sa.employee_id
		WHERE `+where+`
		ORDER BY ts.session_date, ts.id
	`), arg)
	if err != nil {
		return fmt.Errorf("failed to load attended sessions: %w", err)
	}
	defer sessions.Close()

	for sessions.Next() {
		var employeeID int64
		ts, err := scanSession(sessions, &employeeID)
		if err != nil {
			return fmt.Errorf("failed to scan attended session: %w", err)
		}
		if i, ok := index[employeeID]; ok {
			employees[i].AttendedSessions = append(employees[i].AttendedSessions, ts)
		}
	}
	return sessions.Err()
}
