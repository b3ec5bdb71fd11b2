package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mimir/internal/model"
)

// CreateDepartment 创建部门，回填 ID
func (s *Store) CreateDepartment(ctx context.Context, d *model.Department) error {
	return s.createDepartment(ctx, s.db, d)
}

func (s *Store) createDepartment(ctx context.Context, q queryer, d *model.Department) error {
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO departments (name, description) VALUES (?, ?)
		RETURNING id
	`), d.Name, d.Description).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

// GetDepartment 按 ID 获取部门
func (s *Store) GetDepartment(ctx context.Context, id int64) (model.Department, error) {
	var d model.Department
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, description FROM departments WHERE id = ?
	`), id).Scan(&d.ID, &d.Name, &d.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("department %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("failed to get department: %w", err)
	}
	return d, nil
}

// ListDepartments 按名称列出全部部门
func (s *Store) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description FROM departments ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var out []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
