package report

import (
	"context"

	"mimir/internal/model"
)

// Directory 报表所需的数据访问接口
//
// ListEmployeesByDepartment 返回的员工需已填充 MandatoryTrainings 与 AttendedSessions。
type Directory interface {
	ListDepartments(ctx context.Context) ([]model.Department, error)
	ListEmployeesByDepartment(ctx context.Context, departmentID int64) ([]model.Employee, error)
}
