package compliance

import (
	"time"

	"mimir/internal/model"
)

// EmployeeCompliance 单个员工的合规结果
type EmployeeCompliance struct {
	Employee model.Employee
	Due      DueTrainings
}

// HasNeeds 是否存在到期培训
func (c EmployeeCompliance) HasNeeds() bool {
	return len(c.Due) > 0
}

// DepartmentSnapshot 部门合规快照
type DepartmentSnapshot struct {
	Department model.Department
	TargetDate time.Time
	// Today 生成时刻的真实日期，逾期判断以此为准
	Today time.Time

	Employees []EmployeeCompliance

	EmployeesWithNeeds int
	OverdueCount       int
}

// Employee 按员工 ID 查找
func (s DepartmentSnapshot) Employee(id int64) (EmployeeCompliance, bool) {
	for _, c := range s.Employees {
		if c.Employee.ID == id {
			return c, true
		}
	}
	return EmployeeCompliance{}, false
}

// GlobalSnapshot 全部部门的合规快照
type GlobalSnapshot struct {
	TargetDate  time.Time
	Today       time.Time
	Departments []DepartmentSnapshot

	EmployeeCount      int
	EmployeesWithNeeds int
	OverdueCount       int
}

// BuildDepartmentSnapshot 对部门内每个员工计算到期培训并汇总
//
// 到期判断相对 targetDate，逾期统计相对 now（报表生成时的真实日期）。
func BuildDepartmentSnapshot(dept model.Department, employees []model.Employee, targetDate, now time.Time) DepartmentSnapshot {
	snap := DepartmentSnapshot{
		Department: dept,
		TargetDate: model.DateOf(targetDate),
		Today:      model.DateOf(now),
		Employees:  make([]EmployeeCompliance, 0, len(employees)),
	}

	for _, e := range employees {
		due := DueTrainingsFor(e, snap.TargetDate)
		snap.Employees = append(snap.Employees, EmployeeCompliance{Employee: e, Due: due})

		if len(due) == 0 {
			continue
		}
		snap.EmployeesWithNeeds++
		snap.OverdueCount += due.OverdueCount(snap.Today)
	}

	return snap
}

// BuildGlobalSnapshot 按给定顺序为每个部门构建快照；缺失的部门员工列表视为空
func BuildGlobalSnapshot(departments []model.Department, employeesByDepartment map[int64][]model.Employee, targetDate, now time.Time) GlobalSnapshot {
	g := GlobalSnapshot{
		TargetDate:  model.DateOf(targetDate),
		Today:       model.DateOf(now),
		Departments: make([]DepartmentSnapshot, 0, len(departments)),
	}

	for _, d := range departments {
		ds := BuildDepartmentSnapshot(d, employeesByDepartment[d.ID], targetDate, now)
		g.Departments = append(g.Departments, ds)

		g.EmployeeCount += len(ds.Employees)
		g.EmployeesWithNeeds += ds.EmployeesWithNeeds
		g.OverdueCount += ds.OverdueCount
	}

	return g
}
