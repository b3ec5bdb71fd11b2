package model

// Department 部门
type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Employee 员工
//
// MandatoryTrainings 与 AttendedSessions 为单向引用：场次只记录所属培训 ID，
// “某场次有哪些参加者”由存储层按需查询，不在实体上维护反向集合。
type Employee struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DepartmentID *int64 `json:"departmentId,omitempty"`

	MandatoryTrainings []Training        `json:"mandatoryTrainings"`
	AttendedSessions   []TrainingSession `json:"attendedSessions"`
}

// CatalogStats 主数据统计
type CatalogStats struct {
	Departments int `json:"departments"`
	Employees   int `json:"employees"`
	Trainings   int `json:"trainings"`
	Sessions    int `json:"sessions"`
}
