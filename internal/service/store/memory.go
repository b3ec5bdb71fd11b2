package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mimir/internal/model"
)

// MemoryStore 内存主数据存储（测试与 memory 驱动使用）
//
// 员工只保存强制培训 ID 与参加的场次 ID，读取时再解析为完整实体，
// 因此培训或场次更新后对所有员工立即可见。
type MemoryStore struct {
	mu sync.RWMutex

	departments map[int64]model.Department
	trainings   map[int64]model.Training
	sessions    map[int64]model.TrainingSession
	employees   map[int64]*memberRecord

	nextID int64
}

type memberRecord struct {
	id           int64
	name         string
	departmentID *int64
	mandatory    []int64
	attended     []int64
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		departments: make(map[int64]model.Department),
		trainings:   make(map[int64]model.Training),
		sessions:    make(map[int64]model.TrainingSession),
		employees:   make(map[int64]*memberRecord),
	}
}

func (s *MemoryStore) assignID(id int64) int64 {
	if id == 0 {
		s.nextID++
		return s.nextID
	}
	if id > s.nextID {
		s.nextID = id
	}
	return id
}

// AddDepartment 添加部门；ID 为 0 时自动分配
func (s *MemoryStore) AddDepartment(d model.Department) model.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.assignID(d.ID)
	s.departments[d.ID] = d
	return d
}

// AddTraining 添加培训项目；ID 为 0 时自动分配
func (s *MemoryStore) AddTraining(t model.Training) model.Training {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.assignID(t.ID)
	s.trainings[t.ID] = t
	return t
}

// AddSession 添加培训场次；ID 为 0 时自动分配
func (s *MemoryStore) AddSession(ts model.TrainingSession) model.TrainingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts.ID = s.assignID(ts.ID)
	ts.Date = model.DateOf(ts.Date)
	s.sessions[ts.ID] = ts
	return ts
}

// AddEmployee 添加员工；强制培训与参加场次按 ID 引用，缺失的培训 / 场次会一并登记
func (s *MemoryStore) AddEmployee(e model.Employee) model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.assignID(e.ID)
	rec := &memberRecord{id: e.ID, name: e.Name, departmentID: e.DepartmentID}

	seen := make(map[int64]bool, len(e.MandatoryTrainings))
	for _, t := range e.MandatoryTrainings {
		if _, ok := s.trainings[t.ID]; !ok {
			t.ID = s.assignID(t.ID)
			s.trainings[t.ID] = t
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		rec.mandatory = append(rec.mandatory, t.ID)
	}
	for _, ts := range e.AttendedSessions {
		if _, ok := s.sessions[ts.ID]; !ok {
			ts.ID = s.assignID(ts.ID)
			ts.Date = model.DateOf(ts.Date)
			s.sessions[ts.ID] = ts
		}
		rec.attended = append(rec.attended, ts.ID)
	}

	s.employees[e.ID] = rec
	return s.resolveLocked(rec)
}

// RecordAttendance 记录员工参加某场次
func (s *MemoryStore) RecordAttendance(employeeID, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.employees[employeeID]
	if !ok {
		return fmt.Errorf("employee %d: %w", employeeID, model.ErrNotFound)
	}
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("training session %d: %w", sessionID, model.ErrNotFound)
	}
	for _, id := range rec.attended {
		if id == sessionID {
			return nil
		}
	}
	rec.attended = append(rec.attended, sessionID)
	return nil
}

// resolveLocked 将员工记录解析为完整实体；调用方需持有锁
func (s *MemoryStore) resolveLocked(rec *memberRecord) model.Employee {
	e := model.Employee{
		ID:                 rec.id,
		Name:               rec.name,
		DepartmentID:       rec.departmentID,
		MandatoryTrainings: make([]model.Training, 0, len(rec.mandatory)),
		AttendedSessions:   make([]model.TrainingSession, 0, len(rec.attended)),
	}
	for _, id := range rec.mandatory {
		if t, ok := s.trainings[id]; ok {
			e.MandatoryTrainings = append(e.MandatoryTrainings, t)
		}
	}
	for _, id := range rec.attended {
		if ts, ok := s.sessions[id]; ok {
			e.AttendedSessions = append(e.AttendedSessions, ts)
		}
	}
	return e
}

// ListDepartments 按名称列出全部部门
func (s *MemoryStore) ListDepartments(ctx context.Context) ([]model.Department, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetDepartment 按 ID 获取部门
func (s *MemoryStore) GetDepartment(ctx context.Context, id int64) (model.Department, error) {
	if err := ctx.Err(); err != nil {
		return model.Department{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.departments[id]
	if !ok {
		return model.Department{}, fmt.Errorf("department %d: %w", id, model.ErrNotFound)
	}
	return d, nil
}

// ListEmployeesByDepartment 列出部门内的员工（按姓名排序）
func (s *MemoryStore) ListEmployeesByDepartment(ctx context.Context, departmentID int64) ([]model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Employee
	for _, rec := range s.employees {
		if rec.departmentID != nil && *rec.departmentID == departmentID {
			out = append(out, s.resolveLocked(rec))
		}
	}
	sortEmployees(out)
	return out, nil
}

// GetEmployee 按 ID 获取员工
func (s *MemoryStore) GetEmployee(ctx context.Context, id int64) (model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return model.Employee{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.employees[id]
	if !ok {
		return model.Employee{}, fmt.Errorf("employee %d: %w", id, model.ErrNotFound)
	}
	return s.resolveLocked(rec), nil
}

// ListUpcomingSessions 列出 after 之后（不含当天）的场次
func (s *MemoryStore) ListUpcomingSessions(ctx context.Context, after time.Time) ([]model.TrainingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := model.DateOf(after)
	var out []model.TrainingSession
	for _, ts := range s.sessions {
		if ts.Date.After(day) {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListSessionAttendees 扫描员工参训记录得到某场次的参加者
func (s *MemoryStore) ListSessionAttendees(ctx context.Context, sessionID int64) ([]model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("training session %d: %w", sessionID, model.ErrNotFound)
	}

	out := []model.Employee{}
	for _, rec := range s.employees {
		for _, id := range rec.attended {
			if id == sessionID {
				out = append(out, model.Employee{ID: rec.id, Name: rec.name, DepartmentID: rec.departmentID})
				break
			}
		}
	}
	sortEmployees(out)
	return out, nil
}

// Stats 主数据统计
func (s *MemoryStore) Stats(ctx context.Context) (model.CatalogStats, error) {
	if err := ctx.Err(); err != nil {
		return model.CatalogStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.CatalogStats{
		Departments: len(s.departments),
		Employees:   len(s.employees),
		Trainings:   len(s.trainings),
		Sessions:    len(s.sessions),
	}, nil
}

// Clear 清空所有数据
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments = make(map[int64]model.Department)
	s.trainings = make(map[int64]model.Training)
	s.sessions = make(map[int64]model.TrainingSession)
	s.employees = make(map[int64]*memberRecord)
	s.nextID = 0
}

func sortEmployees(list []model.Employee) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}
