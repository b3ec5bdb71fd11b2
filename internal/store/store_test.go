package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mimir/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "mimir.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewUnsupportedDriver(t *testing.T) {
	if _, err := New("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?")
	if got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("rebind = %q", got)
	}

	lite := &Store{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

// TestEmployeeRoundTrip 员工及其强制培训、参训记录写入后完整读回
func TestEmployeeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dept := model.Department{Name: "IT", Description: "Informationstechnik"}
	if err := s.CreateDepartment(ctx, &dept); err != nil {
		t.Fatalf("CreateDepartment failed: %v", err)
	}

	firstAid := model.Training{Title: "Erste Hilfe", IntervalMonths: model.Months(24)}
	onboard := model.Training{Title: "Datenschutz Einweisung"}
	for _, tr := range []*model.Training{&firstAid, &onboard} {
		if err := s.CreateTraining(ctx, tr); err != nil {
			t.Fatalf("CreateTraining failed: %v", err)
		}
	}

	older := model.TrainingSession{TrainingID: firstAid.ID, Date: model.Date(2022, time.March, 1), Location: "Raum 1"}
	newer := model.TrainingSession{TrainingID: firstAid.ID, Date: model.Date(2024, time.June, 10)}
	for _, ts := range []*model.TrainingSession{&newer, &older} {
		if err := s.CreateSession(ctx, ts); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	e := model.Employee{
		Name:               "Max Mustermann",
		DepartmentID:       &dept.ID,
		MandatoryTrainings: []model.Training{firstAid, onboard, firstAid},
		AttendedSessions:   []model.TrainingSession{older, newer},
	}
	if err := s.CreateEmployee(ctx, &e); err != nil {
		t.Fatalf("CreateEmployee failed: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("employee id not assigned")
	}

	got, err := s.GetEmployee(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEmployee failed: %v", err)
	}
	if got.Name != "Max Mustermann" || got.DepartmentID == nil || *got.DepartmentID != dept.ID {
		t.Errorf("employee = %+v", got)
	}
	if len(got.MandatoryTrainings) != 2 {
		t.Fatalf("mandatory trainings = %d, want 2 (duplicates collapse)", len(got.MandatoryTrainings))
	}
	// 按名称排序：Datenschutz < Erste Hilfe
	if got.MandatoryTrainings[0].Title != "Datenschutz Einweisung" || got.MandatoryTrainings[0].IntervalMonths != nil {
		t.Errorf("first training = %+v", got.MandatoryTrainings[0])
	}
	if iv, ok := got.MandatoryTrainings[1].Interval(); !ok || iv != 24 {
		t.Errorf("interval = %d,%v, want 24", iv, ok)
	}
	if len(got.AttendedSessions) != 2 {
		t.Fatalf("attended sessions = %d, want 2", len(got.AttendedSessions))
	}
	if !got.AttendedSessions[0].Date.Equal(model.Date(2022, time.March, 1)) || got.AttendedSessions[0].Location != "Raum 1" {
		t.Errorf("first session = %+v", got.AttendedSessions[0])
	}

	list, err := s.ListEmployeesByDepartment(ctx, dept.ID)
	if err != nil {
		t.Fatalf("ListEmployeesByDepartment failed: %v", err)
	}
	if len(list) != 1 || len(list[0].MandatoryTrainings) != 2 || len(list[0].AttendedSessions) != 2 {
		t.Errorf("list = %+v", list)
	}
}

func TestListEmployeesByDepartment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	it := model.Department{Name: "IT"}
	hr := model.Department{Name: "HR"}
	for _, d := range []*model.Department{&it, &hr} {
		if err := s.CreateDepartment(ctx, d); err != nil {
			t.Fatalf("CreateDepartment failed: %v", err)
		}
	}

	for _, e := range []model.Employee{
		{Name: "Zoe", DepartmentID: &it.ID},
		{Name: "Anna", DepartmentID: &it.ID},
		{Name: "Bernd", DepartmentID: &hr.ID},
		{Name: "Ohne Abteilung"},
	} {
		if err := s.CreateEmployee(ctx, &e); err != nil {
			t.Fatalf("CreateEmployee failed: %v", err)
		}
	}

	list, err := s.ListEmployeesByDepartment(ctx, it.ID)
	if err != nil {
		t.Fatalf("ListEmployeesByDepartment failed: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Anna" || list[1].Name != "Zoe" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].MandatoryTrainings == nil || len(list[0].MandatoryTrainings) != 0 {
		t.Errorf("mandatory trainings should be empty, got %+v", list[0].MandatoryTrainings)
	}

	empty, err := s.ListEmployeesByDepartment(ctx, 999)
	if err != nil {
		t.Fatalf("ListEmployeesByDepartment failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown department should list nothing, got %d", len(empty))
	}

	depts, err := s.ListDepartments(ctx)
	if err != nil {
		t.Fatalf("ListDepartments failed: %v", err)
	}
	if len(depts) != 2 || depts[0].Name != "HR" || depts[1].Name != "IT" {
		t.Errorf("departments = %+v", depts)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetDepartment(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDepartment err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetEmployee(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEmployee err = %v, want ErrNotFound", err)
	}
	if _, err := s.ListSessionAttendees(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListSessionAttendees err = %v, want ErrNotFound", err)
	}
}

func TestSessionsAndAttendees(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tr := model.Training{Title: "Brandschutz", IntervalMonths: model.Months(12)}
	if err := s.CreateTraining(ctx, &tr); err != nil {
		t.Fatalf("CreateTraining failed: %v", err)
	}

	past := model.TrainingSession{TrainingID: tr.ID, Date: model.Date(2026, time.January, 10)}
	todays := model.TrainingSession{TrainingID: tr.ID, Date: model.Date(2026, time.October, 17)}
	later := model.TrainingSession{TrainingID: tr.ID, Date: model.Date(2027, time.February, 1)}
	soon := model.TrainingSession{TrainingID: tr.ID, Date: model.Date(2026, time.November, 5)}
	for _, ts := range []*model.TrainingSession{&past, &todays, &later, &soon} {
		if err := s.CreateSession(ctx, ts); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	upcoming, err := s.ListUpcomingSessions(ctx, model.Date(2026, time.October, 17))
	if err != nil {
		t.Fatalf("ListUpcomingSessions failed: %v", err)
	}
	if len(upcoming) != 2 || upcoming[0].ID != soon.ID || upcoming[1].ID != later.ID {
		t.Fatalf("upcoming = %+v", upcoming)
	}

	for _, name := range []string{"Zoe", "Anna"} {
		e := model.Employee{Name: name, AttendedSessions: []model.TrainingSession{past}}
		if err := s.CreateEmployee(ctx, &e); err != nil {
			t.Fatalf("CreateEmployee failed: %v", err)
		}
		if err := s.RecordAttendance(ctx, e.ID, past.ID); err != nil {
			t.Fatalf("RecordAttendance (duplicate) failed: %v", err)
		}
	}

	attendees, err := s.ListSessionAttendees(ctx, past.ID)
	if err != nil {
		t.Fatalf("ListSessionAttendees failed: %v", err)
	}
	if len(attendees) != 2 || attendees[0].Name != "Anna" || attendees[1].Name != "Zoe" {
		t.Errorf("attendees = %+v", attendees)
	}

	none, err := s.ListSessionAttendees(ctx, later.ID)
	if err != nil {
		t.Fatalf("ListSessionAttendees failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no attendees, got %d", len(none))
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st != (model.CatalogStats{Departments: 0, Employees: 2, Trainings: 1, Sessions: 4}) {
		t.Errorf("stats = %+v", st)
	}
}

const seedTOML = `
[[departments]]
key = "it"
name = "IT"

[[departments]]
key = "hr"
name = "Personal"

[[trainings]]
key = "first-aid"
title = "Erste Hilfe"
interval_months = 24

[[trainings]]
key = "privacy"
title = "Datenschutz Einweisung"

[[sessions]]
key = "fa-2024"
training = "first-aid"
date = 2024-09-01
location = "Raum 1"

[[employees]]
name = "Max Mustermann"
department = "it"
mandatory = ["first-aid", "privacy"]
attended = ["fa-2024"]

[[employees]]
name = "Anna Schmidt"
department = "hr"
`

func TestLoadSeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed, err := ParseSeed(strings.NewReader(seedTOML))
	if err != nil {
		t.Fatalf("ParseSeed failed: %v", err)
	}
	res, err := s.LoadSeed(ctx, seed)
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if res != (SeedResult{Departments: 2, Trainings: 2, Sessions: 1, Employees: 2}) {
		t.Errorf("result = %+v", res)
	}

	depts, err := s.ListDepartments(ctx)
	if err != nil {
		t.Fatalf("ListDepartments failed: %v", err)
	}
	var itID int64
	for _, d := range depts {
		if d.Name == "IT" {
			itID = d.ID
		}
	}

	list, err := s.ListEmployeesByDepartment(ctx, itID)
	if err != nil {
		t.Fatalf("ListEmployeesByDepartment failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("IT employees = %d, want 1", len(list))
	}
	emp := list[0]
	if len(emp.MandatoryTrainings) != 2 || len(emp.AttendedSessions) != 1 {
		t.Fatalf("employee = %+v", emp)
	}
	if !emp.AttendedSessions[0].Date.Equal(model.Date(2024, time.September, 1)) {
		t.Errorf("session date = %v", emp.AttendedSessions[0].Date)
	}
}

// TestLoadSeedRollback 引用未知 key 时不写入任何数据
func TestLoadSeedRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed, err := ParseSeed(strings.NewReader(`
[[departments]]
key = "it"
name = "IT"

[[employees]]
name = "Max"
department = "sales"
`))
	if err != nil {
		t.Fatalf("ParseSeed failed: %v", err)
	}
	if _, err := s.LoadSeed(ctx, seed); err == nil {
		t.Fatal("expected error for unknown department")
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Departments != 0 || st.Employees != 0 {
		t.Errorf("seed not rolled back: %+v", st)
	}
}

func TestParseSeedUnknownField(t *testing.T) {
	if _, err := ParseSeed(strings.NewReader("[[departments]]\nnmae = \"IT\"\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
