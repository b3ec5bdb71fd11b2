package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mimir/internal/model"
)

// Seed TOML 格式的主数据文件
//
//	[[departments]]
//	key = "it"
//	name = "IT"
//
//	[[trainings]]
//	key = "first-aid"
//	title = "Erste Hilfe"
//	interval_months = 24
//
//	[[sessions]]
//	key = "fa-2024"
//	training = "first-aid"
//	date = 2024-09-01
//
//	[[employees]]
//	name = "Max Mustermann"
//	department = "it"
//	mandatory = ["first-aid"]
//	attended = ["fa-2024"]
type Seed struct {
	Departments []SeedDepartment `toml:"departments"`
	Trainings   []SeedTraining   `toml:"trainings"`
	Sessions    []SeedSession    `toml:"sessions"`
	Employees   []SeedEmployee   `toml:"employees"`
}

type SeedDepartment struct {
	Key         string `toml:"key"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

type SeedTraining struct {
	Key            string `toml:"key"`
	Title          string `toml:"title"`
	Description    string `toml:"description"`
	IntervalMonths *int   `toml:"interval_months"`
}

type SeedSession struct {
	Key      string         `toml:"key"`
	Training string         `toml:"training"`
	Date     toml.LocalDate `toml:"date"`
	Location string         `toml:"location"`
}

type SeedEmployee struct {
	Name       string   `toml:"name"`
	Department string   `toml:"department"`
	Mandatory  []string `toml:"mandatory"`
	Attended   []string `toml:"attended"`
}

// SeedResult 导入数量统计
type SeedResult struct {
	Departments int
	Trainings   int
	Sessions    int
	Employees   int
}

// ParseSeed 解析 TOML 主数据
func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile 从文件导入主数据
func (s *Store) LoadSeedFile(ctx context.Context, path string) (SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedResult{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		return SeedResult{}, err
	}
	return s.LoadSeed(ctx, seed)
}

// LoadSeed 在单个事务中导入主数据；引用未知的 key 时整体回滚
func (s *Store) LoadSeed(ctx context.Context, seed *Seed) (SeedResult, error) {
	var res SeedResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		departments := make(map[string]int64, len(seed.Departments))
		for _, sd := range seed.Departments {
			d := model.Department{Name: sd.Name, Description: sd.Description}
			if err := s.createDepartment(ctx, tx, &d); err != nil {
				return err
			}
			departments[keyOr(sd.Key, sd.Name)] = d.ID
			res.Departments++
		}

		trainings := make(map[string]int64, len(seed.Trainings))
		for _, st := range seed.Trainings {
			t := model.Training{Title: st.Title, Description: st.Description, IntervalMonths: st.IntervalMonths}
			if err := s.createTraining(ctx, tx, &t); err != nil {
				return err
			}
			trainings[keyOr(st.Key, st.Title)] = t.ID
			res.Trainings++
		}

		sessions := make(map[string]int64, len(seed.Sessions))
		for _, ss := range seed.Sessions {
			trainingID, ok := trainings[ss.Training]
			if !ok {
				return fmt.Errorf("session %q: unknown training %q", ss.Key, ss.Training)
			}
			ts := model.TrainingSession{
				TrainingID: trainingID,
				Date:       model.Date(ss.Date.Year, time.Month(ss.Date.Month), ss.Date.Day),
				Location:   ss.Location,
			}
			if err := s.createSession(ctx, tx, &ts); err != nil {
				return err
			}
			sessions[ss.Key] = ts.ID
			res.Sessions++
		}

		for _, se := range seed.Employees {
			e := model.Employee{Name: se.Name}
			if se.Department != "" {
				id, ok := departments[se.Department]
				if !ok {
					return fmt.Errorf("employee %q: unknown department %q", se.Name, se.Department)
				}
				e.DepartmentID = &id
			}
			for _, key := range se.Mandatory {
				id, ok := trainings[key]
				if !ok {
					return fmt.Errorf("employee %q: unknown training %q", se.Name, key)
				}
				e.MandatoryTrainings = append(e.MandatoryTrainings, model.Training{ID: id})
			}
			for _, key := range se.Attended {
				id, ok := sessions[key]
				if !ok {
					return fmt.Errorf("employee %q: unknown session %q", se.Name, key)
				}
				e.AttendedSessions = append(e.AttendedSessions, model.TrainingSession{ID: id})
			}
			if err := s.createEmployee(ctx, tx, &e); err != nil {
				return err
			}
			res.Employees++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return res, nil
}

func keyOr(key, fallback string) string {
	if key != "" {
		return key
	}
	return fallback
}
