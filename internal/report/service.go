package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mimir/internal/compliance"
	"mimir/internal/metrics"
	"mimir/internal/model"
)

// ErrDepartmentNotFound 部门不存在
var ErrDepartmentNotFound = errors.New("department not found")

// Service 合规计算与报表生成的入口
type Service struct {
	directory Directory
	renderer  *Renderer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock 替换“今天”的来源，逾期判断以此为准
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithColumnWidths(widths []float64) Option {
	return func(s *Service) {
		s.renderer = NewRenderer(widths)
	}
}

// NewService 创建报表服务
func NewService(directory Directory, opts ...Option) (*Service, error) {
	if directory == nil {
		return nil, errors.New("directory is required")
	}

	s := &Service{
		directory: directory,
		renderer:  NewRenderer(nil),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Today 当前真实日期
func (s *Service) Today() time.Time {
	return model.DateOf(s.now())
}

// GetDueTrainingsForEmployee 计算单个员工截至 targetDate 的到期培训
func (s *Service) GetDueTrainingsForEmployee(e model.Employee, targetDate time.Time) compliance.DueTrainings {
	return compliance.DueTrainingsFor(e, targetDate)
}

// DepartmentSnapshot 构建单个部门的合规快照
func (s *Service) DepartmentSnapshot(ctx context.Context, departmentID int64, targetDate time.Time) (compliance.DepartmentSnapshot, error) {
	departments, err := s.directory.ListDepartments(ctx)
	if err != nil {
		return compliance.DepartmentSnapshot{}, fmt.Errorf("list departments: %w", err)
	}

	for _, d := range departments {
		if d.ID != departmentID {
			continue
		}
		employees, err := s.directory.ListEmployeesByDepartment(ctx, d.ID)
		if err != nil {
			return compliance.DepartmentSnapshot{}, fmt.Errorf("list employees of department %d: %w", d.ID, err)
		}
		return compliance.BuildDepartmentSnapshot(d, employees, targetDate, s.now()), nil
	}

	return compliance.DepartmentSnapshot{}, fmt.Errorf("department %d: %w", departmentID, ErrDepartmentNotFound)
}

// GlobalSnapshot 构建全部部门的合规快照
func (s *Service) GlobalSnapshot(ctx context.Context, targetDate time.Time) (compliance.GlobalSnapshot, error) {
	return s.globalSnapshot(ctx, targetDate, nil)
}

func (s *Service) globalSnapshot(ctx context.Context, targetDate time.Time, progress func(ProgressEvent)) (compliance.GlobalSnapshot, error) {
	departments, err := s.directory.ListDepartments(ctx)
	if err != nil {
		return compliance.GlobalSnapshot{}, fmt.Errorf("list departments: %w", err)
	}

	byDepartment := make(map[int64][]model.Employee, len(departments))
	for i, d := range departments {
		if err := ctx.Err(); err != nil {
			return compliance.GlobalSnapshot{}, err
		}
		employees, err := s.directory.ListEmployeesByDepartment(ctx, d.ID)
		if err != nil {
			return compliance.GlobalSnapshot{}, fmt.Errorf("list employees of department %d: %w", d.ID, err)
		}
		byDepartment[d.ID] = employees
		reportProgress(progress, 10*(i+1)/len(departments), fmt.Sprintf("已加载部门 %s", d.Name))
	}

	return compliance.BuildGlobalSnapshot(departments, byDepartment, targetDate, s.now()), nil
}

// ExportOptions 导出选项
type ExportOptions struct {
	TargetDate time.Time
	Progress   func(ProgressEvent)
}

// Export 生成培训需求报表，返回 xlsx 文件内容
func (s *Service) Export(ctx context.Context, opts ExportOptions) ([]byte, error) {
	start := time.Now()
	runID := uuid.New()
	log := s.logger.With(
		slog.String("run_id", runID.String()),
		slog.String("target_date", model.FormatDate(opts.TargetDate)),
	)

	data, err := s.export(ctx, opts)
	elapsed := time.Since(start)
	if err != nil {
		result := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result = "canceled"
		}
		s.metrics.ObserveReport(result, elapsed)
		log.Error("training report failed", slog.String("result", result), slog.Any("error", err))
		return nil, err
	}

	s.metrics.ObserveReport("success", elapsed)
	log.Info("training report generated",
		slog.Int("bytes", len(data)),
		slog.Duration("duration", elapsed),
	)
	return data, nil
}

func (s *Service) export(ctx context.Context, opts ExportOptions) ([]byte, error) {
	reportProgress(opts.Progress, 0, "加载数据")

	snap, err := s.globalSnapshot(ctx, opts.TargetDate, opts.Progress)
	if err != nil {
		return nil, err
	}
	s.metrics.SetSnapshot(snap.EmployeesWithNeeds, snap.OverdueCount)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.renderer.RenderWithProgress(snap, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	reportProgress(opts.Progress, 100, "完成")
	return data, nil
}

// GenerateDepartmentTrainingReport 生成按部门分表的培训需求报表
func (s *Service) GenerateDepartmentTrainingReport(ctx context.Context, targetDate time.Time) ([]byte, error) {
	return s.Export(ctx, ExportOptions{TargetDate: targetDate})
}
