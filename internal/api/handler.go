package api

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"mimir/internal/metrics"
	"mimir/internal/model"
	"mimir/internal/report"
)

// Catalog API 所需的主数据查询接口，SQL 存储与内存存储均实现
type Catalog interface {
	report.Directory
	GetDepartment(ctx context.Context, id int64) (model.Department, error)
	GetEmployee(ctx context.Context, id int64) (model.Employee, error)
	ListUpcomingSessions(ctx context.Context, after time.Time) ([]model.TrainingSession, error)
	ListSessionAttendees(ctx context.Context, sessionID int64) ([]model.Employee, error)
	Stats(ctx context.Context) (model.CatalogStats, error)
}

// Handler API 处理器
type Handler struct {
	catalog   Catalog
	reports   *report.Service
	downloads *exportDownloadStore
	metrics   *metrics.Metrics
	logger    *slog.Logger

	exportDir   string
	downloadTTL time.Duration
}

type Option func(h *Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithExportDir 流式导出生成的临时文件目录
func WithExportDir(dir string) Option {
	return func(h *Handler) {
		h.exportDir = dir
	}
}

// WithDownloadTTL 一次性下载链接有效期
func WithDownloadTTL(ttl time.Duration) Option {
	return func(h *Handler) {
		h.downloadTTL = ttl
	}
}

// NewHandler 创建 API 处理器
func NewHandler(catalog Catalog, reports *report.Service, opts ...Option) *Handler {
	h := &Handler{
		catalog:     catalog,
		reports:     reports,
		downloads:   newExportDownloadStore(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		exportDir:   os.TempDir(),
		downloadTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 主数据
	router.GET("/departments", h.ListDepartments)
	router.GET("/departments/:id", h.GetDepartment)
	router.GET("/employees/:id/due-trainings", h.GetEmployeeDueTrainings)
	router.GET("/sessions/upcoming", h.ListUpcomingSessions)
	router.GET("/sessions/:id/attendees", h.ListSessionAttendees)

	// 培训需求报表
	router.GET("/reports/training-needs", h.GetTrainingNeeds)
	router.GET("/reports/training-needs/export", h.ExportTrainingNeeds)
	router.POST("/reports/training-needs/export/stream", h.ExportStream)
	router.GET("/reports/download/:token", h.DownloadExport)
}
