package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mimir/internal/api"
	"mimir/internal/config"
	"mimir/internal/metrics"
	"mimir/internal/report"
	memstore "mimir/internal/service/store"
	"mimir/internal/store"
)

// DriverMemory 不落盘的内存存储
const DriverMemory = "memory"

// Catalog 服务器持有的主数据存储
type Catalog interface {
	api.Catalog
	Close() error
}

// memoryCatalog 内存存储无需关闭
type memoryCatalog struct {
	*memstore.MemoryStore
}

func (memoryCatalog) Close() error { return nil }

// OpenCatalog 按配置打开主数据存储
func OpenCatalog(cfg *config.AppConfig) (Catalog, error) {
	if cfg.Data.Driver == DriverMemory {
		return memoryCatalog{memstore.NewMemoryStore()}, nil
	}
	s, err := store.New(cfg.Data.Driver, config.DatabaseDSN(cfg))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	catalog  Catalog
	reports  *report.Service
	api      *api.Handler
	registry *prometheus.Registry
	logger   *slog.Logger
	httpSrv  *http.Server
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, catalog Catalog, logger *slog.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	reports, err := report.NewService(catalog,
		report.WithLogger(logger),
		report.WithMetrics(m),
		report.WithColumnWidths(cfg.Report.ColumnWidths),
	)
	if err != nil {
		return nil, fmt.Errorf("create report service: %w", err)
	}

	exportDir := config.GetDataPath(cfg, "exports", "")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	s := &Server{
		router:   gin.New(),
		catalog:  catalog,
		reports:  reports,
		registry: registry,
		logger:   logger,
		api: api.NewHandler(catalog, reports,
			api.WithLogger(logger),
			api.WithMetrics(m),
			api.WithExportDir(exportDir),
			api.WithDownloadTTL(cfg.Report.DownloadTTL()),
		),
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
		)
	}
}

// Handler 底层 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reports 报表服务（CLI 一次性导出复用）
func (s *Server) Reports() *report.Service {
	return s.reports
}

// Run 启动服务器，阻塞直到 Shutdown 或出错
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭 HTTP 服务与存储
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpSrv != nil {
		errs = append(errs, s.httpSrv.Shutdown(ctx))
	}
	errs = append(errs, s.catalog.Close())
	return errors.Join(errs...)
}
