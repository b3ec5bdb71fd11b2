package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 报表相关的 Prometheus 指标
type Metrics struct {
	// 报表生成结果：result=success|error|canceled
	ReportsGenerated *prometheus.CounterVec

	// 报表生成耗时（含数据加载与渲染）
	ReportDuration prometheus.Histogram

	// 最近一次快照的统计
	EmployeesWithNeeds prometheus.Gauge
	OverdueTrainings   prometheus.Gauge

	// 一次性下载链接的使用情况：result=served|expired
	Downloads *prometheus.CounterVec
}

// New 创建并向 reg 注册全部指标；reg 为 nil 时使用默认注册器
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mimir_reports_generated_total",
			Help: "Total training-needs reports generated by result",
		}, []string{"result"}),

		ReportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mimir_report_duration_seconds",
			Help:    "Duration of training-needs report generation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		EmployeesWithNeeds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mimir_employees_with_training_needs",
			Help: "Employees with at least one due training in the latest snapshot",
		}),

		OverdueTrainings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mimir_overdue_trainings",
			Help: "Overdue training entries in the latest snapshot",
		}),

		Downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mimir_report_downloads_total",
			Help: "One-shot report downloads by result",
		}, []string{"result"}),
	}
}

// ObserveReport 记录一次报表生成
func (m *Metrics) ObserveReport(result string, d time.Duration) {
	if m != nil {
		m.ReportsGenerated.WithLabelValues(result).Inc()
		m.ReportDuration.Observe(d.Seconds())
	}
}

// SetSnapshot 记录最近一次全局快照的统计
func (m *Metrics) SetSnapshot(employeesWithNeeds, overdue int) {
	if m != nil {
		m.EmployeesWithNeeds.Set(float64(employeesWithNeeds))
		m.OverdueTrainings.Set(float64(overdue))
	}
}

// IncrementDownload 记录下载结果
func (m *Metrics) IncrementDownload(result string) {
	if m != nil {
		m.Downloads.WithLabelValues(result).Inc()
	}
}
