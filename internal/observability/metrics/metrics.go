package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "platform_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	exportJobsTotal  *prometheus.CounterVec
	exportJobLatency *prometheus.HistogramVec
	exportFileBytes  *prometheus.HistogramVec

	summaryTotal   *prometheus.CounterVec
	summaryLatency *prometheus.HistogramVec

	notifyTotal *prometheus.CounterVec
)

// Init registers metrics on the default registry. db may be nil, in which
// case DB-backed gauges are skipped.
func Init(db *sql.DB) {
	InitWith(prometheus.DefaultRegisterer, db)
}

// InitWith registers metrics on reg. Only the first call has an effect.
func InitWith(reg prometheus.Registerer, db *sql.DB) {
	registerOnce.Do(func() {
		exportJobsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_jobs_total",
				Help: "Finished export jobs by type, format and status",
			},
			[]string{"type", "format", "status"},
		)
		exportJobLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_job_duration_seconds",
				Help:    "Export job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "status"},
		)
		exportFileBytes = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_file_bytes",
				Help:    "Size of rendered export documents",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		)

		summaryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "accounting_summary_total",
				Help: "Total accounting summary computations by result",
			},
			[]string{"result"},
		)
		summaryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "accounting_summary_latency_seconds",
				Help:    "Accounting summary latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		notifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_notifications_total",
				Help: "Export completion notifications by result",
			},
			[]string{"result"},
		)

		reg.MustRegister(
			exportJobsTotal,
			exportJobLatency,
			exportFileBytes,
			summaryTotal,
			summaryLatency,
			notifyTotal,
		)

		if db != nil {
			registerDBMetrics(reg, db)
		}
	})
}

// ObserveExportJob records a finished export job.
func ObserveExportJob(exportType, format, status string, duration time.Duration) {
	if exportType == "" {
		exportType = "unknown"
	}
	if format == "" {
		format = "unknown"
	}
	if exportJobsTotal != nil {
		exportJobsTotal.WithLabelValues(exportType, format, status).Inc()
	}
	if exportJobLatency != nil {
		exportJobLatency.WithLabelValues(format, status).Observe(duration.Seconds())
	}
}

// ObserveExportFile records the size of a rendered document.
func ObserveExportFile(format string, size int) {
	if exportFileBytes != nil {
		exportFileBytes.WithLabelValues(format).Observe(float64(size))
	}
}

// ObserveSummary records summary latency and result.
func ObserveSummary(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if summaryTotal != nil {
		summaryTotal.WithLabelValues(result).Inc()
	}
	if summaryLatency != nil {
		summaryLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncNotify increments the notification counter.
func IncNotify(result string) {
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
