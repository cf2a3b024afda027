package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"

	"oliver-admin/internal/logging"
)

func registerDBMetrics(reg prometheus.Registerer, db *sql.DB) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "export_jobs_processing",
			Help: "Export jobs currently in PROCESSING",
		},
		func() float64 {
			return queryCount(db, "SELECT COUNT(*) FROM export_jobs WHERE status = 'PROCESSING'")
		},
	))

	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "export_jobs_failed_24h",
			Help: "Export jobs that failed in the last 24 hours",
		},
		func() float64 {
			return queryCount(db, "SELECT COUNT(*) FROM export_jobs WHERE status = 'FAILED' AND created_at > NOW() - INTERVAL '24 hours'")
		},
	))
}

func queryCount(db *sql.DB, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		logging.Warn().Err(err).Msg("metrics query failed")
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
