package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	LoansCreatedTotal   *prometheus.CounterVec
	RepaymentsTotal     *prometheus.CounterVec
	OverdueInstallments prometheus.Gauge
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		LoansCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_loans_created_total",
				Help: "Total number of loans created.",
			},
			[]string{"currency"},
		),
		RepaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_repayments_total",
				Help: "Total number of repayment attempts by outcome.",
			},
			[]string{"outcome"},
		),
		OverdueInstallments: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lending_engine_overdue_installments",
				Help: "Number of installments past due with an outstanding amount, as of the last report run.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordLoanCreated(currency string) {
	Business.LoansCreatedTotal.WithLabelValues(currency).Inc()
}

func RecordRepayment(outcome string) {
	Business.RepaymentsTotal.WithLabelValues(outcome).Inc()
}

func RecordOverdueInstallments(count int) {
	Business.OverdueInstallments.Set(float64(count))
}
