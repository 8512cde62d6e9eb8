package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP request metrics, observed by the apiutil metrics middleware
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersvc_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "usersvc_http_request_duration_seconds",
			Help:    "Latency in seconds to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

// User lifecycle metrics
var (
	UsersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "usersvc_users_created_total",
			Help: "Total number of user records created",
		},
	)

	UsersDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "usersvc_users_deleted_total",
			Help: "Total number of user records deleted",
		},
	)
)

// Database connection pool metrics
var (
	DBOpenConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "usersvc_db_open_connections",
			Help: "Number of open connections in the DB pool",
		},
		[]string{"db"},
	)

	DBIdleConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "usersvc_db_idle_connections",
			Help: "Number of idle connections in the DB pool",
		},
		[]string{"db"},
	)

	DBInUseConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "usersvc_db_in_use_connections",
			Help: "Number of in-use connections in the DB pool",
		},
		[]string{"db"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration)
	prometheus.MustRegister(UsersCreated, UsersDeleted)
	prometheus.MustRegister(DBOpenConns, DBIdleConns, DBInUseConns)
}
