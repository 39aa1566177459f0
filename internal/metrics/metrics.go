package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReqCount 统计 HTTP 请求总量
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitlog_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ReqDuration 统计请求耗时分布
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "habitlog_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	// UpsertCount 统计进度账本的写入次数
	UpsertCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitlog_progress_upserts_total",
			Help: "Total daily progress upserts",
		},
		[]string{"kind"},
	)
)

// Register 将指标注册到默认 registry，重复注册会 panic，只在启动时调用一次。
func Register() {
	prometheus.MustRegister(ReqCount, ReqDuration, UpsertCount)
}
