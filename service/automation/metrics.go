package automation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 自动化执行指标
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workhub_automation_runs_total",
		Help: "自动化执行总数，按类型和结果分类",
	}, []string{"automation_type", "result"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workhub_automation_run_duration_seconds",
		Help:    "自动化执行耗时分布",
		Buckets: prometheus.DefBuckets,
	}, []string{"automation_type"})

	itemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workhub_automation_items_processed_total",
		Help: "自动化处理条目累计数",
	}, []string{"automation_type"})
)
