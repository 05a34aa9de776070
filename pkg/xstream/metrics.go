package xstream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openfga/xstream/internal/build"
)

var (
	workItemsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "work_items_total",
		Help:      "The total number of work items executed by the scheduler, by kind and status.",
	}, []string{"kind", "status"})

	workItemDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:                       build.ProjectName,
		Name:                            "work_item_duration_ms",
		Help:                            "The time from the scheduler picking up a work item until it settled.",
		Buckets:                         []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: time.Hour,
	}, []string{"kind"})

	registeredStreamsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: build.ProjectName,
		Name:      "registered_streams",
		Help:      "The number of streams currently registered across all runtimes.",
	})
)

func statusLabel(status int32) string {
	switch status {
	case 0:
		return "ok"
	case -2:
		return "condition"
	default:
		return "runtime"
	}
}
