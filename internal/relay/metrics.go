package relay

import "github.com/prometheus/client_golang/prometheus"

const metricsPrefix = "relaysum_"

var (
	stageChunksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "stage_chunks_total",
		Help: "Number of chunks folded into relay accumulators.",
	})
	stageBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "stage_bytes_total",
		Help: "Number of bytes folded into relay accumulators.",
	})
	stagesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "stages_completed_total",
		Help: "Number of relay stages that reached completion.",
	})
	stagesAbortedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "stages_aborted_total",
		Help: "Number of relay stages aborted before completion.",
	})
	handlerFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "handler_failures_total",
		Help: "Number of completion handlers that returned an error.",
	})
)

func init() {
	prometheus.MustRegister(
		stageChunksTotal,
		stageBytesTotal,
		stagesCompletedTotal,
		stagesAbortedTotal,
		handlerFailuresTotal,
	)
}
