package multipart

import "github.com/prometheus/client_golang/prometheus"

const metricsPrefix = "relaysum_"

var (
	partsUploadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "parts_uploaded_total",
		Help: "Number of multipart parts uploaded.",
	})
	partBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "part_bytes_total",
		Help: "Number of bytes uploaded in multipart parts.",
	})
	partRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "part_retries_total",
		Help: "Number of failed part upload attempts that were retried.",
	})
	uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "uploads_total",
		Help: "Number of multipart uploads by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		partsUploadedTotal,
		partBytesTotal,
		partRetriesTotal,
		uploadsTotal,
	)
}
