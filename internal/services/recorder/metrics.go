package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recorder_records_written_total",
		Help: "Records handed to the InfluxDB writer, by measurement.",
	}, []string{"measurement"})

	writeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recorder_write_errors_total",
		Help: "Asynchronous InfluxDB write errors.",
	})

	dedupDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recorder_dedup_drops_total",
		Help: "Redelivered events dropped by the de-duplicator.",
	})

	decodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recorder_decode_errors_total",
		Help: "Events that could not be decoded.",
	})
)
