package recorder

import (
	"encoding/json"
	"net/http"
	"time"
)

// ConnChecker reports broker connectivity; mqtt.Client satisfies it.
type ConnChecker interface {
	IsConnectionOpen() bool
}

type healthStatus struct {
	Status          string  `json:"status"`
	MQTTConnected   bool    `json:"mqtt_connected"`
	InfluxOK        bool    `json:"influx_ok"`
	LastWriteErrorS float64 `json:"last_write_error_age_sec"`
}

func check(m ConnChecker, influxOK bool, wr *Writer, minErrAge time.Duration) healthStatus {
	st := healthStatus{
		MQTTConnected:   m != nil && m.IsConnectionOpen(),
		InfluxOK:        influxOK,
		LastWriteErrorS: wr.LastErrorAge().Seconds(),
	}
	switch {
	case st.MQTTConnected && st.InfluxOK && wr.LastErrorAge() > minErrAge:
		st.Status = "ok"
	case st.MQTTConnected || st.InfluxOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}
	return st
}

// NewHealthHandler always answers 200 with the dependency status.
func NewHealthHandler(m ConnChecker, influxOK bool, wr *Writer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(check(m, influxOK, wr, 30*time.Second))
	})
}

// NewReadyHandler answers 503 unless every dependency is ok and no write
// failed within minErrAge.
func NewReadyHandler(m ConnChecker, influxOK bool, wr *Writer, minErrAge time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ready := check(m, influxOK, wr, minErrAge).Status == "ok"
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
	})
}
