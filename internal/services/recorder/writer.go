package recorder

import (
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
)

// PointWriter is the part of the InfluxDB non-blocking write API we use.
type PointWriter interface {
	WritePoint(point *write.Point)
	Errors() <-chan error
}

// Writer writes records and remembers when the last write error happened,
// for /healthz and /readyz.
type Writer struct {
	api     PointWriter
	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
	now     func() time.Time
}

func NewWriter(w PointWriter) *Writer {
	ww := &Writer{
		api:    w,
		counts: make(map[string]int64),
		now:    time.Now,
	}
	go ww.watchErrors()
	return ww
}

func (w *Writer) watchErrors() {
	log := logging.With("influx-writer")
	for err := range w.api.Errors() {
		if err == nil {
			continue
		}
		w.mu.Lock()
		w.lastErr = w.now()
		w.mu.Unlock()
		writeErrorsTotal.Inc()
		log.Error().Err(err).Msg("influx write error")
	}
}

func (w *Writer) Write(rec Record) {
	w.api.WritePoint(RecordToPoint(rec))
	recordsWrittenTotal.WithLabelValues(rec.Measurement).Inc()
	w.mu.Lock()
	w.counts[rec.Measurement]++
	w.mu.Unlock()
}

// LastErrorAge is the time since the last write error, or a very large
// duration when none happened.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	if t.IsZero() {
		return 99999 * time.Hour
	}
	return w.now().Sub(t)
}

func (w *Writer) Count(measurement string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.counts[measurement]
}
