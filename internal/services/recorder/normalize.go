package recorder

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordToPoint maps a Record onto an InfluxDB point of its measurement.
func RecordToPoint(rec Record) *write.Point {
	tags := make(map[string]string, len(rec.Tags))
	for k, v := range rec.Tags {
		if v != "" {
			tags[k] = v
		}
	}
	fields := make(map[string]interface{}, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	if _, ok := fields["count"]; !ok {
		fields["count"] = int64(1)
	}
	return influxdb2.NewPoint(rec.Measurement, tags, fields, rec.Timestamp)
}
