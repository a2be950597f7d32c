package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"sensorpush"
)

var header = []string{"sensor_id", "sensor_name", "observed", "temperature_f", "temperature_c", "humidity"}

type CSVWriter struct {
	writer *csv.Writer
	names  map[string]string
}

// NewCSVWriter writes samples to w. names maps sensor IDs to display names
// and may be nil.
func NewCSVWriter(w io.Writer, names map[string]string) *CSVWriter {
	return &CSVWriter{
		writer: csv.NewWriter(w),
		names:  names,
	}
}

// WriteAll writes the header followed by one row per sample
func (cw *CSVWriter) WriteAll(samples []sensorpush.Sample) error {
	if err := cw.writer.Write(header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, s := range samples {
		if err := cw.writer.Write(cw.row(s)); err != nil {
			return fmt.Errorf("error writing CSV: %w", err)
		}
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

func (cw *CSVWriter) row(s sensorpush.Sample) []string {
	return []string{
		s.SensorID,
		cw.names[s.SensorID],
		s.Observed.UTC().Format(time.RFC3339),
		strconv.FormatFloat(s.Temperature, 'f', 1, 64),
		strconv.FormatFloat(s.Celsius(), 'f', 1, 64),
		strconv.FormatFloat(s.Humidity, 'f', 1, 64),
	}
}
