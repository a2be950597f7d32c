package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorpush"
)

func TestCSVWriter_WriteAll(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, map[string]string{"a": "Kitchen"})

	err := w.WriteAll([]sensorpush.Sample{
		{SensorID: "a", Observed: time.Date(2019, 1, 28, 18, 0, 0, 0, time.UTC), Temperature: 212, Humidity: 45.04},
		{SensorID: "b", Observed: time.Date(2019, 1, 28, 18, 1, 0, 0, time.UTC), Temperature: 32, Humidity: 50},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"sensor_id,sensor_name,observed,temperature_f,temperature_c,humidity\n"+
			"a,Kitchen,2019-01-28T18:00:00Z,212.0,100.0,45.0\n"+
			"b,,2019-01-28T18:01:00Z,32.0,0.0,50.0\n",
		buf.String())
}

func TestCSVWriter_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(&buf, nil).WriteAll(nil))
	assert.Equal(t, "sensor_id,sensor_name,observed,temperature_f,temperature_c,humidity\n", buf.String())
}
