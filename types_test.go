package sensorpush

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestDecodeGateways(t *testing.T) {
	gateways, err := decodeGateways([]byte(gatewaysFixture))
	require.NoError(t, err)
	require.Len(t, gateways, 2)

	attic, garage := gateways[0], gateways[1]
	assert.Equal(t, "Attic", attic.ID)
	assert.False(t, attic.Paired)
	assert.True(t, attic.LastAlert.IsZero())
	assert.Equal(t, "offline", attic.Message)

	assert.Equal(t, "Garage", garage.Name)
	assert.True(t, garage.Paired)
	assert.Equal(t, "1.1.2", garage.Version)
	assert.Equal(t, time.Date(2019, 1, 28, 18, 56, 18, 0, time.UTC), garage.LastSeen.UTC())
	assert.Empty(t, garage.Message)
}

func TestDecodeSensorsUsesKeyWhenIDMissing(t *testing.T) {
	sensors, err := decodeSensors([]byte(`{"abc.1": {"name": "Shed", "active": "true"}}`))
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	assert.Equal(t, "abc.1", sensors[0].ID)
	assert.True(t, sensors[0].Active)
}

func TestDecodeSamples(t *testing.T) {
	samples, err := decodeSamples([]byte(samplesFixture))
	require.NoError(t, err)

	assert.Equal(t, 2, samples.TotalSensors)
	assert.False(t, samples.Truncated)

	basement := samples.Sensors["16776.303"]
	require.Len(t, basement, 1)
	assert.Equal(t, "16776.303", basement[0].SensorID)
	require.NotNil(t, basement[0].DewPoint)
	assert.Equal(t, 42.1, *basement[0].DewPoint)
	assert.Nil(t, basement[0].VPD)
}

func TestSamples_AllOrdersBySensorThenTime(t *testing.T) {
	samples, err := decodeSamples([]byte(samplesFixture))
	require.NoError(t, err)

	all := samples.All()
	require.Len(t, all, 3)
	assert.Equal(t, "16775.302", all[0].SensorID)
	assert.True(t, all[0].Observed.Before(all[1].Observed))
	assert.Equal(t, "16776.303", all[2].SensorID)

	var none *Samples
	assert.Nil(t, none.All())
}

func TestSample_Units(t *testing.T) {
	s := Sample{Temperature: 212, Humidity: 45.5}
	assert.InDelta(t, 100.0, s.Celsius(), 0.001)
	assert.InDelta(t, 212.0, s.Temp().Fahrenheit(), 0.001)
	assert.Equal(t, physic.RelativeHumidity(455*physic.PercentRH/10), s.RH())
	assert.Equal(t, "45.5%rH", s.RH().String())

	freezing := Sample{Temperature: 32}
	assert.InDelta(t, 0.0, freezing.Celsius(), 0.001)
}

func TestFlexBool(t *testing.T) {
	for input, want := range map[string]bool{
		`true`:    true,
		`"true"`:  true,
		`false`:   false,
		`"false"`: false,
		`null`:    false,
		`""`:      false,
	} {
		var b flexBool
		require.NoError(t, b.UnmarshalJSON([]byte(input)), input)
		assert.Equal(t, want, bool(b), input)
	}

	var b flexBool
	assert.Error(t, b.UnmarshalJSON([]byte(`"maybe"`)))
}

func TestSampleQueryParams(t *testing.T) {
	params := SampleQuery{Limit: 10}.params()
	assert.Equal(t, map[string]any{"limit": 10}, params)
}
