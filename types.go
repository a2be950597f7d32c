package sensorpush

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Gateway is a SensorPush G1 WiFi gateway registered to the account.
type Gateway struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LastAlert time.Time `json:"last_alert"`
	LastSeen  time.Time `json:"last_seen"`
	Message   string    `json:"message,omitempty"`
	Paired    bool      `json:"paired"`
	Version   string    `json:"version"`
}

// Sensor is a temperature/humidity sensor registered to the account.
type Sensor struct {
	ID             string      `json:"id"`
	DeviceID       string      `json:"device_id"`
	Name           string      `json:"name"`
	Active         bool        `json:"active"`
	Address        string      `json:"address"`
	BatteryVoltage float64     `json:"battery_voltage"`
	RSSI           int         `json:"rssi"`
	Type           string      `json:"type"`
	Calibration    Calibration `json:"calibration"`
	Alerts         Alerts      `json:"alerts"`
}

type Calibration struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

type Alerts struct {
	Temperature Alert `json:"temperature"`
	Humidity    Alert `json:"humidity"`
}

type Alert struct {
	Enabled bool    `json:"enabled"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Sample is a single observation. Temperature is in °F and Humidity in %rH,
// as reported by the API.
type Sample struct {
	SensorID           string    `json:"sensor_id"`
	Observed           time.Time `json:"observed"`
	Temperature        float64   `json:"temperature"`
	Humidity           float64   `json:"humidity"`
	DewPoint           *float64  `json:"dewpoint,omitempty"`
	BarometricPressure *float64  `json:"barometric_pressure,omitempty"`
	VPD                *float64  `json:"vpd,omitempty"`
	Altitude           *float64  `json:"altitude,omitempty"`
}

// Temp returns the sample temperature as a physical quantity.
func (s Sample) Temp() physic.Temperature {
	return physic.ZeroFahrenheit + physic.Temperature(math.Round(s.Temperature*float64(physic.Fahrenheit)))
}

// Celsius returns the sample temperature in °C.
func (s Sample) Celsius() float64 {
	return (s.Temperature - 32) * 5 / 9
}

// RH returns the sample humidity as a physical quantity.
func (s Sample) RH() physic.RelativeHumidity {
	return physic.RelativeHumidity(math.Round(s.Humidity * float64(physic.PercentRH)))
}

// Samples is the decoded response of the samples endpoint.
type Samples struct {
	LastTime     time.Time           `json:"last_time"`
	Truncated    bool                `json:"truncated"`
	Status       string              `json:"status"`
	TotalSamples int                 `json:"total_samples"`
	TotalSensors int                 `json:"total_sensors"`
	Sensors      map[string][]Sample `json:"sensors"`
}

// All flattens the samples, ordered by sensor ID then observation time.
func (s *Samples) All() []Sample {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Sensors))
	for id := range s.Sensors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Sample
	for _, id := range ids {
		list := append([]Sample(nil), s.Sensors[id]...)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Observed.Before(list[j].Observed)
		})
		out = append(out, list...)
	}
	return out
}

// SampleQuery selects which samples to retrieve.
type SampleQuery struct {
	Limit     int
	StartTime time.Time
	StopTime  time.Time
	Sensors   []string
}

const defaultSampleLimit = 100

func (q SampleQuery) params() map[string]any {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSampleLimit
	}
	params := map[string]any{"limit": limit}
	if !q.StartTime.IsZero() {
		params["startTime"] = q.StartTime.Format(time.RFC3339)
	}
	if !q.StopTime.IsZero() {
		params["stopTime"] = q.StopTime.Format(time.RFC3339)
	}
	if len(q.Sensors) > 0 {
		params["sensors"] = q.Sensors
	}
	return params
}

// Wire representations

type gatewayWire struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	LastAlert string   `json:"last_alert"`
	LastSeen  string   `json:"last_seen"`
	Message   *string  `json:"message"`
	Paired    flexBool `json:"paired"`
	Version   string   `json:"version"`
}

type sensorWire struct {
	ID             string      `json:"id"`
	DeviceID       string      `json:"deviceId"`
	Name           string      `json:"name"`
	Active         flexBool    `json:"active"`
	Address        string      `json:"address"`
	BatteryVoltage float64     `json:"battery_voltage"`
	RSSI           int         `json:"rssi"`
	Type           string      `json:"type"`
	Calibration    Calibration `json:"calibration"`
	Alerts         Alerts      `json:"alerts"`
}

type sampleWire struct {
	Observed           string   `json:"observed"`
	Temperature        float64  `json:"temperature"`
	Humidity           float64  `json:"humidity"`
	DewPoint           *float64 `json:"dewpoint"`
	BarometricPressure *float64 `json:"barometric_pressure"`
	VPD                *float64 `json:"vpd"`
	Altitude           *float64 `json:"altitude"`
}

type samplesWire struct {
	LastTime     string                  `json:"last_time"`
	Truncated    bool                    `json:"truncated"`
	Status       string                  `json:"status"`
	TotalSamples int                     `json:"total_samples"`
	TotalSensors int                     `json:"total_sensors"`
	Sensors      map[string][]sampleWire `json:"sensors"`
}

// flexBool accepts both JSON booleans and the "true"/"false" strings the
// gateway endpoint sends.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

// Parse an API timestamp, zero when empty or malformed
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func decodeGateways(data []byte) ([]Gateway, error) {
	var resp map[string]gatewayWire
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	gateways := make([]Gateway, 0, len(resp))
	for key, g := range resp {
		gw := Gateway{
			ID:        key,
			Name:      g.Name,
			LastAlert: parseTime(g.LastAlert),
			LastSeen:  parseTime(g.LastSeen),
			Paired:    bool(g.Paired),
			Version:   g.Version,
		}
		if g.ID != "" {
			gw.ID = g.ID
		}
		if gw.Name == "" {
			gw.Name = key
		}
		if g.Message != nil {
			gw.Message = *g.Message
		}
		gateways = append(gateways, gw)
	}
	sort.Slice(gateways, func(i, j int) bool {
		if gateways[i].Name != gateways[j].Name {
			return gateways[i].Name < gateways[j].Name
		}
		return gateways[i].ID < gateways[j].ID
	})
	return gateways, nil
}

func decodeSensors(data []byte) ([]Sensor, error) {
	var resp map[string]sensorWire
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	sensors := make([]Sensor, 0, len(resp))
	for key, s := range resp {
		sensor := Sensor{
			ID:             s.ID,
			DeviceID:       s.DeviceID,
			Name:           s.Name,
			Active:         bool(s.Active),
			Address:        s.Address,
			BatteryVoltage: s.BatteryVoltage,
			RSSI:           s.RSSI,
			Type:           s.Type,
			Calibration:    s.Calibration,
			Alerts:         s.Alerts,
		}
		if sensor.ID == "" {
			sensor.ID = key
		}
		sensors = append(sensors, sensor)
	}
	sort.Slice(sensors, func(i, j int) bool {
		if sensors[i].Name != sensors[j].Name {
			return sensors[i].Name < sensors[j].Name
		}
		return sensors[i].ID < sensors[j].ID
	})
	return sensors, nil
}

func decodeSamples(data []byte) (*Samples, error) {
	var resp samplesWire
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	samples := &Samples{
		LastTime:     parseTime(resp.LastTime),
		Truncated:    resp.Truncated,
		Status:       resp.Status,
		TotalSamples: resp.TotalSamples,
		TotalSensors: resp.TotalSensors,
		Sensors:      make(map[string][]Sample, len(resp.Sensors)),
	}
	for id, list := range resp.Sensors {
		out := make([]Sample, 0, len(list))
		for _, s := range list {
			out = append(out, Sample{
				SensorID:           id,
				Observed:           parseTime(s.Observed),
				Temperature:        s.Temperature,
				Humidity:           s.Humidity,
				DewPoint:           s.DewPoint,
				BarometricPressure: s.BarometricPressure,
				VPD:                s.VPD,
				Altitude:           s.Altitude,
			})
		}
		samples.Sensors[id] = out
	}
	return samples, nil
}
