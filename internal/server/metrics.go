package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensorpush"
)

type Metrics struct {
	registry *prometheus.Registry

	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	observed    *prometheus.GaugeVec
	battery     *prometheus.GaugeVec
	rssi        *prometheus.GaugeVec
	gatewaySeen *prometheus.GaugeVec
	broadcasts  prometheus.Counter
}

func NewMetrics() *Metrics {
	sensorLabels := []string{"sensor_id", "name"}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensorpush",
			Name:      "temperature_celsius",
			Help:      "Latest temperature reported by the sensor.",
		}, sensorLabels),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensorpush",
			Name:      "humidity_percent",
			Help:      "Latest relative humidity reported by the sensor.",
		}, sensorLabels),
		observed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensorpush",
			Name:      "sample_timestamp_seconds",
			Help:      "Observation time of the latest sample of the sensor.",
		}, sensorLabels),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensorpush",
			Name:      "battery_volts",
			Help:      "Battery voltage of the sensor.",
		}, sensorLabels),
		rssi: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensorpush",
			Name:      "rssi_dbm",
			Help:      "Signal strength of the sensor as seen by its gateway.",
		}, sensorLabels),
		gatewaySeen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sensorpush",
			Name:      "gateway_last_seen_timestamp_seconds",
			Help:      "Last time the gateway contacted the SensorPush cloud.",
		}, []string{"gateway", "version"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensorpush",
			Name:      "websocket_broadcasts_total",
			Help:      "Sample batches pushed to websocket clients.",
		}),
	}

	m.registry.MustRegister(
		m.temperature,
		m.humidity,
		m.observed,
		m.battery,
		m.rssi,
		m.gatewaySeen,
		m.broadcasts,
	)
	m.registry.MustRegister(sensorpush.Collectors()...)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSensor(s sensorpush.Sensor) {
	m.battery.WithLabelValues(s.ID, s.Name).Set(s.BatteryVoltage)
	m.rssi.WithLabelValues(s.ID, s.Name).Set(float64(s.RSSI))
}

func (m *Metrics) ObserveSample(s sensorpush.Sample, name string) {
	m.temperature.WithLabelValues(s.SensorID, name).Set(s.Celsius())
	m.humidity.WithLabelValues(s.SensorID, name).Set(s.Humidity)
	m.observed.WithLabelValues(s.SensorID, name).Set(float64(s.Observed.Unix()))
}

func (m *Metrics) ObserveGateway(g sensorpush.Gateway) {
	if g.LastSeen.IsZero() {
		return
	}
	m.gatewaySeen.WithLabelValues(g.Name, g.Version).Set(float64(g.LastSeen.Unix()))
}
