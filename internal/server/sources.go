package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sensorpush"
)

// API is the part of the SensorPush client used by the server.
type API interface {
	Gateways(ctx context.Context) ([]sensorpush.Gateway, error)
	Sensors(ctx context.Context) ([]sensorpush.Sensor, error)
	Samples(ctx context.Context, q sensorpush.SampleQuery) (*sensorpush.Samples, error)
}

const (
	sensorsTTL  = 1 * time.Hour
	gatewaysTTL = 15 * time.Minute
	// Time before a failed fetch is tried again
	errorTTL = 1 * time.Minute
)

type SensorsSource struct {
	api API
	log *zap.Logger
}

func NewSensorsSource(api API, log *zap.Logger) *SensorsSource {
	return &SensorsSource{api: api, log: log.Named("sensors")}
}

func (s *SensorsSource) Name() string               { return "sensors" }
func (s *SensorsSource) DegradedTTL() time.Duration { return 24 * time.Hour }

func (s *SensorsSource) Fetch(ctx context.Context) *Response {
	sensors, err := s.api.Sensors(ctx)
	if err != nil {
		s.log.Warn("fetch failed", zap.Error(err))
		return ErrorResponse(err.Error(), errorTTL)
	}
	return NewResponse(sensors, sensorsTTL)
}

type GatewaysSource struct {
	api API
	log *zap.Logger
}

func NewGatewaysSource(api API, log *zap.Logger) *GatewaysSource {
	return &GatewaysSource{api: api, log: log.Named("gateways")}
}

func (s *GatewaysSource) Name() string               { return "gateways" }
func (s *GatewaysSource) DegradedTTL() time.Duration { return 24 * time.Hour }

func (s *GatewaysSource) Fetch(ctx context.Context) *Response {
	gateways, err := s.api.Gateways(ctx)
	if err != nil {
		s.log.Warn("fetch failed", zap.Error(err))
		return ErrorResponse(err.Error(), errorTTL)
	}
	return NewResponse(gateways, gatewaysTTL)
}

type SamplesSource struct {
	api   API
	log   *zap.Logger
	limit int
	ttl   time.Duration
}

// NewSamplesSource fetches the latest limit samples, kept for ttl.
func NewSamplesSource(api API, log *zap.Logger, limit int, ttl time.Duration) *SamplesSource {
	return &SamplesSource{api: api, log: log.Named("samples"), limit: limit, ttl: ttl}
}

func (s *SamplesSource) Name() string               { return "samples" }
func (s *SamplesSource) DegradedTTL() time.Duration { return 1 * time.Hour }

func (s *SamplesSource) Fetch(ctx context.Context) *Response {
	samples, err := s.api.Samples(ctx, sensorpush.SampleQuery{Limit: s.limit})
	if err != nil {
		s.log.Warn("fetch failed", zap.Error(err))
		return ErrorResponse(err.Error(), errorTTL)
	}
	return NewResponse(samples, s.ttl)
}
