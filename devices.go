package sensorpush

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	gatewaysPath = "/api/v1/devices/gateways"
	sensorsPath  = "/api/v1/devices/sensors"
	samplesPath  = "/api/v1/samples"
)

// Gateways lists the gateways registered to the account, ordered by name.
func (c *Client) Gateways(ctx context.Context) ([]Gateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.call(ctx, gatewaysPath, nil)
	if err != nil {
		return nil, fmt.Errorf("gateways: %w", err)
	}
	gateways, err := decodeGateways(data)
	if err != nil {
		return nil, fmt.Errorf("gateways: failed to decode response: %w", err)
	}

	c.last.Gateways = gateways
	c.last.GatewaysAt = c.now()
	return gateways, nil
}

// Sensors lists the sensors registered to the account, ordered by name.
func (c *Client) Sensors(ctx context.Context) ([]Sensor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.call(ctx, sensorsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}
	sensors, err := decodeSensors(data)
	if err != nil {
		return nil, fmt.Errorf("sensors: failed to decode response: %w", err)
	}

	c.last.Sensors = sensors
	c.last.SensorsAt = c.now()
	return sensors, nil
}

// Samples retrieves temperature and humidity samples. A zero Limit asks for
// the 100 most recent samples.
func (c *Client) Samples(ctx context.Context, q SampleQuery) (*Samples, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.call(ctx, samplesPath, q.params())
	if err != nil {
		return nil, fmt.Errorf("samples: %w", err)
	}
	samples, err := decodeSamples(data)
	if err != nil {
		return nil, fmt.Errorf("samples: failed to decode response: %w", err)
	}

	c.last.Samples = samples
	c.last.SamplesAt = c.now()
	return samples, nil
}

// Send an authenticated data request. A rate-limit answer is retried once
// after the throttle interval, and a rejected token is retried once right
// after authenticating again. The caller holds c.mu.
func (c *Client) call(ctx context.Context, path string, params map[string]any) ([]byte, error) {
	var data []byte
	op := func() error {
		if err := c.connect(ctx); err != nil {
			return backoff.Permanent(err)
		}
		if err := c.reqOK(ctx); err != nil {
			return backoff.Permanent(err)
		}

		lastAccess := c.lastAccess
		c.lastAccess = c.now()
		resp, err := c.postJSON(ctx, path, params, c.session.AccessToken)
		if err == nil {
			data = resp
			return nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return backoff.Permanent(err)
		}
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return err
		case http.StatusUnauthorized, http.StatusForbidden:
			// The rejected request does not count against the throttle
			c.session = Session{}
			c.lastAccess = lastAccess
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	err := backoff.RetryNotify(op, b, func(err error, _ time.Duration) {
		c.log.Warn("retrying request", zap.String("path", path), zap.Error(err))
	})
	return data, err
}
