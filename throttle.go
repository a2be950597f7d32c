package sensorpush

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// reqOK enforces the minimum interval between data requests. In blocking
// mode it waits for the remainder of the interval, otherwise it fails with
// ErrRateLimited. The caller holds c.mu.
func (c *Client) reqOK(ctx context.Context) error {
	if c.minInterval <= 0 || c.lastAccess.IsZero() {
		return nil
	}

	elapsed := c.now().Sub(c.lastAccess)
	if elapsed >= c.minInterval {
		return nil
	}

	remaining := c.minInterval - elapsed
	if !c.block {
		return fmt.Errorf("%w: next request allowed in %s", ErrRateLimited, remaining.Round(time.Second))
	}

	c.log.Info("waiting before next request", zap.Duration("wait", remaining))
	if err := c.sleep(ctx, remaining); err != nil {
		return err
	}
	throttleWait.Add(remaining.Seconds())
	return nil
}
