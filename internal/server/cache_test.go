package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheExpires(t *testing.T) {
	c := NewCache()
	now := time.Date(2019, 1, 28, 18, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	resp := NewResponse("data", time.Minute)
	c.Set("sensors", resp, time.Hour)
	assert.Same(t, resp, c.Get("sensors"))
	assert.Equal(t, "2019-01-28T18:00:00Z", resp.Timestamp)
	assert.Equal(t, now.Add(time.Minute), resp.ExpiresAt)

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.Get("sensors"))

	backup := c.GetBackup("sensors")
	require.NotNil(t, backup)
	assert.Equal(t, "data", backup.Data)

	now = now.Add(2 * time.Hour)
	assert.Nil(t, c.GetBackup("sensors"))
}

func TestCacheErrorKeepsBackup(t *testing.T) {
	c := NewCache()

	c.Set("samples", NewResponse("good", time.Minute), time.Hour)
	c.Set("samples", ErrorResponse("boom", time.Minute), time.Hour)

	got := c.Get("samples")
	require.NotNil(t, got)
	assert.Equal(t, "boom", got.Error)
	assert.Nil(t, got.Data)

	backup := c.GetBackup("samples")
	require.NotNil(t, backup)
	assert.Equal(t, "good", backup.Data)
}

func TestCacheMissingKey(t *testing.T) {
	c := NewCache()
	assert.Nil(t, c.Get("nope"))
	assert.Nil(t, c.GetBackup("nope"))
}

func TestDegradedResponse(t *testing.T) {
	c := NewCache()
	now := time.Date(2019, 1, 28, 18, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("gateways", NewResponse("old", time.Minute), time.Hour)
	now = now.Add(5 * time.Minute)
	backup := c.GetBackup("gateways")
	require.NotNil(t, backup)

	got := DegradedResponse(backup, ErrorResponse("unreachable", time.Minute))
	c.Set("gateways", got, time.Hour)
	assert.True(t, got.Degraded)
	assert.Equal(t, "old", got.Data)
	assert.Equal(t, "2019-01-28T18:00:00Z", got.Timestamp)
	assert.Equal(t, "unreachable", got.Error)
	assert.Equal(t, now.Add(time.Minute), got.ExpiresAt)

	// The backup still dates from the last success
	assert.Equal(t, backup, c.GetBackup("gateways"))
}

func TestStaleResponse(t *testing.T) {
	backup := &Response{Data: "old", Timestamp: "2019-01-28T18:00:00Z"}
	got := StaleResponse(backup)
	assert.True(t, got.Degraded)
	assert.Empty(t, got.Error)
	assert.Equal(t, "old", got.Data)
	assert.Equal(t, backup.Timestamp, got.Timestamp)
}
