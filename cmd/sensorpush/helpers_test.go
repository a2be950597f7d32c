package main

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorpush"
)

func TestParseTimeFlag(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"", time.Time{}},
		{"2019-01-28T18:00:00Z", time.Date(2019, 1, 28, 18, 0, 0, 0, time.UTC)},
		{"2019-01-28T18:00:00+01:00", time.Date(2019, 1, 28, 17, 0, 0, 0, time.UTC)},
		{"2019-01-28", time.Date(2019, 1, 28, 0, 0, 0, 0, time.Local)},
		{"2019-01-28 18:30", time.Date(2019, 1, 28, 18, 30, 0, 0, time.Local)},
		{"2019-01-28T18:30:15", time.Date(2019, 1, 28, 18, 30, 15, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseTimeFlag("start", tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := parseTimeFlag("stop", "yesterday")
	assert.EqualError(t, err, `invalid --stop "yesterday", expected RFC 3339 or YYYY-MM-DD[ HH:MM[:SS]]`)
}

func TestSamplesFlagsValidate(t *testing.T) {
	now := time.Date(2019, 1, 28, 19, 0, 0, 0, time.UTC)

	q, err := (&SamplesFlags{Limit: 10, Last: 10 * time.Minute, Sensors: []string{"a"}}).Validate(now)
	require.NoError(t, err)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, now.Add(-10*time.Minute), q.StartTime)
	assert.True(t, q.StopTime.IsZero())
	assert.Equal(t, []string{"a"}, q.Sensors)

	_, err = (&SamplesFlags{Last: time.Minute, Start: "2019-01-28"}).Validate(now)
	assert.EqualError(t, err, "--last and --start are mutually exclusive")

	_, err = (&SamplesFlags{Start: "2019-01-28T18:00:00Z", Stop: "2019-01-28T17:00:00Z"}).Validate(now)
	assert.EqualError(t, err, "--stop is before the start of the range")

	_, err = (&SamplesFlags{Limit: -1}).Validate(now)
	assert.Error(t, err)
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	_, err := loadSession(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	at := time.Date(2019, 1, 28, 18, 0, 0, 0, time.UTC)
	want := savedSession{
		Email: "me@example.com",
		Session: sensorpush.Session{
			Authorization: "auth",
			APIKey:        "key",
			AccessToken:   "token",
			AuthorizedAt:  at,
			TokenAt:       at.Add(time.Minute),
		},
	}
	require.NoError(t, writeSession(path, want))

	got, err := loadSession(path)
	require.NoError(t, err)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.Session.AccessToken, got.Session.AccessToken)
	assert.True(t, want.Session.TokenAt.Equal(got.Session.TokenAt))

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = loadSession(path)
	assert.ErrorContains(t, err, "couldn't decode session file")
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := &prompter{in: bufio.NewReader(strings.NewReader("me@example.com\nsecret")), out: &out}

	user, err := p.Line("username: ")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", user)

	// Without a terminal the password is read as a plain line
	pw, err := p.Password("password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
	assert.Equal(t, "username: password: ", out.String())

	_, err = p.Line("again: ")
	assert.Error(t, err)
}

func TestPrompterHidesPassword(t *testing.T) {
	var out bytes.Buffer
	p := &prompter{
		in:           bufio.NewReader(strings.NewReader("")),
		out:          &out,
		readPassword: func() ([]byte, error) { return []byte("secret\n"), nil },
	}
	pw, err := p.Password("password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
	assert.Equal(t, "password: \n", out.String())
}

func TestPrintSensors(t *testing.T) {
	var out bytes.Buffer
	err := printSensors(&out, []sensorpush.Sensor{{
		ID:             "16775.302",
		Name:           "Kitchen",
		Active:         true,
		BatteryVoltage: 2.95,
		RSSI:           -70,
		Alerts: sensorpush.Alerts{
			Temperature: sensorpush.Alert{Enabled: true, Min: 40, Max: 80},
		},
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "NAME", "ACTIVE", "BATTERY", "RSSI", "TEMP", "ALERT", "RH", "ALERT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"16775.302", "Kitchen", "true", "2.95V", "-70", "40-80°F", "off"}, strings.Fields(lines[1]))

	out.Reset()
	require.NoError(t, printSensors(&out, nil))
	assert.Equal(t, "No sensors.\n", out.String())
}

func TestPrintSamplesTruncated(t *testing.T) {
	var out bytes.Buffer
	samples := &sensorpush.Samples{
		Truncated:    true,
		TotalSamples: 5,
		Sensors: map[string][]sensorpush.Sample{
			"a": {{SensorID: "a", Observed: time.Date(2019, 1, 28, 18, 0, 0, 0, time.UTC), Temperature: 212, Humidity: 50}},
		},
	}
	require.NoError(t, printSamples(&out, samples, map[string]string{"a": "Oven"}))
	assert.Contains(t, out.String(), "Oven")
	assert.Contains(t, out.String(), "212.0°F")
	assert.Contains(t, out.String(), "100.0°C")
	assert.Contains(t, out.String(), "50%rH")
	assert.Contains(t, out.String(), "Showing 1 of 5 samples")

	out.Reset()
	require.NoError(t, printSamples(&out, nil, nil))
	assert.Equal(t, "No samples.\n", out.String())
}
