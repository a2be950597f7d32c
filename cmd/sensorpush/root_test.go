package main

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sensorpush"
)

type syncCountingCore struct {
	zapcore.Core
	syncs *atomic.Int32
}

func (c syncCountingCore) Sync() error {
	c.syncs.Add(1)
	return c.Core.Sync()
}

func newObservedRoot(t *testing.T, apiURL string) (func(args ...string) error, *observer.ObservedLogs, *atomic.Int32) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	syncs := &atomic.Int32{}

	var out, errOut bytes.Buffer
	c, rf := newCmdRoot(&Writer{Out: &out, Err: &errOut}, testConfig(t, apiURL))
	rf.newLogger = func(string, string) (*zap.Logger, error) {
		return zap.New(syncCountingCore{Core: core, syncs: syncs}), nil
	}
	exec := func(args ...string) error {
		c.SetArgs(args)
		return runRoot(context.Background(), c, rf)
	}
	return exec, logs, syncs
}

func TestLoggerIsSyncedWhenCommandFails(t *testing.T) {
	api := newAPIStub(t)
	exec, _, syncs := newObservedRoot(t, api.URL)

	err := exec("sensors", "-u", "me@example.com", "-p", "wrong", "--no-session")
	require.Error(t, err)
	assert.EqualValues(t, 1, syncs.Load())
}

func TestComponentLoggersAreNamed(t *testing.T) {
	api := newAPIStub(t)
	exec, logs, _ := newObservedRoot(t, api.URL)

	require.NoError(t, exec("sensors", "-u", "me@example.com", "-p", "secret", "--no-session"))

	authorized := logs.FilterMessage("authorized").All()
	require.Len(t, authorized, 1)
	assert.Equal(t, "client", authorized[0].LoggerName)
}

func sessionFlags(t *testing.T, apiURL string, authorizedAt time.Time, input string) (*RootFlags, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, writeSession(path, savedSession{
		Email: "me@example.com",
		Session: sensorpush.Session{
			Authorization: "auth-code",
			AccessToken:   "token",
			AuthorizedAt:  authorizedAt,
			TokenAt:       time.Now(),
		},
	}))

	var out bytes.Buffer
	return &RootFlags{
		APIURL:      apiURL,
		SessionFile: path,
		MinInterval: time.Minute,
		cfg:         testConfig(t, apiURL),
		log:         zap.NewNop(),
		prompt:      &prompter{in: bufio.NewReader(strings.NewReader(input)), out: &out},
	}, &out
}

func TestNewClient_SessionSparesPassword(t *testing.T) {
	api := newAPIStub(t)
	rf, out := sessionFlags(t, api.URL, time.Now(), "")

	c, err := rf.newClient(1)
	require.NoError(t, err)
	assert.Empty(t, out.String())
	assert.Equal(t, "me@example.com", c.Email())
	assert.True(t, c.AuthOK())
}

func TestNewClient_LongRunningAsksForPassword(t *testing.T) {
	api := newAPIStub(t)
	rf, out := sessionFlags(t, api.URL, time.Now(), "secret\n")

	c, err := rf.newClient(longRunning)
	require.NoError(t, err)
	assert.Equal(t, "password: ", out.String())
	assert.Equal(t, "me@example.com", c.Email())

	// Authorizing again works once the session is gone
	_, err = c.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("/api/v1/oauth/authorize"))
}

func TestNewClient_SessionExpiringDuringCommand(t *testing.T) {
	api := newAPIStub(t)
	authorizedAt := time.Now().Add(-sensorpush.DefaultAuthTimeout + 2*time.Minute)

	rf, out := sessionFlags(t, api.URL, authorizedAt, "")
	_, err := rf.newClient(1)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	// Four throttled requests outlast the authorization
	rf, out = sessionFlags(t, api.URL, authorizedAt, "secret\n")
	_, err = rf.newClient(4)
	require.NoError(t, err)
	assert.Equal(t, "password: ", out.String())

	rf, _ = sessionFlags(t, api.URL, authorizedAt, "")
	_, err = rf.newClient(4)
	assert.Error(t, err)
}
