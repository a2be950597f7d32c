package sensorpush

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL = "https://api.sensorpush.com"

	DefaultAuthTimeout  = 60 * time.Minute
	DefaultTokenTimeout = 30 * time.Minute
	// At most one data request per minute
	DefaultMinInterval = 60 * time.Second
)

// Client is a SensorPush cloud API client. Authentication happens lazily on
// the first data request and is renewed when the authorization or the access
// token gets too old. A Client is safe for concurrent use; requests are
// serialized.
type Client struct {
	email    string
	password string

	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        *zap.Logger

	authTimeout  time.Duration
	tokenTimeout time.Duration
	minInterval  time.Duration
	block        bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	session    Session
	lastAccess time.Time
	last       Snapshot
}

// Session is the authentication state of a Client. It can be saved and
// handed to another Client with WithSession.
type Session struct {
	Authorization string    `json:"authorization,omitempty"`
	APIKey        string    `json:"apikey,omitempty"`
	AccessToken   string    `json:"accesstoken,omitempty"`
	AuthorizedAt  time.Time `json:"authorized_at,omitempty"`
	TokenAt       time.Time `json:"token_at,omitempty"`
}

// Snapshot holds the last data retrieved by each endpoint.
type Snapshot struct {
	Gateways   []Gateway
	GatewaysAt time.Time
	Sensors    []Sensor
	SensorsAt  time.Time
	Samples    *Samples
	SamplesAt  time.Time
}

type Option func(c *Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMinInterval sets the minimum time between two data requests. Zero
// disables the throttle.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.minInterval = d
		}
	}
}

func WithAuthTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.authTimeout = d
		}
	}
}

func WithTokenTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.tokenTimeout = d
		}
	}
}

// WithNonBlocking makes throttled requests fail with ErrRateLimited instead
// of waiting.
func WithNonBlocking() Option {
	return func(c *Client) {
		c.block = false
	}
}

// WithSession resumes a previously saved session.
func WithSession(s Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

func withClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

// New creates a client for the given account credentials.
func New(email, password string, opts ...Option) *Client {
	c := &Client{
		email:        email,
		password:     password,
		baseURL:      DefaultAPIURL,
		userAgent:    defaultUserAgent,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          zap.NewNop(),
		authTimeout:  DefaultAuthTimeout,
		tokenTimeout: DefaultTokenTimeout,
		minInterval:  DefaultMinInterval,
		block:        true,
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Email returns the account the client authenticates as.
func (c *Client) Email() string {
	return c.email
}

// Session returns a copy of the current authentication state.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Last returns the data retrieved by the most recent successful calls.
func (c *Client) Last() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
