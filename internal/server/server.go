/*
Package server aggregates SensorPush data and serves it as JSON, Prometheus
metrics and a websocket feed of new samples.
*/
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"sensorpush"
)

// Recorder persists what the poll loop sees.
type Recorder interface {
	SaveSensors(ctx context.Context, sensors []sensorpush.Sensor) error
	SaveSamples(ctx context.Context, samples []sensorpush.Sample) (int, error)
}

type Config struct {
	Addr         string
	PollInterval time.Duration
	SampleLimit  int

	// Origins allowed to query the API from a browser, all when empty
	AllowedOrigins []string
}

type AllData struct {
	Sensors   *Response `json:"sensors"`
	Gateways  *Response `json:"gateways"`
	Samples   *Response `json:"samples"`
	Timestamp string    `json:"timestamp"`
}

// Event is pushed to websocket clients when the poll loop finds new samples.
type Event struct {
	Type    string              `json:"type"`
	Samples []sensorpush.Sample `json:"samples"`
}

type Server struct {
	cfg      Config
	log      *zap.Logger
	cache    *Cache
	sources  []Source
	hub      *Hub
	metrics  *Metrics
	recorder Recorder

	// Serializes cache misses so a burst of requests makes one API call
	fetchMu sync.Mutex

	mu       sync.Mutex
	names    map[string]string
	lastSeen map[string]time.Time
}

// New builds a server on top of api. Sources are polled in the order
// sensors, gateways, samples.
func New(api API, cfg Config, log *zap.Logger) *Server {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	return &Server{
		cfg:   cfg,
		log:   log,
		cache: NewCache(),
		sources: []Source{
			NewSensorsSource(api, log),
			NewGatewaysSource(api, log),
			// Expires before the next tick even when the poll ran late
			NewSamplesSource(api, log, cfg.SampleLimit, cfg.PollInterval/2),
		},
		hub:      NewHub(log),
		metrics:  NewMetrics(),
		names:    make(map[string]string),
		lastSeen: make(map[string]time.Time),
	}
}

// SetRecorder enables persistence of polled sensors and samples.
func (s *Server) SetRecorder(r Recorder) {
	s.recorder = r
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":    "ok",
			"clients":   s.hub.Count(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	for _, src := range s.sources {
		mux.HandleFunc("/api/"+src.Name(), s.sourceHandler(src))
	}

	mux.HandleFunc("/api/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.fetchAll(context.WithoutCancel(r.Context())))
	})

	mux.Handle("/metrics", s.metrics.Handler())
	mux.Handle("/ws", s.hub)

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}).Handler(mux)
}

// Run serves HTTP on cfg.Addr and polls the API until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pollLoop(pollCtx)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("server stopping")
	s.hub.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		s.Poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll refreshes every source through the cache and handles the result.
func (s *Server) Poll(ctx context.Context) {
	for _, src := range s.sources {
		if ctx.Err() != nil {
			return
		}
		resp := s.fetchCached(ctx, src, true)
		if resp.Data == nil {
			continue
		}
		s.handle(ctx, resp.Data)
	}
}

func (s *Server) handle(ctx context.Context, data any) {
	switch v := data.(type) {
	case []sensorpush.Sensor:
		s.mu.Lock()
		for _, sensor := range v {
			s.names[sensor.ID] = sensor.Name
			s.metrics.ObserveSensor(sensor)
		}
		s.mu.Unlock()
		if s.recorder != nil {
			if err := s.recorder.SaveSensors(ctx, v); err != nil {
				s.log.Error("could not record sensors", zap.Error(err))
			}
		}
	case []sensorpush.Gateway:
		for _, g := range v {
			s.metrics.ObserveGateway(g)
		}
	case *sensorpush.Samples:
		fresh := s.newSamples(v.All())
		if len(fresh) == 0 {
			return
		}
		if s.recorder != nil {
			n, err := s.recorder.SaveSamples(ctx, fresh)
			if err != nil {
				s.log.Error("could not record samples", zap.Error(err))
			} else {
				s.log.Debug("recorded samples", zap.Int("count", n))
			}
		}
		s.hub.Broadcast(Event{Type: "samples", Samples: fresh})
		s.metrics.broadcasts.Inc()
	}
}

// newSamples keeps the samples observed after the last one seen for their
// sensor and updates the gauges with the newest of each.
func (s *Server) newSamples(all []sensorpush.Sample) []sensorpush.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []sensorpush.Sample
	for _, sample := range all {
		if !sample.Observed.After(s.lastSeen[sample.SensorID]) {
			continue
		}
		fresh = append(fresh, sample)
	}
	// all is ordered by sensor then time, so the last one wins
	for _, sample := range fresh {
		s.lastSeen[sample.SensorID] = sample.Observed
		s.metrics.ObserveSample(sample, s.names[sample.SensorID])
	}
	return fresh
}

// A client going away does not abort the fetch, its result is cached for
// the next one.
func (s *Server) sourceHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.fetchCached(context.WithoutCancel(r.Context()), src, false))
	}
}

// Fetch source data with caching and degraded mode. Unless wait is set, a
// caller finding another fetch in flight gets the backup instead of queuing
// behind the throttle.
func (s *Server) fetchCached(ctx context.Context, src Source, wait bool) *Response {
	if cached := s.cache.Get(src.Name()); cached != nil {
		return cached
	}

	if !s.fetchMu.TryLock() {
		if !wait {
			if backup := s.cache.GetBackup(src.Name()); backup != nil {
				return StaleResponse(backup)
			}
		}
		s.fetchMu.Lock()
	}
	defer s.fetchMu.Unlock()

	// Another caller may have filled it while we waited
	if cached := s.cache.Get(src.Name()); cached != nil {
		return cached
	}

	resp := src.Fetch(ctx)
	if resp.Error != "" {
		if backup := s.cache.GetBackup(src.Name()); backup != nil {
			resp = DegradedResponse(backup, resp)
		}
	}

	s.cache.Set(src.Name(), resp, src.DegradedTTL())
	return resp
}

// Fetch all sources concurrently
func (s *Server) fetchAll(ctx context.Context) *AllData {
	results := make(map[string]*Response)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, src := range s.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			resp := s.fetchCached(ctx, src, false)
			mu.Lock()
			results[src.Name()] = resp
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return &AllData{
		Sensors:   results["sensors"],
		Gateways:  results["gateways"],
		Samples:   results["samples"],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Write JSON response
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
