package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sensorpush/internal/server"
	"sensorpush/internal/store"
)

func NewCmdServe(rf *RootFlags) *cobra.Command {
	var (
		port   string
		db     string
		record bool
	)
	cfg := server.Config{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sensor data as JSON, Prometheus metrics and a websocket feed",
		Long: `Poll the SensorPush API and serve the results.

Endpoints:
  /health        liveness
  /api/sensors   sensors of the account
  /api/gateways  gateways of the account
  /api/samples   latest samples
  /api/all       all of the above
  /metrics       Prometheus metrics
  /ws            websocket feed of new samples`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rf.newClient(longRunning)
			if err != nil {
				return err
			}
			defer rf.saveSession(c)

			cfg.Addr = ":" + port
			if cfg.PollInterval < rf.MinInterval {
				rf.log.Warn("poll interval raised to the minimum request interval",
					zap.Duration("requested", cfg.PollInterval), zap.Duration("min", rf.MinInterval))
				cfg.PollInterval = rf.MinInterval
			}

			srv := server.New(c, cfg, rf.log.Named("server"))
			if record {
				st, err := store.Open(db, rf.log.Named("store"))
				if err != nil {
					return err
				}
				defer st.Close()
				srv.SetRecorder(st)
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&port, "port", rf.cfg.Port, "Port to listen on")
	cmd.Flags().DurationVar(&cfg.PollInterval, "poll-interval", rf.cfg.PollInterval, "Delay between two polls of the API")
	cmd.Flags().IntVarP(&cfg.SampleLimit, "limit", "n", rf.cfg.SampleLimit, "Number of latest samples per sensor to fetch")
	cmd.Flags().StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", rf.cfg.AllowedOrigins, "Origins allowed to query the API from a browser, all by default")
	cmd.Flags().BoolVar(&record, "record", false, "Store polled samples in the sqlite database")
	cmd.Flags().StringVar(&db, "db", rf.cfg.DBPath, "Path of the sqlite database used with --record")
	return cmd
}
