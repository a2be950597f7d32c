package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sensorpush"
	"sensorpush/internal/store"
)

type RecordResult struct {
	Database string `json:"database"`
	Sensors  int    `json:"sensors"`
	Fetched  int    `json:"fetched"`
	Recorded int    `json:"recorded"`
}

func NewCmdRecord(w io.Writer, rf *RootFlags) *cobra.Command {
	var (
		db    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Fetch samples and store them in a sqlite database",
		Long: `Fetch the sensors and their samples and store them in a sqlite
database. Samples already stored are skipped, so running it periodically
builds up a history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := store.Open(db, rf.log.Named("store"))
			if err != nil {
				return err
			}
			defer st.Close()

			c, err := rf.newClient(2)
			if err != nil {
				return err
			}
			defer rf.saveSession(c)

			sensors, err := c.Sensors(ctx)
			if err != nil {
				return err
			}
			if err := st.SaveSensors(ctx, sensors); err != nil {
				return err
			}

			start, err := resumeFrom(ctx, st, sensors)
			if err != nil {
				return err
			}

			q := sensorpush.SampleQuery{Limit: limit, StartTime: start}
			samples, err := c.Samples(ctx, q)
			if err != nil {
				return err
			}
			all := samples.All()
			n, err := st.SaveSamples(ctx, all)
			if err != nil {
				return err
			}
			rf.log.Info("recorded samples",
				zap.String("db", db), zap.Int("fetched", len(all)), zap.Int("new", n))

			res := RecordResult{Database: db, Sensors: len(sensors), Fetched: len(all), Recorded: n}
			if rf.Output == JSONOutput {
				return printJSON(w, res)
			}
			_, err = fmt.Fprintf(w, "Recorded %d new samples of %d sensors into %s (%d fetched).\n",
				res.Recorded, res.Sensors, res.Database, res.Fetched)
			return err
		},
	}

	cmd.Flags().StringVar(&db, "db", rf.cfg.DBPath, "Path of the sqlite database")
	cmd.Flags().IntVarP(&limit, "limit", "n", rf.cfg.SampleLimit, "Maximum number of samples per sensor")
	return cmd
}

// resumeFrom returns the oldest of the newest stored samples of the active
// sensors, or the zero time when one of them has no history yet.
func resumeFrom(ctx context.Context, st *store.Store, sensors []sensorpush.Sensor) (time.Time, error) {
	var start time.Time
	for _, s := range sensors {
		if !s.Active {
			continue
		}
		last, err := st.LastObserved(ctx, s.ID)
		if err != nil {
			return time.Time{}, err
		}
		if last.IsZero() {
			return time.Time{}, nil
		}
		if start.IsZero() || last.Before(start) {
			start = last
		}
	}
	return start, nil
}
