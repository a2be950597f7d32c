package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sensorpush"
)

var timeFlagLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeFlag accepts RFC 3339 or a date with an optional time, the
// latter read in the local time zone.
func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeFlagLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --%s %q, expected RFC 3339 or YYYY-MM-DD[ HH:MM[:SS]]", name, value)
}

type SamplesFlags struct {
	Limit   int
	Start   string
	Stop    string
	Last    time.Duration
	Sensors []string
}

func (f *SamplesFlags) Validate(now time.Time) (sensorpush.SampleQuery, error) {
	q := sensorpush.SampleQuery{Limit: f.Limit, Sensors: f.Sensors}
	if f.Limit < 0 {
		return q, errors.New("--limit must be positive")
	}
	if f.Last > 0 && f.Start != "" {
		return q, errors.New("--last and --start are mutually exclusive")
	}

	var err error
	if q.StartTime, err = parseTimeFlag("start", f.Start); err != nil {
		return q, err
	}
	if q.StopTime, err = parseTimeFlag("stop", f.Stop); err != nil {
		return q, err
	}
	if f.Last > 0 {
		q.StartTime = now.Add(-f.Last)
	}
	if !q.StartTime.IsZero() && !q.StopTime.IsZero() && q.StopTime.Before(q.StartTime) {
		return q, errors.New("--stop is before the start of the range")
	}
	return q, nil
}

func NewCmdSamples(w io.Writer, rf *RootFlags) *cobra.Command {
	f := &SamplesFlags{}

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Retrieve temperature and humidity samples",
		Example: `  # Last 10 samples of every sensor
  sensorpush samples --limit 10

  # Samples of one sensor over the last hour
  sensorpush samples --sensor 16775.302 --last 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.Validate(time.Now())
			if err != nil {
				return err
			}

			c, err := rf.newClient(1)
			if err != nil {
				return err
			}
			defer rf.saveSession(c)

			samples, err := c.Samples(cmd.Context(), q)
			if err != nil {
				return err
			}
			if rf.Output == JSONOutput {
				return printJSON(w, samples)
			}
			return printSamples(w, samples, sensorNames(c.Last().Sensors))
		},
	}

	cmd.Flags().IntVarP(&f.Limit, "limit", "n", rf.cfg.SampleLimit, "Maximum number of samples per sensor")
	cmd.Flags().StringVar(&f.Start, "start", "", "Oldest observation time to include")
	cmd.Flags().StringVar(&f.Stop, "stop", "", "Newest observation time to include")
	cmd.Flags().DurationVar(&f.Last, "last", 0, "Only include samples observed within this duration, e.g. 10m")
	cmd.Flags().StringSliceVarP(&f.Sensors, "sensor", "s", nil, "Sensor ID to include, may be repeated")
	return cmd
}
