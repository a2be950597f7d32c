package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sensorpush"
)

type Report struct {
	Sensors  []sensorpush.Sensor  `json:"sensors"`
	Gateways []sensorpush.Gateway `json:"gateways"`
	Latest   *sensorpush.Samples  `json:"latest"`
	Recent   *sensorpush.Samples  `json:"recent"`
}

func NewCmdReport(w io.Writer, rf *RootFlags) *cobra.Command {
	var (
		latest int
		window time.Duration
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print sensors, gateways and recent samples",
		Long: `Print the sensors and gateways of the account, the latest samples of
every sensor, then every sample of the recent window. Data requests are
throttled, so a full report takes a few minutes unless --min-interval is
lowered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rf.newClient(4)
			if err != nil {
				return err
			}
			defer rf.saveSession(c)

			ctx := cmd.Context()
			r := Report{}
			if r.Sensors, err = c.Sensors(ctx); err != nil {
				return err
			}
			if r.Gateways, err = c.Gateways(ctx); err != nil {
				return err
			}
			if r.Latest, err = c.Samples(ctx, sensorpush.SampleQuery{Limit: latest}); err != nil {
				return err
			}
			now := time.Now()
			q := sensorpush.SampleQuery{Limit: limit, StartTime: now.Add(-window), StopTime: now}
			if r.Recent, err = c.Samples(ctx, q); err != nil {
				return err
			}

			if rf.Output == JSONOutput {
				return printJSON(w, r)
			}
			return printReport(w, r, window)
		},
	}

	cmd.Flags().IntVar(&latest, "latest", 10, "Number of latest samples per sensor")
	cmd.Flags().DurationVar(&window, "window", 10*time.Minute, "Duration of the recent window")
	cmd.Flags().IntVar(&limit, "window-limit", 1000, "Maximum number of samples per sensor in the recent window")
	return cmd
}

func printReport(w io.Writer, r Report, window time.Duration) error {
	names := sensorNames(r.Sensors)
	sections := []struct {
		title string
		print func() error
	}{
		{"Sensors", func() error { return printSensors(w, r.Sensors) }},
		{"Gateways", func() error { return printGateways(w, r.Gateways) }},
		{"Latest samples", func() error { return printSamples(w, r.Latest, names) }},
		{fmt.Sprintf("Samples of the last %s", window), func() error { return printSamples(w, r.Recent, names) }},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s:\n", s.title)
		if err := s.print(); err != nil {
			return err
		}
	}
	return nil
}
