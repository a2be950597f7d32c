package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sensorpush/internal/export"
	"sensorpush/internal/store"
)

type ExportFlags struct {
	DB     string
	Sensor string
	Start  string
	Stop   string
	File   string
}

func NewCmdExport(w io.Writer, rf *RootFlags) *cobra.Command {
	f := &ExportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write recorded samples as CSV",
		Example: `  # Every sample of one sensor in January
  sensorpush export --sensor 16775.302 --start 2024-01-01 --stop 2024-02-01 -f january.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseTimeFlag("start", f.Start)
			if err != nil {
				return err
			}
			stop, err := parseTimeFlag("stop", f.Stop)
			if err != nil {
				return err
			}

			if _, err := os.Stat(f.DB); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no database at %s, run the record command first", f.DB)
			}
			st, err := store.Open(f.DB, rf.log.Named("store"))
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			samples, err := st.Samples(ctx, f.Sensor, start, stop)
			if err != nil {
				return err
			}
			names, err := st.SensorNames(ctx)
			if err != nil {
				return err
			}

			out := w
			toFile := f.File != "" && f.File != "-"
			if toFile {
				file, err := os.Create(f.File)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			if err := export.NewCSVWriter(out, names).WriteAll(samples); err != nil {
				return err
			}
			if toFile {
				return printExported(w, rf.Output, f.File, len(samples))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.DB, "db", rf.cfg.DBPath, "Path of the sqlite database")
	cmd.Flags().StringVarP(&f.Sensor, "sensor", "s", "", "Only export this sensor ID")
	cmd.Flags().StringVar(&f.Start, "start", "", "Oldest observation time to include")
	cmd.Flags().StringVar(&f.Stop, "stop", "", "Newest observation time to include")
	cmd.Flags().StringVarP(&f.File, "file", "f", "", "Write to this file instead of standard output")
	return cmd
}

func printExported(w io.Writer, output, file string, n int) error {
	if output == JSONOutput {
		return printJSON(w, struct {
			File    string `json:"file"`
			Samples int    `json:"samples"`
		}{File: file, Samples: n})
	}
	_, err := fmt.Fprintf(w, "Exported %d samples to %s.\n", n, file)
	return err
}
