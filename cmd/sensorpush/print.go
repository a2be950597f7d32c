package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"sensorpush"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printSensors(w io.Writer, sensors []sensorpush.Sensor) error {
	if len(sensors) == 0 {
		_, err := fmt.Fprintln(w, "No sensors.")
		return err
	}
	t := newTable(w)
	fmt.Fprintln(t, "ID\tNAME\tACTIVE\tBATTERY\tRSSI\tTEMP ALERT\tRH ALERT")
	for _, s := range sensors {
		fmt.Fprintf(t, "%s\t%s\t%t\t%.2fV\t%d\t%s\t%s\n",
			s.ID, s.Name, s.Active, s.BatteryVoltage, s.RSSI,
			formatAlert(s.Alerts.Temperature, "°F"), formatAlert(s.Alerts.Humidity, "%"))
	}
	return t.Flush()
}

func formatAlert(a sensorpush.Alert, unit string) string {
	if !a.Enabled {
		return "off"
	}
	return fmt.Sprintf("%g-%g%s", a.Min, a.Max, unit)
}

func printGateways(w io.Writer, gateways []sensorpush.Gateway) error {
	if len(gateways) == 0 {
		_, err := fmt.Fprintln(w, "No gateways.")
		return err
	}
	t := newTable(w)
	fmt.Fprintln(t, "NAME\tPAIRED\tLAST SEEN\tVERSION\tMESSAGE")
	for _, g := range gateways {
		fmt.Fprintf(t, "%s\t%t\t%s\t%s\t%s\n",
			g.Name, g.Paired, formatTime(g.LastSeen), g.Version, g.Message)
	}
	return t.Flush()
}

// printSamples lists samples with sensor names resolved through names,
// which may be nil.
func printSamples(w io.Writer, samples *sensorpush.Samples, names map[string]string) error {
	all := samples.All()
	if len(all) == 0 {
		_, err := fmt.Fprintln(w, "No samples.")
		return err
	}
	t := newTable(w)
	fmt.Fprintln(t, "SENSOR\tNAME\tOBSERVED\tTEMP\t\tHUMIDITY")
	for _, s := range all {
		fmt.Fprintf(t, "%s\t%s\t%s\t%.1f°F\t%.1f°C\t%s\n",
			s.SensorID, names[s.SensorID], formatTime(s.Observed),
			s.Temperature, s.Celsius(), s.RH())
	}
	if err := t.Flush(); err != nil {
		return err
	}
	if samples.Truncated {
		_, err := fmt.Fprintf(w, "Showing %d of %d samples, the result was truncated.\n", len(all), samples.TotalSamples)
		return err
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func sensorNames(sensors []sensorpush.Sensor) map[string]string {
	names := make(map[string]string, len(sensors))
	for _, s := range sensors {
		names[s.ID] = s.Name
	}
	return names
}
