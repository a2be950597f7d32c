package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"sensorpush"
)

const schema = `
CREATE TABLE IF NOT EXISTS sensors (
	id              TEXT PRIMARY KEY,
	device_id       TEXT,
	name            TEXT,
	active          INTEGER,
	type            TEXT,
	battery_voltage REAL,
	rssi            INTEGER,
	updated_at      INTEGER
);
CREATE TABLE IF NOT EXISTS samples (
	sensor_id           TEXT NOT NULL,
	observed            INTEGER NOT NULL,
	temperature         REAL,
	humidity            REAL,
	dewpoint            REAL,
	barometric_pressure REAL,
	vpd                 REAL,
	altitude            REAL,
	PRIMARY KEY (sensor_id, observed)
);
`

// Store persists sensors and samples in a sqlite database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens or creates the database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSensors inserts or updates sensor metadata.
func (s *Store) SaveSensors(ctx context.Context, sensors []sensorpush.Sensor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sensors (id, device_id, name, active, type, battery_voltage, rssi, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_id = excluded.device_id,
			name = excluded.name,
			active = excluded.active,
			type = excluded.type,
			battery_voltage = excluded.battery_voltage,
			rssi = excluded.rssi,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, sensor := range sensors {
		if _, err := stmt.ExecContext(ctx,
			sensor.ID,
			sensor.DeviceID,
			sensor.Name,
			sensor.Active,
			sensor.Type,
			sensor.BatteryVoltage,
			sensor.RSSI,
			now,
		); err != nil {
			return fmt.Errorf("save sensor %s: %w", sensor.ID, err)
		}
	}
	return tx.Commit()
}

// SaveSamples stores samples and returns how many were new. Samples already
// stored for the same sensor and observation time are skipped.
func (s *Store) SaveSamples(ctx context.Context, samples []sensorpush.Sample) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO samples (
			sensor_id,
			observed,
			temperature,
			humidity,
			dewpoint,
			barometric_pressure,
			vpd,
			altitude
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, sample := range samples {
		res, err := stmt.ExecContext(ctx,
			sample.SensorID,
			sample.Observed.UnixMilli(),
			sample.Temperature,
			sample.Humidity,
			sample.DewPoint,
			sample.BarometricPressure,
			sample.VPD,
			sample.Altitude,
		)
		if err != nil {
			return 0, fmt.Errorf("save sample %s@%s: %w", sample.SensorID, sample.Observed.Format(time.RFC3339), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.log.Debug("saved samples", zap.Int("received", len(samples)), zap.Int("inserted", inserted))
	return inserted, nil
}

// Samples returns the stored samples of a sensor observed within
// [start, stop], oldest first. An empty sensorID selects every sensor and a
// zero bound leaves that side open.
func (s *Store) Samples(ctx context.Context, sensorID string, start, stop time.Time) ([]sensorpush.Sample, error) {
	query := `
		SELECT
			sensor_id,
			observed,
			temperature,
			humidity,
			dewpoint,
			barometric_pressure,
			vpd,
			altitude
		FROM samples
		WHERE (? = '' OR sensor_id = ?)
		  AND observed BETWEEN ? AND ?
		ORDER BY sensor_id ASC, observed ASC
	`
	lo, hi := int64(0), int64(1<<62)
	if !start.IsZero() {
		lo = start.UnixMilli()
	}
	if !stop.IsZero() {
		hi = stop.UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx, query, sensorID, sensorID, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []sensorpush.Sample
	for rows.Next() {
		var (
			sample                            sensorpush.Sample
			observed                          int64
			dewpoint, pressure, vpd, altitude sql.NullFloat64
		)
		if err := rows.Scan(
			&sample.SensorID,
			&observed,
			&sample.Temperature,
			&sample.Humidity,
			&dewpoint,
			&pressure,
			&vpd,
			&altitude,
		); err != nil {
			return nil, err
		}
		sample.Observed = time.UnixMilli(observed).UTC()
		sample.DewPoint = nullable(dewpoint)
		sample.BarometricPressure = nullable(pressure)
		sample.VPD = nullable(vpd)
		sample.Altitude = nullable(altitude)
		results = append(results, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// LastObserved returns the time of the newest stored sample of a sensor, or
// the zero time when there is none.
func (s *Store) LastObserved(ctx context.Context, sensorID string) (time.Time, error) {
	var observed sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(observed) FROM samples WHERE sensor_id = ?`, sensorID,
	).Scan(&observed)
	if err != nil {
		return time.Time{}, err
	}
	if !observed.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(observed.Int64).UTC(), nil
}

// SensorNames maps stored sensor IDs to their names.
func (s *Store) SensorNames(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM sensors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
