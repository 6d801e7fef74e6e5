package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema per binary so several deployments can share one database
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.recreateTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) recreateTables() error {
	tables := map[string]string{
		"pings": `
			CREATE TABLE "%s"."pings" (
				device_id TEXT,
				timestamp BIGINT,
				latitude DOUBLE PRECISION,
				longitude DOUBLE PRECISION,
				gateway_id TEXT,
				PRIMARY KEY (device_id, timestamp)
			);
		`,
		"device_days": `
			CREATE TABLE "%s"."device_days" (
				device_id TEXT,
				day TEXT,
				day_of_week TEXT,
				start_time BIGINT,
				end_time BIGINT,
				start_lat DOUBLE PRECISION,
				start_lon DOUBLE PRECISION,
				end_lat DOUBLE PRECISION,
				end_lon DOUBLE PRECISION,
				distance_meters DOUBLE PRECISION,
				elapsed_seconds DOUBLE PRECISION,
				speed_kmh DOUBLE PRECISION,
				observations INTEGER,
				PRIMARY KEY (device_id, day)
			);
		`,
		"device_summaries": `
			CREATE TABLE "%s"."device_summaries" (
				device_id TEXT PRIMARY KEY,
				n INTEGER,
				quantile DOUBLE PRECISION,
				start_time_seconds DOUBLE PRECISION,
				end_time_seconds DOUBLE PRECISION,
				max_distance_meters DOUBLE PRECISION,
				max_speed_kmh DOUBLE PRECISION,
				perc_weekday DOUBLE PRECISION,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
		"anchor_candidates": `
			CREATE TABLE "%s"."anchor_candidates" (
				device_id TEXT,
				kind TEXT,
				rank INTEGER,
				latitude DOUBLE PRECISION,
				longitude DOUBLE PRECISION,
				count INTEGER,
				confidence DOUBLE PRECISION,
				PRIMARY KEY (device_id, kind, rank)
			);
		`,
		"devices": `
			CREATE TABLE "%s"."devices" (
				device_id TEXT PRIMARY KEY,
				first_ts BIGINT,
				last_ts BIGINT,
				days INTEGER,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	}

	for name, create := range tables {
		qualified := fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
		if _, err := d.DB.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, qualified)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", qualified, err)
		}
		if _, err := d.DB.Exec(fmt.Sprintf(create, d.Schema)); err != nil {
			return fmt.Errorf("failed to create %s: %w", qualified, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveObservationsBulk(observations []models.MObservation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."pings" (device_id, timestamp, latitude, longitude, gateway_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id, timestamp) DO NOTHING
	`, d.Schema)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range observations {
		_, err := stmt.Exec(o.DeviceID, o.Timestamp.UTC().Unix(), o.Latitude, o.Longitude, o.GatewayID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveDayRecords(records map[string][]models.MDeviceDayRecord) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."device_days"
			(device_id, day, day_of_week, start_time, end_time,
			 start_lat, start_lon, end_lat, end_lon,
			 distance_meters, elapsed_seconds, speed_kmh, observations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (device_id, day) DO UPDATE SET
			day_of_week = EXCLUDED.day_of_week,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			start_lat = EXCLUDED.start_lat,
			start_lon = EXCLUDED.start_lon,
			end_lat = EXCLUDED.end_lat,
			end_lon = EXCLUDED.end_lon,
			distance_meters = EXCLUDED.distance_meters,
			elapsed_seconds = EXCLUDED.elapsed_seconds,
			speed_kmh = EXCLUDED.speed_kmh,
			observations = EXCLUDED.observations
	`, d.Schema)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, deviceRecords := range records {
		for _, r := range deviceRecords {
			_, err := stmt.Exec(r.DeviceID, r.Day, r.DayOfWeek,
				r.StartTime.UTC().Unix(), r.EndTime.UTC().Unix(),
				r.StartLat, r.StartLon, r.EndLat, r.EndLon,
				r.DistanceMeters, r.ElapsedSeconds, r.SpeedKmh, r.Observations)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveDeviceSummaries(summaries []models.MDeviceSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."device_summaries"
			(device_id, n, quantile, start_time_seconds, end_time_seconds,
			 max_distance_meters, max_speed_kmh, perc_weekday, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (device_id) DO UPDATE SET
			n = EXCLUDED.n,
			quantile = EXCLUDED.quantile,
			start_time_seconds = EXCLUDED.start_time_seconds,
			end_time_seconds = EXCLUDED.end_time_seconds,
			max_distance_meters = EXCLUDED.max_distance_meters,
			max_speed_kmh = EXCLUDED.max_speed_kmh,
			perc_weekday = EXCLUDED.perc_weekday,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range summaries {
		_, err := stmt.Exec(s.DeviceID, s.N, s.Quantile, s.StartTimeSeconds, s.EndTimeSeconds,
			s.MaxDistanceMeters, s.MaxSpeedKmh, s.PercWeekday, time.Now().UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveAnchorSets(sets map[string]models.MAnchorSet) error {
	if len(sets) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."anchor_candidates"
			(device_id, kind, rank, latitude, longitude, count, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (device_id, kind, rank) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			count = EXCLUDED.count,
			confidence = EXCLUDED.confidence
	`, d.Schema)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for deviceID, set := range sets {
		for rank, c := range set.Start {
			if _, err := stmt.Exec(deviceID, "start", rank, c.Latitude, c.Longitude, c.Count, c.Confidence); err != nil {
				return err
			}
		}
		for rank, c := range set.End {
			if _, err := stmt.Exec(deviceID, "end", rank, c.Latitude, c.Longitude, c.Count, c.Confidence); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// Keep the device registry in sync with the latest run
	return d.RegisterDevices(sets)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Ingest.DataRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff.Unix())

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."pings" WHERE timestamp < $1`, d.Schema), cutoff.Unix()); err != nil {
		d.Logger.Error("Cleanup pings error: %v", err)
	}

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."device_days" WHERE day < $1`, d.Schema), cutoff.Format("2006-01-02")); err != nil {
		d.Logger.Error("Cleanup device_days error: %v", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
