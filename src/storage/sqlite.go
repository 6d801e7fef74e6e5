package storage

import (
	"database/sql"
	"fmt"
	"time"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.recreateTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) recreateTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	tables := map[string]string{
		"pings": `
			CREATE TABLE pings (
				device_id TEXT,
				timestamp INTEGER,
				latitude REAL,
				longitude REAL,
				gateway_id TEXT,
				PRIMARY KEY (device_id, timestamp)
			);
		`,
		"device_days": `
			CREATE TABLE device_days (
				device_id TEXT,
				day TEXT,
				day_of_week TEXT,
				start_time INTEGER,
				end_time INTEGER,
				start_lat REAL,
				start_lon REAL,
				end_lat REAL,
				end_lon REAL,
				distance_meters REAL,
				elapsed_seconds REAL,
				speed_kmh REAL,
				observations INTEGER,
				PRIMARY KEY (device_id, day)
			);
		`,
		"device_summaries": `
			CREATE TABLE device_summaries (
				device_id TEXT PRIMARY KEY,
				n INTEGER,
				quantile REAL,
				start_time_seconds REAL,
				end_time_seconds REAL,
				max_distance_meters REAL,
				max_speed_kmh REAL,
				perc_weekday REAL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
		"anchor_candidates": `
			CREATE TABLE anchor_candidates (
				device_id TEXT,
				kind TEXT,
				rank INTEGER,
				latitude REAL,
				longitude REAL,
				count INTEGER,
				confidence REAL,
				PRIMARY KEY (device_id, kind, rank)
			);
		`,
	}

	for name, create := range tables {
		if _, err := d.DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
		if _, err := d.DB.Exec(create); err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveObservationsBulk(observations []models.MObservation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO pings (device_id, timestamp, latitude, longitude, gateway_id)
		VALUES (?, ?, ?, ?, ?)
	`)
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

func (d *AsyncSQLiteDB) SaveDayRecords(records map[string][]models.MDeviceDayRecord) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO device_days
			(device_id, day, day_of_week, start_time, end_time,
			 start_lat, start_lon, end_lat, end_lon,
			 distance_meters, elapsed_seconds, speed_kmh, observations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
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

func (d *AsyncSQLiteDB) SaveDeviceSummaries(summaries []models.MDeviceSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO device_summaries
			(device_id, n, quantile, start_time_seconds, end_time_seconds,
			 max_distance_meters, max_speed_kmh, perc_weekday, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET
			n = excluded.n,
			quantile = excluded.quantile,
			start_time_seconds = excluded.start_time_seconds,
			end_time_seconds = excluded.end_time_seconds,
			max_distance_meters = excluded.max_distance_meters,
			max_speed_kmh = excluded.max_speed_kmh,
			perc_weekday = excluded.perc_weekday,
			updated_at = excluded.updated_at
	`)
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

func (d *AsyncSQLiteDB) SaveAnchorSets(sets map[string]models.MAnchorSet) error {
	if len(sets) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO anchor_candidates
			(device_id, kind, rank, latitude, longitude, count, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
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

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Ingest.DataRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	d.Logger.Info("Cleaning up data older than %d days (timestamp < %d)...", retentionDays, cutoff.Unix())

	if _, err := d.DB.Exec("DELETE FROM pings WHERE timestamp < ?", cutoff.Unix()); err != nil {
		d.Logger.Error("Cleanup pings error: %v", err)
	}

	// device_days keys on the day string, not epoch seconds
	if _, err := d.DB.Exec("DELETE FROM device_days WHERE day < ?", cutoff.Format("2006-01-02")); err != nil {
		d.Logger.Error("Cleanup device_days error: %v", err)
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
