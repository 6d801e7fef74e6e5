package storage

import (
	"fmt"
	"time"

	"mobility-observer/src/models"
)

// Info: Separate file for device registry logic specific to Postgres

// -----------------------------------------------------------------------------

// RegisterDevices upserts the device registry from the anchor sets of a run.
// The registry gives operators a cheap per-device overview without scanning
// the ping table.
func (d *PostgresDB) RegisterDevices(sets map[string]models.MAnchorSet) error {
	if len(sets) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."devices" (device_id, first_ts, last_ts, days, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO UPDATE SET
			first_ts = LEAST(devices.first_ts, EXCLUDED.first_ts),
			last_ts = GREATEST(devices.last_ts, EXCLUDED.last_ts),
			days = EXCLUDED.days,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for deviceID, set := range sets {
		// Every day contributes exactly one start fix
		days := 0
		for _, c := range set.Start {
			days += c.Count
		}

		_, err := stmt.Exec(deviceID,
			set.FirstTS.UTC().Unix(), set.LastTS.UTC().Unix(),
			days, time.Now().UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
