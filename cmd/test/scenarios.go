package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Synthetic data
// -----------------------------------------------------------------------------

func ping(device string, ts time.Time, lat, lon float64) models.MObservation {
	return models.MObservation{
		DeviceID:  device,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: ts,
		GatewayID: "gw-synthetic",
	}
}

// commuterWeek simulates a device leaving home every weekday morning and
// coming back in the evening, staying put over the weekend.
func commuterWeek(device string) []models.MObservation {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	homeLat, homeLon := 48.8500, 2.3500
	workLat, workLon := 48.8700, 2.3300

	var pings []models.MObservation
	for d := 0; d < 7; d++ {
		day := monday.AddDate(0, 0, d)
		weekday := day.Weekday() != time.Saturday && day.Weekday() != time.Sunday

		if weekday {
			pings = append(pings,
				ping(device, day.Add(8*time.Hour), homeLat, homeLon),
				ping(device, day.Add(9*time.Hour), workLat, workLon),
				ping(device, day.Add(17*time.Hour), workLat, workLon),
				ping(device, day.Add(18*time.Hour), homeLat, homeLon),
			)
		} else {
			pings = append(pings,
				ping(device, day.Add(10*time.Hour), homeLat, homeLon),
				ping(device, day.Add(20*time.Hour), homeLat, homeLon),
			)
		}
	}
	return pings
}

// -----------------------------------------------------------------------------
// Scenarios
// -----------------------------------------------------------------------------

func runCommuterWeek(c *Components, log *logger.Logger) error {
	pings := commuterWeek("commuter-1")
	result := c.Pipeline.Run(pings, nil, nil)

	if result.Metrics.ValidDevices != 1 {
		return fmt.Errorf("expected 1 device, got %d", result.Metrics.ValidDevices)
	}
	if result.Metrics.DaysProcessed != 7 {
		return fmt.Errorf("expected 7 device-days, got %d", result.Metrics.DaysProcessed)
	}

	summary := result.Summaries["commuter-1"]
	if summary.N != len(pings) {
		return fmt.Errorf("expected N=%d, got %d", len(pings), summary.N)
	}
	// 5 weekdays out of 7 days
	if math.Abs(summary.PercWeekday-100.0*5/7) > 1e-9 {
		return fmt.Errorf("expected perc_weekday %.4f, got %.4f", 100.0*5/7, summary.PercWeekday)
	}

	// The dominant start anchor is home
	anchors := result.Anchors["commuter-1"]
	if len(anchors.Start) == 0 {
		return fmt.Errorf("expected start anchors, got none")
	}
	top := anchors.Start[0]
	if math.Abs(top.Latitude-48.85) > 0.01 || math.Abs(top.Longitude-2.35) > 0.01 {
		return fmt.Errorf("expected home anchor near (48.85, 2.35), got (%.4f, %.4f)",
			top.Latitude, top.Longitude)
	}

	// Persist and write artifacts end to end
	if err := c.DB.SaveDayRecords(result.DayRecords); err != nil {
		return fmt.Errorf("save day records: %w", err)
	}
	if err := c.DB.SaveAnchorSets(result.Anchors); err != nil {
		return fmt.Errorf("save anchors: %w", err)
	}

	rs := c.Assembler.Assemble(result, "INITIAL")
	if err := c.Assembler.WriteArtifacts(rs); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}

	device := rs.Devices["commuter-1"]
	if device.StartTime >= device.EndTime {
		return fmt.Errorf("expected start %s before end %s", device.StartTime, device.EndTime)
	}
	return nil
}

// -----------------------------------------------------------------------------

func runStationaryDevice(c *Components, log *logger.Logger) error {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	pings := []models.MObservation{
		ping("stationary-1", day.Add(8*time.Hour), 48.85, 2.35),
		ping("stationary-1", day.Add(12*time.Hour), 48.85, 2.35),
		ping("stationary-1", day.Add(18*time.Hour), 48.85, 2.35),
	}

	result := c.Pipeline.Run(pings, nil, nil)
	rec := result.DayRecords["stationary-1"][0]

	if rec.DistanceMeters != 0 {
		return fmt.Errorf("expected zero distance, got %f", rec.DistanceMeters)
	}
	if rec.SpeedKmh != 0 {
		return fmt.Errorf("expected zero speed, got %f", rec.SpeedKmh)
	}
	if rec.ElapsedSeconds != 10*3600 {
		return fmt.Errorf("expected 36000s elapsed, got %f", rec.ElapsedSeconds)
	}

	// A single bin, uniform confidence (density fit is degenerate)
	anchors := result.Anchors["stationary-1"]
	if len(anchors.Start) != 1 || anchors.Start[0].Confidence != 1 {
		return fmt.Errorf("expected one uniform-confidence anchor, got %+v", anchors.Start)
	}
	return nil
}

// -----------------------------------------------------------------------------

func runMultiDeviceFiltering(c *Components, log *logger.Logger) error {
	var pings []models.MObservation
	pings = append(pings, commuterWeek("device-a")...)
	pings = append(pings, commuterWeek("device-b")...)

	all := c.Pipeline.Run(pings, nil, nil)
	if all.Metrics.ValidDevices != 2 {
		return fmt.Errorf("expected 2 devices, got %d", all.Metrics.ValidDevices)
	}

	only := c.Pipeline.Run(pings, []string{"device-a"}, nil)
	if only.Metrics.ValidDevices != 1 {
		return fmt.Errorf("expected 1 device after filter, got %d", only.Metrics.ValidDevices)
	}
	if _, ok := only.Summaries["device-b"]; ok {
		return fmt.Errorf("device-b leaked through the filter")
	}

	oneDay := c.Pipeline.Run(pings, nil, []string{"2024-03-04"})
	if oneDay.Metrics.DaysProcessed != 2 {
		return fmt.Errorf("expected 2 device-days after date filter, got %d", oneDay.Metrics.DaysProcessed)
	}

	// Filtered run matches the corresponding slice of the full run
	fullA := all.DayRecords["device-a"]
	onlyA := only.DayRecords["device-a"]
	if len(fullA) != len(onlyA) {
		return fmt.Errorf("filter changed day count: %d vs %d", len(fullA), len(onlyA))
	}
	for i := range fullA {
		if fullA[i] != onlyA[i] {
			return fmt.Errorf("filter changed day record %d", i)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func runLoRaWANRoundtrip(c *Components, log *logger.Logger) error {
	// Two well-formed records and one missing its position
	doc := []map[string]interface{}{
		{
			"dev_addr": "dev-ingest", "latitude": 48.85, "longitude": 2.35,
			"gateways": []map[string]interface{}{
				{"id": "gw-1", "rx_time": map[string]interface{}{"time": "2024-03-04T08:00:00Z"}},
				{"id": "gw-2", "rx_time": map[string]interface{}{"time": "2024-03-04T08:00:04Z"}},
			},
		},
		{
			"dev_addr": "dev-ingest", "latitude": 48.86, "longitude": 2.36,
			"gateways": []map[string]interface{}{
				{"id": "gw-1", "rx_time": map[string]interface{}{"time": "2024-03-04T12:00:00Z"}},
			},
		},
		{
			"dev_addr": "dev-ingest",
			"gateways": []map[string]interface{}{
				{"id": "gw-1", "rx_time": map[string]interface{}{"time": "2024-03-04T13:00:00Z"}},
			},
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	path := filepath.Join(os.TempDir(), "mobility-scenario-lorawan.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	defer os.Remove(path)

	observations, dropped, err := c.Reader.Read(path, "lorawan")
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	if len(observations) != 2 || dropped != 1 {
		return fmt.Errorf("expected 2 parsed / 1 dropped, got %d / %d", len(observations), dropped)
	}

	if err := c.DB.SaveObservationsBulk(observations); err != nil {
		return fmt.Errorf("save observations: %w", err)
	}

	result := c.Pipeline.Run(observations, nil, nil)
	if result.Summaries["dev-ingest"].N != 2 {
		return fmt.Errorf("expected N=2, got %d", result.Summaries["dev-ingest"].N)
	}
	return nil
}
