package ingest

import (
	"encoding/json"
	"sort"
	"time"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// Gateway timestamp selection rules.
const (
	TimestampRuleFirst  = "first"
	TimestampRuleMedian = "median"
)

// -----------------------------------------------------------------------------
// LoRaWANAdapter normalizes network-side LoRaWAN records. Each record carries
// the resolved device position plus the list of gateways that received the
// uplink; the observation timestamp is taken from the gateway receptions.
// -----------------------------------------------------------------------------

type LoRaWANAdapter struct {
	// Rule selects which gateway reception stamps the observation:
	// "first" uses the first gateway, "median" the median of all receptions.
	Rule   string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewLoRaWANAdapter(rule string, log *logger.Logger) *LoRaWANAdapter {
	if rule == "" {
		rule = TimestampRuleFirst
	}
	return &LoRaWANAdapter{Rule: rule, Logger: log}
}

// -----------------------------------------------------------------------------

func (a *LoRaWANAdapter) Name() string {
	return "lorawan"
}

// -----------------------------------------------------------------------------

// Detect recognizes the LoRaWAN shape by its top-level longitude field.
func (a *LoRaWANAdapter) Detect(sample map[string]interface{}) bool {
	_, ok := sample["longitude"]
	return ok
}

// -----------------------------------------------------------------------------

// Parse converts a LoRaWAN JSON document into canonical observations.
// Records missing position, device address or gateway receptions are dropped.
func (a *LoRaWANAdapter) Parse(raw []byte) ([]models.MObservation, int, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, 0, err
	}

	var obs []models.MObservation
	dropped := 0

	for _, rec := range records {
		lat, okLat := asFloat(rec["latitude"])
		lon, okLon := asFloat(rec["longitude"])
		devAddr, okDev := rec["dev_addr"].(string)
		if !okLat || !okLon || !okDev || devAddr == "" {
			dropped++
			continue
		}

		gws, ok := rec["gateways"].([]interface{})
		if !ok || len(gws) == 0 {
			dropped++
			continue
		}

		ts, gatewayID, ok := a.selectGatewayTimestamp(gws)
		if !ok {
			dropped++
			continue
		}

		obs = append(obs, models.MObservation{
			DeviceID:  devAddr,
			Latitude:  lat,
			Longitude: lon,
			Timestamp: ts.UTC(),
			GatewayID: gatewayID,
		})
	}

	if a.Logger != nil && dropped > 0 {
		a.Logger.Warning("Dropped %d malformed lorawan records", dropped)
	}

	return obs, dropped, nil
}

// -----------------------------------------------------------------------------

// selectGatewayTimestamp applies the configured rule to a record's gateway
// receptions. The gateway id always comes from the first gateway.
func (a *LoRaWANAdapter) selectGatewayTimestamp(gws []interface{}) (time.Time, string, bool) {
	var times []time.Time
	gatewayID := ""

	for i, g := range gws {
		gw, ok := g.(map[string]interface{})
		if !ok {
			continue
		}
		if i == 0 {
			gatewayID, _ = gw["id"].(string)
		}

		rx, ok := gw["rx_time"].(map[string]interface{})
		if !ok {
			continue
		}
		rawTime, ok := rx["time"].(string)
		if !ok {
			continue
		}
		t, err := parseTimestamp(rawTime)
		if err != nil {
			continue
		}
		times = append(times, t)

		if a.Rule == TimestampRuleFirst {
			break
		}
	}

	if len(times) == 0 || gatewayID == "" {
		return time.Time{}, "", false
	}

	if a.Rule == TimestampRuleFirst {
		return times[0], gatewayID, true
	}
	return medianTime(times), gatewayID, true
}

// -----------------------------------------------------------------------------

// medianTime returns the median instant; for an even count, the midpoint of
// the two central values.
func medianTime(times []time.Time) time.Time {
	sorted := make([]int64, len(times))
	for i, t := range times {
		sorted[i] = t.UnixNano()
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n%2 == 1 {
		return time.Unix(0, sorted[n/2]).UTC()
	}
	mid := sorted[n/2-1]/2 + sorted[n/2]/2
	return time.Unix(0, mid).UTC()
}
