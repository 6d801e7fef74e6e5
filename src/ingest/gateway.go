package ingest

import (
	"encoding/json"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// GatewayAdapter normalizes raw gateway uplink messages. The device position
// sits deep inside the first rx_metadata entry and the device address inside
// the MAC payload frame header; records missing any of those are dropped.
// -----------------------------------------------------------------------------

type GatewayAdapter struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewGatewayAdapter(log *logger.Logger) *GatewayAdapter {
	return &GatewayAdapter{Logger: log}
}

// -----------------------------------------------------------------------------

func (a *GatewayAdapter) Name() string {
	return "gateway"
}

// -----------------------------------------------------------------------------

// Detect accepts anything without the top-level longitude of the LoRaWAN shape.
func (a *GatewayAdapter) Detect(sample map[string]interface{}) bool {
	_, ok := sample["longitude"]
	return !ok
}

// -----------------------------------------------------------------------------

// Parse converts a gateway uplink JSON document into canonical observations.
func (a *GatewayAdapter) Parse(raw []byte) ([]models.MObservation, int, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, 0, err
	}

	var obs []models.MObservation
	dropped := 0

	for _, rec := range records {
		o, ok := a.parseRecord(rec)
		if !ok {
			dropped++
			continue
		}
		obs = append(obs, o)
	}

	if a.Logger != nil && dropped > 0 {
		a.Logger.Warning("Dropped %d malformed gateway records", dropped)
	}

	return obs, dropped, nil
}

// -----------------------------------------------------------------------------

func (a *GatewayAdapter) parseRecord(rec map[string]interface{}) (models.MObservation, bool) {
	message, ok := dig(rec, "data", "message")
	if !ok {
		return models.MObservation{}, false
	}

	rxList, ok := message["rx_metadata"].([]interface{})
	if !ok || len(rxList) == 0 {
		return models.MObservation{}, false
	}
	rx, ok := rxList[0].(map[string]interface{})
	if !ok {
		return models.MObservation{}, false
	}
	location, ok := rx["location"].(map[string]interface{})
	if !ok {
		return models.MObservation{}, false
	}

	lat, okLat := asFloat(location["latitude"])
	lon, okLon := asFloat(location["longitude"])
	if !okLat || !okLon {
		return models.MObservation{}, false
	}

	fhdr, ok := dig(message, "payload", "mac_payload", "f_hdr")
	if !ok {
		return models.MObservation{}, false
	}
	devAddr, ok := fhdr["dev_addr"].(string)
	if !ok || devAddr == "" {
		return models.MObservation{}, false
	}

	rawTime, ok := rec["time"].(string)
	if !ok {
		return models.MObservation{}, false
	}
	ts, err := parseTimestamp(rawTime)
	if err != nil {
		return models.MObservation{}, false
	}

	gatewayID := ""
	if ids, ok := rec["identifiers"].([]interface{}); ok && len(ids) > 0 {
		if idMap, ok := ids[0].(map[string]interface{}); ok {
			if gwIDs, ok := idMap["gateway_ids"].(map[string]interface{}); ok {
				gatewayID, _ = gwIDs["gateway_id"].(string)
			}
		}
	}

	return models.MObservation{
		DeviceID:  devAddr,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: ts.UTC(),
		GatewayID: gatewayID,
	}, true
}

// -----------------------------------------------------------------------------

// dig walks nested JSON objects by key, failing on the first miss.
func dig(m map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	current := m
	for _, key := range keys {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}
