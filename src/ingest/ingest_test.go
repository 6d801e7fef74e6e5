package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// ---------------------------------------------------------------------------
// LoRaWAN Adapter Tests
// ---------------------------------------------------------------------------

const lorawanDoc = `[
	{
		"dev_addr": "260B1234",
		"dev_eui": "70B3D5",
		"sf": 7,
		"latitude": 38.2633,
		"longitude": -0.7372,
		"gateways": [
			{"id": "gw-1", "rx_time": {"time": "2024-01-01T08:00:00Z"}},
			{"id": "gw-2", "rx_time": {"time": "2024-01-01T08:00:02Z"}},
			{"id": "gw-3", "rx_time": {"time": "2024-01-01T08:00:04Z"}}
		]
	},
	{
		"dev_addr": "260B1234",
		"latitude": 38.2640,
		"longitude": -0.7380,
		"gateways": [{"id": "gw-1", "rx_time": {"time": "2024-01-01T09:00:00Z"}}]
	},
	{
		"dev_addr": "260BFFFF",
		"latitude": 40.0,
		"longitude": -3.0,
		"gateways": []
	}
]`

func TestLoRaWANParseFirstGateway(t *testing.T) {
	adapter := NewLoRaWANAdapter(TimestampRuleFirst, logger.NewLogger("ERROR", "test"))

	obs, dropped, err := adapter.Parse([]byte(lorawanDoc))
	require.NoError(t, err)

	// Third record has no gateway receptions and must be dropped.
	assert.Equal(t, 1, dropped)
	require.Len(t, obs, 2)

	first := obs[0]
	assert.Equal(t, "260B1234", first.DeviceID)
	assert.Equal(t, "gw-1", first.GatewayID)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, 38.2633, first.Latitude)
}

func TestLoRaWANParseMedianGateway(t *testing.T) {
	adapter := NewLoRaWANAdapter(TimestampRuleMedian, logger.NewLogger("ERROR", "test"))

	obs, _, err := adapter.Parse([]byte(lorawanDoc))
	require.NoError(t, err)
	require.Len(t, obs, 2)

	// Median of :00, :02, :04 is :02; gateway id stays the first gateway's.
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 2, 0, time.UTC), obs[0].Timestamp)
	assert.Equal(t, "gw-1", obs[0].GatewayID)
}

func TestMedianTimeEvenCount(t *testing.T) {
	a := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 1, 8, 0, 10, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 5, 0, time.UTC), medianTime([]time.Time{b, a}))
}

// ---------------------------------------------------------------------------
// Gateway Adapter Tests
// ---------------------------------------------------------------------------

const gatewayDoc = `[
	{
		"time": "2024-02-10T17:30:00Z",
		"identifiers": [{"gateway_ids": {"gateway_id": "elx-gw-07", "eui": "AA555A"}}],
		"data": {
			"message": {
				"rx_metadata": [{"location": {"latitude": 38.2633, "longitude": -0.7372}}],
				"payload": {"mac_payload": {"f_hdr": {"dev_addr": "01E672EE"}}}
			}
		}
	},
	{
		"time": "2024-02-10T17:31:00Z",
		"data": {"message": {"rx_metadata": [{}]}}
	}
]`

func TestGatewayParse(t *testing.T) {
	adapter := NewGatewayAdapter(logger.NewLogger("ERROR", "test"))

	obs, dropped, err := adapter.Parse([]byte(gatewayDoc))
	require.NoError(t, err)

	assert.Equal(t, 1, dropped)
	require.Len(t, obs, 1)

	o := obs[0]
	assert.Equal(t, "01E672EE", o.DeviceID)
	assert.Equal(t, "elx-gw-07", o.GatewayID)
	assert.Equal(t, 38.2633, o.Latitude)
	assert.Equal(t, -0.7372, o.Longitude)
	assert.Equal(t, time.Date(2024, 2, 10, 17, 30, 0, 0, time.UTC), o.Timestamp)
}

// ---------------------------------------------------------------------------
// Reader Detection Tests
// ---------------------------------------------------------------------------

func TestReaderFormatDetection(t *testing.T) {
	cfg := &models.MConfig{}
	reader := NewDatasetReader(cfg, nil, logger.NewLogger("ERROR", "test"))

	adapter, err := reader.pick([]byte(lorawanDoc), "auto")
	require.NoError(t, err)
	assert.Equal(t, "lorawan", adapter.Name())

	adapter, err = reader.pick([]byte(gatewayDoc), "")
	require.NoError(t, err)
	assert.Equal(t, "gateway", adapter.Name())

	adapter, err = reader.pick([]byte(gatewayDoc), "lorawan")
	require.NoError(t, err)
	assert.Equal(t, "lorawan", adapter.Name())

	_, err = reader.pick([]byte(`{"not":"an array"}`), "auto")
	assert.Error(t, err)
}

func TestParseTimestampVariants(t *testing.T) {
	for _, raw := range []string{
		"2024-01-01T08:00:00Z",
		"2024-01-01T08:00:00.123456Z",
		"2024-01-01T08:00:00",
		"2024-01-01 08:00:00",
	} {
		ts, err := parseTimestamp(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 2024, ts.Year())
	}

	_, err := parseTimestamp("yesterday")
	assert.Error(t, err)
}
