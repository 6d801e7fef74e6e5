package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------

func row(ts float64) [models.RB_NUM_FEATURES]float64 {
	return [models.RB_NUM_FEATURES]float64{models.RB_IDX_TIMESTAMP: ts}
}

func TestRingBufferAppendAndGetAll(t *testing.T) {
	rb := NewRingBuffer(3)

	rb.Append(row(1))
	rb.Append(row(2))
	assert.Equal(t, 2, rb.Size())
	assert.False(t, rb.IsFull())

	rows := rb.GetAll()
	require.Len(t, rows, 2)
	assert.Equal(t, 1.0, rows[0][models.RB_IDX_TIMESTAMP])
	assert.Equal(t, 2.0, rows[1][models.RB_IDX_TIMESTAMP])
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 1; i <= 5; i++ {
		rb.Append(row(float64(i)))
	}

	assert.Equal(t, 3, rb.Size())
	assert.True(t, rb.IsFull())

	rows := rb.GetAll()
	require.Len(t, rows, 3)
	assert.Equal(t, 3.0, rows[0][models.RB_IDX_TIMESTAMP])
	assert.Equal(t, 5.0, rows[2][models.RB_IDX_TIMESTAMP])
}

func TestRingBufferGetLatest(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 1; i <= 4; i++ {
		rb.Append(row(float64(i)))
	}

	latest := rb.GetLatest(2)
	require.Len(t, latest, 2)
	assert.Equal(t, 3.0, latest[0][models.RB_IDX_TIMESTAMP])
	assert.Equal(t, 4.0, latest[1][models.RB_IDX_TIMESTAMP])

	// Asking for more than stored returns everything
	assert.Len(t, rb.GetLatest(10), 4)
}

func TestRingBufferResizeKeepsNewest(t *testing.T) {
	rb := NewRingBuffer(5)
	for i := 1; i <= 5; i++ {
		rb.Append(row(float64(i)))
	}

	rb.Resize(2)
	assert.Equal(t, 2, rb.Capacity())

	rows := rb.GetAll()
	require.Len(t, rows, 2)
	assert.Equal(t, 4.0, rows[0][models.RB_IDX_TIMESTAMP])
	assert.Equal(t, 5.0, rows[1][models.RB_IDX_TIMESTAMP])
}

// -----------------------------------------------------------------------------

func TestMemoryManagerRoundTrip(t *testing.T) {
	mm := NewMemoryManager(1024, 100)

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mm.AddObservation(models.MObservation{
			DeviceID:  "dev-a",
			Latitude:  48.85 + float64(i)*0.001,
			Longitude: 2.35,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			GatewayID: fmt.Sprintf("gw-%d", i%2),
		})
	}

	require.True(t, mm.HasDevice("dev-a"))
	assert.Equal(t, 1, mm.DeviceCount())

	obs := mm.GetDeviceObservations("dev-a")
	require.Len(t, obs, 3)
	assert.Equal(t, "dev-a", obs[0].DeviceID)
	assert.Equal(t, base, obs[0].Timestamp)
	assert.Equal(t, "gw-0", obs[0].GatewayID)
	assert.Equal(t, "gw-1", obs[1].GatewayID)
	assert.Equal(t, "gw-0", obs[2].GatewayID)
	assert.InDelta(t, 48.852, obs[2].Latitude, 1e-9)
}

// Sub-second timestamps pick up a few hundred nanoseconds of rounding from
// the float64 packing. They must still round-trip well within a microsecond.
func TestMemoryManagerTimestampTolerance(t *testing.T) {
	mm := NewMemoryManager(1024, 100)

	ts := time.Date(2024, 3, 1, 8, 0, 1, 123456789, time.UTC)
	mm.AddObservation(models.MObservation{
		DeviceID:  "dev-a",
		Latitude:  48.85,
		Longitude: 2.35,
		Timestamp: ts,
		GatewayID: "gw-0",
	})

	obs := mm.GetDeviceObservations("dev-a")
	require.Len(t, obs, 1)
	assert.WithinDuration(t, ts, obs[0].Timestamp, time.Microsecond)
}

func TestMemoryManagerGetAllObservations(t *testing.T) {
	mm := NewMemoryManager(1024, 100)
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mm.AddObservation(models.MObservation{DeviceID: "a", Timestamp: ts, GatewayID: "gw"})
	mm.AddObservation(models.MObservation{DeviceID: "b", Timestamp: ts, GatewayID: "gw"})
	mm.AddObservation(models.MObservation{DeviceID: "b", Timestamp: ts.Add(time.Minute), GatewayID: "gw"})

	all := mm.GetAllObservations()
	require.Len(t, all, 2)
	assert.Len(t, all["a"], 1)
	assert.Len(t, all["b"], 2)
}

func TestMemoryManagerCleanup(t *testing.T) {
	mm := NewMemoryManager(1024, 100)
	mm.AddObservation(models.MObservation{DeviceID: "a", Timestamp: time.Now(), GatewayID: "gw"})

	mm.Cleanup()
	assert.Equal(t, 0, mm.DeviceCount())
	assert.Nil(t, mm.GetDeviceObservations("a"))
}

// -----------------------------------------------------------------------------

func TestCalculateMaxDataPoints(t *testing.T) {
	assert.Equal(t, 300, CalculateMaxDataPoints(1))
	assert.Equal(t, 9000, CalculateMaxDataPoints(30))
	assert.Equal(t, CalculateMaxDataPoints(DefaultRetentionDays), CalculateMaxDataPoints(0))
}
