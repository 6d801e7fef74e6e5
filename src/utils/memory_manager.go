package utils

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// MemoryManager holds the in-memory ping buffers, one ring buffer per device.
// Gateway ids are interned to float codes so rows stay packed.
// -----------------------------------------------------------------------------

type MemoryManager struct {
	DataStreams   map[string]*RingBuffer
	MaxMemoryMB   int
	MaxDataPoints int
	Logger        *logger.Logger

	gatewayCodes map[string]float64
	gatewayNames []string
	mu           sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMemoryManager(maxMemoryMB, maxDataPoints int) *MemoryManager {
	return &MemoryManager{
		DataStreams:   make(map[string]*RingBuffer),
		MaxMemoryMB:   maxMemoryMB,
		MaxDataPoints: maxDataPoints,
		Logger:        logger.NewLogger("", "MemoryManager"),
		gatewayCodes:  make(map[string]float64),
	}
}

// -----------------------------------------------------------------------------

// AddObservation buffers one canonical ping for its device.
func (mm *MemoryManager) AddObservation(obs models.MObservation) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, ok := mm.DataStreams[obs.DeviceID]; !ok {
		mm.DataStreams[obs.DeviceID] = NewRingBuffer(mm.MaxDataPoints)
	}

	// Epoch nanos exceed float64's 53-bit mantissa, so the packed timestamp
	// rounds by up to a few hundred nanoseconds. Trajectory math works at
	// second resolution, so the tolerance is well under anything observable.
	mm.DataStreams[obs.DeviceID].Append([models.RB_NUM_FEATURES]float64{
		models.RB_IDX_TIMESTAMP: float64(obs.Timestamp.UTC().UnixNano()),
		models.RB_IDX_LAT:       obs.Latitude,
		models.RB_IDX_LON:       obs.Longitude,
		models.RB_IDX_GATEWAY:   mm.internGateway(obs.GatewayID),
	})

	// Periodic memory check
	if mm.DataStreams[obs.DeviceID].Size()%100 == 0 {
		mm.CheckMemoryLimits()
	}
}

// -----------------------------------------------------------------------------

// internGateway maps a gateway id to a stable float code. Caller holds mu.
func (mm *MemoryManager) internGateway(id string) float64 {
	if code, ok := mm.gatewayCodes[id]; ok {
		return code
	}
	code := float64(len(mm.gatewayNames))
	mm.gatewayCodes[id] = code
	mm.gatewayNames = append(mm.gatewayNames, id)
	return code
}

// -----------------------------------------------------------------------------

// unpack rebuilds an observation from a packed row. Caller holds mu (read).
func (mm *MemoryManager) unpack(deviceID string, row [models.RB_NUM_FEATURES]float64) models.MObservation {
	gateway := ""
	if idx := int(row[models.RB_IDX_GATEWAY]); idx >= 0 && idx < len(mm.gatewayNames) {
		gateway = mm.gatewayNames[idx]
	}
	return models.MObservation{
		DeviceID:  deviceID,
		Latitude:  row[models.RB_IDX_LAT],
		Longitude: row[models.RB_IDX_LON],
		Timestamp: time.Unix(0, int64(row[models.RB_IDX_TIMESTAMP])).UTC(),
		GatewayID: gateway,
	}
}

// -----------------------------------------------------------------------------

// GetDeviceObservations returns a device's buffered pings, oldest first.
func (mm *MemoryManager) GetDeviceObservations(deviceID string) []models.MObservation {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	buffer, ok := mm.DataStreams[deviceID]
	if !ok || buffer.Size() == 0 {
		return nil
	}

	rows := buffer.GetAll()
	result := make([]models.MObservation, len(rows))
	for i, row := range rows {
		result[i] = mm.unpack(deviceID, row)
	}
	return result
}

// -----------------------------------------------------------------------------

// GetAllObservations returns the buffered pings of every device.
func (mm *MemoryManager) GetAllObservations() map[string][]models.MObservation {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	result := make(map[string][]models.MObservation)
	for deviceID, buffer := range mm.DataStreams {
		if buffer.Size() == 0 {
			continue
		}
		rows := buffer.GetAll()
		obs := make([]models.MObservation, len(rows))
		for i, row := range rows {
			obs[i] = mm.unpack(deviceID, row)
		}
		result[deviceID] = obs
	}
	return result
}

// -----------------------------------------------------------------------------

// CheckMemoryLimits checks and enforces memory limits. Caller holds mu.
func (mm *MemoryManager) CheckMemoryLimits() {
	currentMemory := mm.GetProcessMemoryMB()

	if currentMemory > float64(mm.MaxMemoryMB) {
		mm.Logger.Info("Memory usage %.1fMB exceeds limit %dMB. Cleaning up.",
			currentMemory, mm.MaxMemoryMB)

		// Reduce per-device retention by half to free memory
		for deviceID := range mm.DataStreams {
			buffer := mm.DataStreams[deviceID]
			if buffer.Capacity() > 100 {
				newCapacity := buffer.Capacity() / 2
				if newCapacity < 50 {
					newCapacity = 50
				}
				buffer.Resize(newCapacity)
			}
		}

		runtime.GC()
		debug.FreeOSMemory()
	}
}

// -----------------------------------------------------------------------------

// GetProcessMemoryMB gets current process memory usage in MB
func (mm *MemoryManager) GetProcessMemoryMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / 1024 / 1024
}

// -----------------------------------------------------------------------------

// Cleanup clears all buffered data.
func (mm *MemoryManager) Cleanup() {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.DataStreams = make(map[string]*RingBuffer)
	mm.gatewayCodes = make(map[string]float64)
	mm.gatewayNames = nil
	runtime.GC()
	debug.FreeOSMemory()
}

// -----------------------------------------------------------------------------

// HasDevice checks if a device has buffered data.
func (mm *MemoryManager) HasDevice(deviceID string) bool {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	_, ok := mm.DataStreams[deviceID]
	return ok
}

// -----------------------------------------------------------------------------

// DeviceCount returns number of devices with data.
func (mm *MemoryManager) DeviceCount() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	return len(mm.DataStreams)
}
