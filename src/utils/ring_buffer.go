package utils

import (
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of packed ping rows
// (timestamp, latitude, longitude, gateway code). Device and gateway strings
// are interned by the MemoryManager; the buffer only sees floats.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     [][models.RB_NUM_FEATURES]float64
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000 // Default reasonable size
	}

	return &RingBuffer{
		data:     make([][models.RB_NUM_FEATURES]float64, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds a packed row, overwriting the oldest entry when full.
func (rb *RingBuffer) Append(row [models.RB_NUM_FEATURES]float64) {
	rb.data[rb.index] = row

	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns up to n latest rows, oldest first.
func (rb *RingBuffer) GetLatest(n int) [][models.RB_NUM_FEATURES]float64 {
	if rb.size == 0 || n <= 0 {
		return nil
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([][models.RB_NUM_FEATURES]float64, count)

	// Latest data ends at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all rows in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() [][models.RB_NUM_FEATURES]float64 {
	if rb.size == 0 {
		return nil
	}

	result := make([][models.RB_NUM_FEATURES]float64, rb.size)

	// Oldest element position depends on whether we have wrapped
	var startIdx int
	if rb.size == rb.capacity {
		startIdx = rb.index
	} else {
		startIdx = 0
	}

	for i := 0; i < rb.size; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Resize changes the capacity of the buffer.
// If newCapacity < size, oldest rows are dropped.
func (rb *RingBuffer) Resize(newCapacity int) {
	if newCapacity <= 0 || newCapacity == rb.capacity {
		return
	}

	newData := make([][models.RB_NUM_FEATURES]float64, newCapacity)

	count := rb.size
	if count > newCapacity {
		count = newCapacity
	}

	// Copy the newest 'count' rows into the new storage
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		idx := (startIdx + i) % rb.capacity
		newData[i] = rb.data[idx]
	}

	rb.data = newData
	rb.capacity = newCapacity
	rb.size = count
	rb.index = count % newCapacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}
