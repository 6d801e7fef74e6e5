package models

// RingBuffer indices and constants
const (
	RB_IDX_TIMESTAMP = 0
	RB_IDX_LAT       = 1
	RB_IDX_LON       = 2
	RB_IDX_GATEWAY   = 3 // interned gateway code, see utils.MemoryManager
	RB_NUM_FEATURES  = 4
)
