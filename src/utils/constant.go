package utils

import "math"

// -----------------------------------------------------------------------------

// Constants and helper functions for data retention and memory management.
// LoRaWAN trackers on a 5-minute duty cycle emit ~288 pings per day.
// Rounded up to 300 for safety.
const (
	DefaultRetentionDays = 30
	pingsPerDay          = 300
)

// -----------------------------------------------------------------------------

// CalculateMaxDataPoints calculates max buffered pings per device based on
// retention days.
func CalculateMaxDataPoints(days int) int {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return int(math.Ceil(float64(days) * pingsPerDay))
}
