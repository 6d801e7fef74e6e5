package helpers

import "fmt"

// GetRecommendedMemoryLimit calculates a safe memory limit for the application.
// Policy: 75% of total RAM, never below 512MB on machines that have it.
func GetRecommendedMemoryLimit() int {
	// Call OS-specific implementation
	totalMB := GetTotalSystemMemoryMB()
	if totalMB == 0 {
		fmt.Println("Warning: Could not determine system memory. Defaulting to 512MB.")
		return 512
	}

	limit := int(float64(totalMB) * 0.75)

	if limit < 512 {
		if totalMB < 512 {
			return totalMB // Very low memory system
		}
		return 512
	}

	return limit
}
