package mobility

import (
	"sort"

	"mobility-observer/src/geo"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Trajectory reconstruction: raw pings are grouped per device and day, ordered
// in time, and annotated with the haversine distance of each step.
// -----------------------------------------------------------------------------

// ReconstructTrajectories partitions observations by (device, day) and returns
// per-device partitions sorted chronologically. Keys of the outer map are
// device ids; each device's partitions are ordered by day.
func ReconstructTrajectories(observations []models.MObservation) map[string][]models.MDevicePartition {
	byKey := make(map[string]map[string][]models.MObservation)

	for _, obs := range observations {
		day := obs.Day()
		if _, ok := byKey[obs.DeviceID]; !ok {
			byKey[obs.DeviceID] = make(map[string][]models.MObservation)
		}
		byKey[obs.DeviceID][day] = append(byKey[obs.DeviceID][day], obs)
	}

	result := make(map[string][]models.MDevicePartition, len(byKey))
	for deviceID, days := range byKey {
		partitions := make([]models.MDevicePartition, 0, len(days))
		for day, dayObs := range days {
			sort.Slice(dayObs, func(i, j int) bool {
				return dayObs[i].Timestamp.Before(dayObs[j].Timestamp)
			})

			partitions = append(partitions, models.MDevicePartition{
				DeviceID:      deviceID,
				Day:           day,
				DayOfWeek:     dayObs[0].Timestamp.Weekday().String(),
				Observations:  dayObs,
				StepDistances: stepDistances(dayObs),
			})
		}

		sort.Slice(partitions, func(i, j int) bool {
			return partitions[i].Day < partitions[j].Day
		})
		result[deviceID] = partitions
	}
	return result
}

// -----------------------------------------------------------------------------

// stepDistances computes the distance in meters between consecutive pings.
// A day with a single ping has no steps.
func stepDistances(observations []models.MObservation) []float64 {
	if len(observations) < 2 {
		return nil
	}

	distances := make([]float64, len(observations)-1)
	for i := 1; i < len(observations); i++ {
		distances[i-1] = geo.Distance(
			geo.Point{Lat: observations[i-1].Latitude, Lon: observations[i-1].Longitude},
			geo.Point{Lat: observations[i].Latitude, Lon: observations[i].Longitude},
		)
	}
	return distances
}
