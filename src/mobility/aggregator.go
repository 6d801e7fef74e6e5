package mobility

import (
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Daily aggregation: each (device, day) partition is reduced to one record
// with start/end fixes, total distance, elapsed time and average speed.
// -----------------------------------------------------------------------------

// AggregateDay reduces one partition to its daily record.
func AggregateDay(partition models.MDevicePartition) models.MDeviceDayRecord {
	first := partition.Start()
	last := partition.End()

	totalDistance := 0.0
	for _, d := range partition.StepDistances {
		totalDistance += d
	}

	elapsed := last.Timestamp.Sub(first.Timestamp).Seconds()

	// Average speed in km/h, zero when the day collapses to an instant
	speed := 0.0
	if elapsed > 0 {
		speed = totalDistance * 3.6 / elapsed
	}

	return models.MDeviceDayRecord{
		DeviceID:       partition.DeviceID,
		Day:            partition.Day,
		DayOfWeek:      partition.DayOfWeek,
		StartTime:      first.Timestamp,
		EndTime:        last.Timestamp,
		StartLat:       first.Latitude,
		StartLon:       first.Longitude,
		EndLat:         last.Latitude,
		EndLon:         last.Longitude,
		DistanceMeters: totalDistance,
		ElapsedSeconds: elapsed,
		SpeedKmh:       speed,
		Observations:   len(partition.Observations),
	}
}

// -----------------------------------------------------------------------------

// AggregateDays reduces every partition of every device, keeping day order.
func AggregateDays(partitions map[string][]models.MDevicePartition) map[string][]models.MDeviceDayRecord {
	result := make(map[string][]models.MDeviceDayRecord, len(partitions))
	for deviceID, devicePartitions := range partitions {
		records := make([]models.MDeviceDayRecord, len(devicePartitions))
		for i, partition := range devicePartitions {
			records[i] = AggregateDay(partition)
		}
		result[deviceID] = records
	}
	return result
}
