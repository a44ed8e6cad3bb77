package analytics

import "sensor-dashboard/internal/models"

var sensorChannels = func() map[int]models.Channel {
	m := make(map[int]models.Channel)
	for _, ch := range models.Channels() {
		for _, id := range ch.Info().SensorIDs {
			m[id] = ch
		}
	}
	return m
}()

// Classify maps a sensor ID to its channel. ok is false for sensors that
// belong to no known channel.
func Classify(sensorID int) (ch models.Channel, ok bool) {
	ch, ok = sensorChannels[sensorID]
	return ch, ok
}
