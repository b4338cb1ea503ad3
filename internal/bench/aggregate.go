package bench

import (
	"vpnspeed/internal/config"
	"vpnspeed/internal/storage/models"
)

// Sample is the measurement of one successful round.
type Sample struct {
	ConnectSeconds float64
	Mbps           float64
}

// Aggregate averages the samples of a location. It returns false when there
// are no samples, so a location whose rounds all failed yields no result.
func Aggregate(loc config.Location, samples []Sample, rounds int) (*models.LocationResult, bool) {
	if len(samples) == 0 {
		return nil, false
	}

	var connect, mbps float64
	for _, s := range samples {
		connect += s.ConnectSeconds
		mbps += s.Mbps
	}
	n := float64(len(samples))

	return &models.LocationResult{
		Name:              loc.Name(),
		Country:           loc.Country,
		City:              loc.City,
		AvgConnectSeconds: connect / n,
		AvgMbps:           mbps / n,
		Successes:         len(samples),
		Rounds:            rounds,
	}, true
}
