package models

import "time"

// LocationResult holds the averages of the successful rounds for one location.
// It only exists for locations with at least one successful round.
type LocationResult struct {
	ID                int64     `json:"id"`
	RunID             string    `json:"run_id"`
	Name              string    `json:"name"` // "City, Country"
	Country           string    `json:"country"`
	City              string    `json:"city"`
	AvgConnectSeconds float64   `json:"avg_connect_seconds"`
	AvgMbps           float64   `json:"avg_mbps"`
	Successes         int       `json:"successes"` // rounds that connected
	Rounds            int       `json:"rounds"`    // rounds attempted
	TestedAt          time.Time `json:"tested_at"`
}
