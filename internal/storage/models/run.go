package models

import "time"

// Run represents one complete test run: a baseline measurement followed by
// every configured location.
type Run struct {
	ID           string            `json:"id"`
	MachineName  string            `json:"machine_name"`
	OS           string            `json:"os"`
	BaselineMbps float64           `json:"baseline_mbps"` // 0 if the baseline could not be measured
	Locations    []*LocationResult `json:"locations"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
}

// AddLocation appends a location result to the run.
func (r *Run) AddLocation(result *LocationResult) {
	result.RunID = r.ID
	r.Locations = append(r.Locations, result)
}
