// Package results writes the per-run result file.
package results

import (
	"fmt"

	"vpnspeed/internal/storage/models"
)

// Report is the layout of a results_<stamp>.json file.
type Report struct {
	MachineName string         `json:"MachineName"`
	OS          string         `json:"OS"`
	WithoutVPN  string         `json:"WithoutVPN"`
	VPNStats    []LocationStat `json:"VPNStats"`
}

// LocationStat is one location entry of a Report.
type LocationStat struct {
	LocationName  string `json:"LocationName"`
	TimeToConnect string `json:"TimeToConnect"`
	VPNSpeed      string `json:"VPNSpeed"`
}

// FormatSeconds renders a connection time, e.g. "2.50 sec".
func FormatSeconds(v float64) string {
	return fmt.Sprintf("%.2f sec", v)
}

// FormatMbps renders a download rate, e.g. "41.00 Mbps".
func FormatMbps(v float64) string {
	return fmt.Sprintf("%.2f Mbps", v)
}

// NewReport builds the file representation of a run.
func NewReport(run *models.Run) *Report {
	stats := make([]LocationStat, 0, len(run.Locations))
	for _, loc := range run.Locations {
		stats = append(stats, LocationStat{
			LocationName:  loc.Name,
			TimeToConnect: FormatSeconds(loc.AvgConnectSeconds),
			VPNSpeed:      FormatMbps(loc.AvgMbps),
		})
	}
	return &Report{
		MachineName: run.MachineName,
		OS:          run.OS,
		WithoutVPN:  FormatMbps(run.BaselineMbps),
		VPNStats:    stats,
	}
}
