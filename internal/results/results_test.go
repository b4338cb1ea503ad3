package results

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/m-lab/go/rtx"

	"vpnspeed/internal/logging"
	"vpnspeed/internal/storage/models"
)

func TestNewReport(t *testing.T) {
	run := &models.Run{MachineName: "bench-01", OS: "Linux 6.1.0", BaselineMbps: 93.1}
	run.AddLocation(&models.LocationResult{Name: "Tokyo, Japan", AvgConnectSeconds: 2.5, AvgMbps: 41})
	run.AddLocation(&models.LocationResult{Name: "Toronto, Canada", AvgConnectSeconds: 1.006, AvgMbps: 80.456})

	want := &Report{
		MachineName: "bench-01",
		OS:          "Linux 6.1.0",
		WithoutVPN:  "93.10 Mbps",
		VPNStats: []LocationStat{
			{LocationName: "Tokyo, Japan", TimeToConnect: "2.50 sec", VPNSpeed: "41.00 Mbps"},
			{LocationName: "Toronto, Canada", TimeToConnect: "1.01 sec", VPNSpeed: "80.46 Mbps"},
		},
	}
	if diff := cmp.Diff(want, NewReport(run)); diff != "" {
		t.Errorf("NewReport() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewReport_NoLocations(t *testing.T) {
	report := NewReport(&models.Run{})
	data, err := json.Marshal(report)
	rtx.Must(err, "Could not marshal")
	if want := `{"MachineName":"","OS":"","WithoutVPN":"0.00 Mbps","VPNStats":[]}`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestSaver_Save(t *testing.T) {
	dir := t.TempDir()
	s := &Saver{Dir: dir, Stamp: "20250101_120000", Log: logging.Discard()}

	run := &models.Run{MachineName: "bench-01", OS: "Linux 6.1.0", BaselineMbps: 50}
	rtx.Must(s.Save(context.Background(), run), "Could not save")

	data, err := os.ReadFile(filepath.Join(dir, "results_20250101_120000.json"))
	rtx.Must(err, "Could not read results")

	var got Report
	rtx.Must(json.Unmarshal(data, &got), "Could not decode results")
	if got.WithoutVPN != "50.00 Mbps" || got.MachineName != "bench-01" {
		t.Errorf("unexpected report: %+v", got)
	}

	if err := s.Save(context.Background(), run); err == nil {
		t.Error("second Save with the same stamp should fail")
	}
}
