package track

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/ncom.report/internal/ncom"
)

func TestPoints(t *testing.T) {
	records := []*ncom.Record{
		{Lat: 51.5, Long: -1.2},
		{Lat: math.NaN(), Long: -1.2},
		{Lat: 51.6, Long: math.Inf(1)},
		{Lat: 51.7, Long: -1.3},
	}
	pts := Points(records)
	if len(pts) != 2 {
		t.Fatalf("Points returned %d points, want 2", len(pts))
	}
	if pts[1].X != -1.3 || pts[1].Y != 51.7 {
		t.Errorf("second point = %+v", pts[1])
	}
}

func TestPlotTrackWritesPNG(t *testing.T) {
	var records []*ncom.Record
	for i := 0; i < 50; i++ {
		a := float64(i) / 50 * 2 * math.Pi
		records = append(records, &ncom.Record{Lat: 51.5 + 0.001*math.Sin(a), Long: -1.2 + 0.001*math.Cos(a)})
	}

	path := filepath.Join(t.TempDir(), "track.png")
	if err := PlotTrack(records, "test drive", path); err != nil {
		t.Fatalf("PlotTrack: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("output is not a PNG (%d bytes)", len(data))
	}
}

func TestPlotTrackEmpty(t *testing.T) {
	err := PlotTrack([]*ncom.Record{{Lat: math.NaN(), Long: 0}}, "empty", filepath.Join(t.TempDir(), "x.png"))
	if !errors.Is(err, ErrNoPoints) {
		t.Errorf("PlotTrack error = %v, want ErrNoPoints", err)
	}
}

func TestPlotTrackBadExtension(t *testing.T) {
	err := PlotTrack([]*ncom.Record{{Lat: 1, Long: 1}}, "bad", filepath.Join(t.TempDir(), "x.unknown"))
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}
