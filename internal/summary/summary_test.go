package summary

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ncom.report/internal/ncom"
	"github.com/banshee-data/ncom.report/internal/units"
)

func TestDescribe(t *testing.T) {
	got := Describe("x", []float64{4, 1, math.NaN(), 3, 2, math.Inf(1)})
	want := FieldSummary{
		Name:   "x",
		Count:  4,
		Mean:   2.5,
		StdDev: math.Sqrt(5.0 / 3.0),
		Min:    1,
		Max:    4,
		P50:    2,
		P85:    4,
		P95:    4,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribeEdgeCases(t *testing.T) {
	assert.Equal(t, FieldSummary{Name: "empty"}, Describe("empty", nil))
	assert.Equal(t, FieldSummary{Name: "nan", Count: 0}, Describe("nan", []float64{math.NaN()}))

	one := Describe("one", []float64{7})
	assert.Equal(t, 1, one.Count)
	assert.Equal(t, 7.0, one.Mean)
	assert.Equal(t, 0.0, one.StdDev)
	assert.Equal(t, 7.0, one.P95)
}

func TestSummarise(t *testing.T) {
	records := make([]*ncom.Record, 0, 3)
	for i, v := range []float64{3, 4, 0} {
		rec := &ncom.Record{VelNorth: v, VelEast: 4, AccX: float64(i), Alti: uint32(100 + i)}
		rec.SetNavStat(4)
		records = append(records, rec)
	}

	got := Summarise(records)
	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"AccX", "AccY", "AccZ", "AngX", "AngY", "AngZ",
		"Lat", "Long", "Alti", "Vel_North", "Vel_East", "Vel_Down",
		"Heading", "Pitch", "Roll", GroundSpeedField,
	}, names)

	byName := make(map[string]FieldSummary)
	for _, s := range got {
		byName[s.Name] = s
	}
	assert.Equal(t, 3, byName["AccX"].Count)
	assert.Equal(t, 1.0, byName["AccX"].Mean)
	assert.Equal(t, 101.0, byName["Alti"].Mean)
	assert.Equal(t, 102.0, byName["Alti"].Max)

	speed := byName[GroundSpeedField]
	require.Equal(t, 3, speed.Count)
	assert.InDelta(t, 4.0, speed.Min, 1e-12)
	assert.InDelta(t, math.Hypot(4, 4), speed.Max, 1e-12)
	assert.InDelta(t, 5.0, speed.P50, 1e-12)
}

func TestSummariseEmpty(t *testing.T) {
	got := Summarise(nil)
	require.Len(t, got, 16)
	for _, s := range got {
		assert.Zero(t, s.Count, s.Name)
	}
}

func TestNavStatCounts(t *testing.T) {
	var records []*ncom.Record
	for _, code := range []uint8{4, 4, 2, 200, 4} {
		rec := &ncom.Record{}
		rec.SetNavStat(code)
		records = append(records, rec)
	}
	want := []NavStatCount{
		{Code: 2, Label: "2: Initialising", Count: 1},
		{Code: 4, Label: "4: Locked", Count: 3},
		{Code: 200, Label: "Reserved", Count: 1},
	}
	if diff := cmp.Diff(want, NavStatCounts(records)); diff != "" {
		t.Errorf("NavStatCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestGroundSpeed(t *testing.T) {
	assert.Equal(t, 5.0, GroundSpeed(&ncom.Record{VelNorth: -3, VelEast: 4}))
}

func TestConvertSpeeds(t *testing.T) {
	fields := []FieldSummary{
		{Name: "Acc_X", Count: 2, Mean: 1, Max: 2},
		{Name: "Vel_North", Count: 2, Mean: 10, StdDev: 1, Min: 9, Max: 11, P50: 10, P85: 11, P95: 11},
		{Name: GroundSpeedField, Count: 2, Mean: 20, Max: 25},
	}
	got := ConvertSpeeds(fields, units.KPH)

	want := []FieldSummary{
		{Name: "Acc_X", Count: 2, Mean: 1, Max: 2},
		{Name: "Vel_North", Count: 2, Mean: 36, StdDev: 3.6, Min: 32.4, Max: 39.6, P50: 36, P85: 39.6, P95: 39.6, Unit: "kph"},
		{Name: GroundSpeedField, Count: 2, Mean: 72, Max: 90, Unit: "kph"},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("ConvertSpeeds mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 10.0, fields[1].Mean, "input is not modified")
}
