// Package summary computes descriptive statistics over decoded NCOM records.
package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ncom.report/internal/ncom"
	"github.com/banshee-data/ncom.report/internal/units"
)

// FieldSummary describes one numeric field across a set of records.
// Non-finite values are excluded, so Count may be lower than the number of
// records.
type FieldSummary struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P85    float64 `json:"p85"`
	P95    float64 `json:"p95"`
	Unit   string  `json:"unit,omitempty"` // set by ConvertSpeeds
}

// NavStatCount is the number of records carrying one navigation status.
type NavStatCount struct {
	Code  uint8  `json:"code"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GroundSpeedField names the derived horizontal speed (m/s) summary.
const GroundSpeedField = "Ground_Speed"

// Summarise returns statistics for every numeric measurement field in
// DefaultLayout order, followed by the derived ground speed.
func Summarise(records []*ncom.Record) []FieldSummary {
	var out []FieldSummary
	for _, spec := range ncom.DefaultLayout {
		if !isMeasurement(spec.ID) {
			continue
		}
		values := make([]float64, 0, len(records))
		for _, rec := range records {
			if v, ok := numeric(rec.Value(spec.ID)); ok {
				values = append(values, v)
			}
		}
		out = append(out, Describe(spec.Name, values))
	}

	speeds := make([]float64, 0, len(records))
	for _, rec := range records {
		speeds = append(speeds, GroundSpeed(rec))
	}
	out = append(out, Describe(GroundSpeedField, speeds))
	return out
}

// Describe summarises values. NaN and ±Inf are dropped first.
func Describe(name string, values []float64) FieldSummary {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	s := FieldSummary{Name: name, Count: len(finite)}
	if len(finite) == 0 {
		return s
	}

	sort.Float64s(finite)
	s.Min = floats.Min(finite)
	s.Max = floats.Max(finite)
	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	if len(finite) < 2 {
		s.StdDev = 0
	}
	s.P50 = stat.Quantile(0.50, stat.Empirical, finite, nil)
	s.P85 = stat.Quantile(0.85, stat.Empirical, finite, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, finite, nil)
	return s
}

// GroundSpeed is the horizontal speed over ground in m/s.
func GroundSpeed(rec *ncom.Record) float64 {
	return math.Hypot(rec.VelNorth, rec.VelEast)
}

// NavStatCounts tallies records by navigation status, ordered by code.
func NavStatCounts(records []*ncom.Record) []NavStatCount {
	counts := make(map[uint8]int)
	for _, rec := range records {
		counts[rec.NavStatCode()]++
	}
	out := make([]NavStatCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, NavStatCount{Code: code, Label: ncom.NavStatLabel(code), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ConvertSpeeds rescales the velocity and ground speed summaries from m/s
// to u and labels them with the unit. Other fields are returned unchanged.
func ConvertSpeeds(fields []FieldSummary, u units.SpeedUnit) []FieldSummary {
	speed := map[string]bool{GroundSpeedField: true}
	for _, spec := range ncom.DefaultLayout {
		switch spec.ID {
		case ncom.FieldVelNorth, ncom.FieldVelEast, ncom.FieldVelDown:
			speed[spec.Name] = true
		}
	}

	k := u.Factor()
	out := make([]FieldSummary, len(fields))
	for i, f := range fields {
		if speed[f.Name] {
			f.Mean *= k
			f.StdDev *= k
			f.Min *= k
			f.Max *= k
			f.P50 *= k
			f.P85 *= k
			f.P95 *= k
			f.Unit = string(u)
		}
		out[i] = f
	}
	return out
}

func isMeasurement(id ncom.FieldID) bool {
	switch id {
	case ncom.FieldAccX, ncom.FieldAccY, ncom.FieldAccZ,
		ncom.FieldAngX, ncom.FieldAngY, ncom.FieldAngZ,
		ncom.FieldLat, ncom.FieldLong, ncom.FieldAlti,
		ncom.FieldVelNorth, ncom.FieldVelEast, ncom.FieldVelDown,
		ncom.FieldHeading, ncom.FieldPitch, ncom.FieldRoll:
		return true
	}
	return false
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case uint32:
		return float64(x), true
	}
	return 0, false
}
