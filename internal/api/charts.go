package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/ncom.report/internal/httputil"
	"github.com/banshee-data/ncom.report/internal/ncom"
	"github.com/banshee-data/ncom.report/internal/summary"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

const (
	defaultChartPoints = 2000
	maxChartPoints     = 50000
)

// attitudeChart renders heading, pitch and roll against record index for a
// session, followed by a bar chart of navigation status counts.
// Query params:
//   - session_id (required)
//   - max_points (optional; default 2000) to reduce payload size
func (s *Server) attitudeChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if !s.requireDB(w) {
		return
	}
	maxPoints, err := httputil.QueryInt(r, "max_points", defaultChartPoints, 10, maxChartPoints)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sess, records, ok := s.sessionRecords(w, r, 0)
	if !ok {
		return
	}
	if len(records) == 0 {
		httputil.NotFound(w, fmt.Sprintf("session %s has no records", sess.ID))
		return
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.PageTitle = "NCOM " + sess.ID
	page.AddCharts(
		attitudeLine(sess.ID, records, maxPoints),
		navStatBar(records),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func attitudeLine(sessionID string, records []*ncom.Record, maxPoints int) *charts.Line {
	// Downsample by stride to stay within maxPoints
	stride := 1
	if len(records) > maxPoints {
		stride = int(math.Ceil(float64(len(records)) / float64(maxPoints)))
	}

	n := len(records)/stride + 1
	x := make([]string, 0, n)
	heading := make([]opts.LineData, 0, n)
	pitch := make([]opts.LineData, 0, n)
	roll := make([]opts.LineData, 0, n)
	for i := 0; i < len(records); i += stride {
		rec := records[i]
		x = append(x, strconv.Itoa(i))
		heading = append(heading, lineValue(rec.Heading))
		pitch = append(pitch, lineValue(rec.Pitch))
		roll = append(roll, lineValue(rec.Roll))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "520px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Attitude", Subtitle: fmt.Sprintf("session=%s points=%d stride=%d", sessionID, len(x), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "record", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "degrees"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(x).
		AddSeries("Heading", heading).
		AddSeries("Pitch", pitch).
		AddSeries("Roll", roll)
	return line
}

// lineValue maps non-finite samples to echarts' missing-value marker.
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}

func navStatBar(records []*ncom.Record) *charts.Bar {
	counts := summary.NavStatCounts(records)
	x := make([]string, len(counts))
	y := make([]opts.BarData, len(counts))
	for i, c := range counts {
		x[i] = c.Label
		y[i] = opts.BarData{Value: c.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Navigation status"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("records", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}
