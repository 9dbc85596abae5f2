// Package track renders the ground track of a recorded NCOM session.
package track

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/ncom.report/internal/ncom"
)

// ErrNoPoints is returned when no record carries a finite position.
var ErrNoPoints = errors.New("no positions to plot")

var (
	trackColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	startColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	endColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Points returns the longitude/latitude pairs of records, skipping
// non-finite positions.
func Points(records []*ncom.Record) plotter.XYs {
	pts := make(plotter.XYs, 0, len(records))
	for _, rec := range records {
		if !finite(rec.Long) || !finite(rec.Lat) {
			continue
		}
		pts = append(pts, plotter.XY{X: rec.Long, Y: rec.Lat})
	}
	return pts
}

// PlotTrack writes a longitude/latitude plot of records to path. The image
// format follows the file extension (.png, .svg, .pdf).
func PlotTrack(records []*ncom.Record, title, path string) error {
	pts := Points(records)
	if len(pts) == 0 {
		return ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Longitude (°)"
	p.Y.Label.Text = "Latitude (°)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = trackColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("track (%d fixes)", len(pts)), line)

	start, err := marker(pts[:1], startColor, draw.CircleGlyph{})
	if err != nil {
		return err
	}
	end, err := marker(pts[len(pts)-1:], endColor, draw.SquareGlyph{})
	if err != nil {
		return err
	}
	p.Add(start, end)
	p.Legend.Add("start", start)
	p.Legend.Add("end", end)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save track plot %s: %w", path, err)
	}
	return nil
}

func marker(pts plotter.XYs, c color.Color, shape draw.GlyphDrawer) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Radius = vg.Points(4)
	return s, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
