// Package chart renders weight trend charts as PNG images.
package chart

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"

	"weightlog/internal/domain"
)

// Output size in pixels. vgimg renders at 96 DPI.
const (
	Width  = 800
	Height = 400
)

const (
	dpi           = 96
	secondsPerDay = 24 * 60 * 60
)

var (
	lineColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	goalColor = color.RGBA{G: 128, A: 255}
)

// Image is a rendered chart. Blank is set when there was nothing to plot;
// callers should show a placeholder instead of the image.
type Image struct {
	PNG   []byte
	Blank bool
}

// Render plots entries converted to displayMetric units as a line in date
// order with a dashed horizontal line at goal. goal must already be in
// displayMetric units. Output depends only on the arguments.
func Render(entries []domain.Entry, goal float64, displayMetric bool) (Image, error) {
	if len(entries) == 0 {
		b, err := blankPNG()
		if err != nil {
			return Image{}, err
		}
		return Image{PNG: b, Blank: true}, nil
	}

	pts := series(entries, displayMetric)

	p := plot.New()
	p.X.Label.Text = "Date"
	p.Y.Label.Text = fmt.Sprintf("Weight (%s)", domain.UnitName(displayMetric))
	p.X.Tick.Marker = plot.TimeTicks{Format: domain.DateLayout}
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return Image{}, fmt.Errorf("chart: entries: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(1.5)
	points.Color = lineColor
	points.Shape = vgdraw.CircleGlyph{}
	points.Radius = vg.Points(2.5)

	first, last := pts[0].X, pts[len(pts)-1].X
	goalLine, err := plotter.NewLine(goalSeries(pts, goal))
	if err != nil {
		return Image{}, fmt.Errorf("chart: goal: %w", err)
	}
	goalLine.Color = goalColor
	goalLine.Width = vg.Points(1.5)
	goalLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p.Add(goalLine, line, points)
	if first == last {
		p.X.Min = first - secondsPerDay
		p.X.Max = last + secondsPerDay
	}

	wt, err := p.WriterTo(pixels(Width), pixels(Height), "png")
	if err != nil {
		return Image{}, fmt.Errorf("chart: writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return Image{}, fmt.Errorf("chart: encode: %w", err)
	}
	return Image{PNG: buf.Bytes()}, nil
}

// Key identifies the chart Render would produce for the same arguments.
func Key(entries []domain.Entry, goal float64, displayMetric bool) string {
	h := sha256.New()
	var b [8]byte
	write := func(v uint64) {
		binary.BigEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	write(math.Float64bits(goal))
	if displayMetric {
		write(1)
	} else {
		write(0)
	}
	for _, e := range entries {
		write(uint64(e.Date.Time().Unix()))
		write(math.Float64bits(e.Weight))
		if e.IsMetric {
			write(1)
		} else {
			write(0)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// series returns one point per entry in date order: X is the Unix time of
// the date, Y the weight in displayMetric units.
func series(entries []domain.Entry, displayMetric bool) plotter.XYs {
	sorted := make([]domain.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	pts := make(plotter.XYs, len(sorted))
	for i, e := range sorted {
		pts[i].X = float64(e.Date.Time().Unix())
		pts[i].Y = domain.ConvertWeight(e.IsMetric, displayMetric, e.Weight)
	}
	return pts
}

// goalSeries spans pts horizontally at goal. pts must not be empty.
func goalSeries(pts plotter.XYs, goal float64) plotter.XYs {
	return plotter.XYs{
		{X: pts[0].X, Y: goal},
		{X: pts[len(pts)-1].X, Y: goal},
	}
}

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / dpi
}

func blankPNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
