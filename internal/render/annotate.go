package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/grid-track/internal/chart"
)

const (
	dpi             = 72.0
	minLabelSpacing = 40 // Minimum pixels between two scale labels
)

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
	colorMap *chart.ColorMapper
}

func newAnnotator(size float64, colorMap *chart.ColorMapper) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.Black)

	return &annotator{
		context:  ctx,
		colorMap: colorMap,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, snap *chart.Snapshot) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, image.Rectangle, *chart.Snapshot) error
	}{
		{"drawing azimuth scale", a.drawAzimuthScale},
		{"drawing elevation scale", a.drawElevationScale},
		{"drawing legend", a.drawLegend},
		{"drawing info bar", a.drawInfoBar},
	}
	for _, op := range ops {
		if err := op.fn(img, area, snap); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

// labelStride returns how many bins to skip between labels so that they do
// not overlap.
func labelStride(bins int, pxPerBin int) int {
	if bins == 0 || pxPerBin <= 0 {
		return 1
	}
	return max(1, (minLabelSpacing+pxPerBin-1)/pxPerBin)
}

func (a *annotator) drawAzimuthScale(img *image.RGBA, area image.Rectangle, snap *chart.Snapshot) error {
	bins := snap.Heatmap.XBins
	if len(bins) == 0 {
		return nil
	}

	pxPerBin := area.Dx() / len(bins)
	textY := area.Min.Y - tickMarkLength - 4

	for i := 0; i < len(bins); i += labelStride(len(bins), pxPerBin) {
		x := area.Min.X + i*pxPerBin + pxPerBin/2

		for y := area.Min.Y - tickMarkLength; y < area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}

		label := fmt.Sprintf("%.0f", bins[i].Center())
		width := font.MeasureString(a.fontFace, label).Round()
		if _, err := a.context.DrawString(label, freetype.Pt(x-width/2, textY)); err != nil {
			return fmt.Errorf("drawing azimuth label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawElevationScale(img *image.RGBA, area image.Rectangle, snap *chart.Snapshot) error {
	bins := snap.Heatmap.YBins
	if len(bins) == 0 {
		return nil
	}

	pxPerBin := area.Dy() / len(bins)
	descent := a.fontFace.Metrics().Descent.Round()

	for i := 0; i < len(bins); i += labelStride(len(bins), pxPerBin) {
		y := area.Max.Y - i*pxPerBin - pxPerBin/2

		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := fmt.Sprintf("%.0f", bins[i].Center())
		width := font.MeasureString(a.fontFace, label).Round()
		pt := freetype.Pt(area.Min.X-tickMarkLength-4-width, y+a.fontHeight()/2-descent)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing elevation label: %w", err)
		}
	}
	return nil
}

// drawLegend draws a vertical color bar right of the heatmap, high values on top
func (a *annotator) drawLegend(img *image.RGBA, area image.Rectangle, snap *chart.Snapshot) error {
	if area.Dy() == 0 {
		return nil
	}

	x0 := area.Max.X + 12
	bounds := snap.Bounds
	for y := area.Min.Y; y < area.Max.Y; y++ {
		ratio := float64(area.Max.Y-1-y) / float64(max(1, area.Dy()-1))
		c := a.colorMap.GetColor(bounds.Min + ratio*bounds.Range())
		for x := x0; x < x0+legendWidth; x++ {
			img.Set(x, y, c)
		}
	}

	textX := x0 + legendWidth + 4
	labels := []struct {
		value float64
		y     int
	}{
		{bounds.Max, area.Min.Y + a.fontHeight()},
		{bounds.Min, area.Max.Y},
	}
	for _, l := range labels {
		if _, err := a.context.DrawString(fmt.Sprintf("%.1f", l.value), freetype.Pt(textX, l.y)); err != nil {
			return fmt.Errorf("drawing legend label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, area image.Rectangle, snap *chart.Snapshot) error {
	var sb strings.Builder

	if snap.Empty() {
		sb.WriteString("No samples")
	} else {
		sb.WriteString(fmt.Sprintf("Samples: %s; Cuts: %s; Amplitude: %.1f to %.1f dB",
			humanize.Comma(int64(snap.SampleCount)),
			humanize.Comma(int64(snap.CutCount)),
			snap.Bounds.Min, snap.Bounds.Max))

		if x, y := snap.Heatmap.XBins, snap.Heatmap.YBins; len(x) > 0 && len(y) > 0 {
			sb.WriteString(fmt.Sprintf("; 1 cell = %.1f x %.1f deg", x[0].Hi-x[0].Lo, y[0].Hi-y[0].Lo))
		}
	}

	descent := a.fontFace.Metrics().Descent.Round()
	bottom := img.Bounds().Max.Y - area.Max.Y
	textY := img.Bounds().Max.Y - (bottom-a.fontHeight())/2 - descent

	if _, err := a.context.DrawString(sb.String(), freetype.Pt(4, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}
