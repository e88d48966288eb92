package dashboard

import (
	"fmt"
	"html/template"
	"slices"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/roman-kulish/grid-track/internal/chart"
)

// Chart identifiers, also used as element IDs of the page and in the
// option endpoint path.
const (
	GridProgressChart = "grid_progress"
	TextChart         = "text"
	CutsChart         = "cuts"
	HeatmapChart      = "heatmap"
	ElevationChart    = "elevation"
)

// ChartNames lists the charts in page order.
var ChartNames = []string{GridProgressChart, TextChart, CutsChart, HeatmapChart, ElevationChart}

const (
	chartWidth    = "620px"
	chartHeight   = "440px"
	paletteStops  = 11
	markerSize    = 6
	amplitudeName = "Amplitude (dB)"
)

// echart is the part of a go-echarts chart the dashboard needs.
type echart interface {
	components.Charter
	JSONNotEscaped() template.HTML
	AddJSFuncStrs(fn ...types.FuncStr)
}

// chartStyle carries the presentation settings shared by all charts.
type chartStyle struct {
	theme      chart.ColorTheme
	assetsHost string
}

var builders = map[string]func(*chart.Snapshot, chartStyle) echart{
	GridProgressChart: gridProgress,
	TextChart:         amplitudeOverTime,
	CutsChart:         func(s *chart.Snapshot, st chartStyle) echart { return cutOverlay(CutsChart, s, chart.AzimuthAxis, st) },
	HeatmapChart:      heatmap,
	ElevationChart:    func(s *chart.Snapshot, st chartStyle) echart { return cutOverlay(ElevationChart, s, chart.ElevationAxis, st) },
}

// buildChart returns the named chart filled with the snapshot data.
func buildChart(name string, snap *chart.Snapshot, style chartStyle) (echart, bool) {
	build, ok := builders[name]
	if !ok {
		return nil, false
	}
	return build(snap, style), true
}

func initOpts(id string, style chartStyle) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		ChartID:    id,
		Width:      chartWidth,
		Height:     chartHeight,
		AssetsHost: style.assetsHost,
	})
}

func subtitle(snap *chart.Snapshot) string {
	if snap.Empty() {
		return "waiting for data"
	}
	return fmt.Sprintf("samples=%d cuts=%d", snap.SampleCount, snap.CutCount)
}

// extentAxis fixes a value axis to the scan extent once data is present.
func extentAxis(name string, lo, hi float64, empty bool) (opts.XAxis, opts.YAxis) {
	x := opts.XAxis{Type: "value", Name: name, NameLocation: "middle", NameGap: 28}
	y := opts.YAxis{Type: "value", Name: name, NameLocation: "middle", NameGap: 36}
	if !empty {
		x.Min, x.Max = lo, hi
		y.Min, y.Max = lo, hi
	}
	return x, y
}

func gridProgress(snap *chart.Snapshot, style chartStyle) echart {
	x, _ := extentAxis("Azimuth", snap.Extent.AzimuthMin, snap.Extent.AzimuthMax, snap.Empty())
	_, y := extentAxis("Elevation", snap.Extent.ElevationMin, snap.Extent.ElevationMax, snap.Empty())

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(GridProgressChart, style),
		charts.WithTitleOpts(opts.Title{Title: "Grid progress", Subtitle: subtitle(snap)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithAnimation(false),
		charts.WithXAxisOpts(x),
		charts.WithYAxisOpts(y),
	)

	data := make([]opts.LineData, len(snap.GridProgress))
	for i, p := range snap.GridProgress {
		data[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
	}
	line.AddSeries("position", data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true), Symbol: "circle", SymbolSize: markerSize}),
	)
	return line
}

func amplitudeOverTime(snap *chart.Snapshot, style chartStyle) echart {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		initOpts(TextChart, style),
		charts.WithTitleOpts(opts.Title{Title: "Text", Subtitle: subtitle(snap)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithAnimation(false),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "Timestamp", NameLocation: "middle", NameGap: 28}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: amplitudeName, NameLocation: "middle", NameGap: 40, Scale: opts.Bool(true)}),
	)

	data := make([]opts.ScatterData, len(snap.Amplitude))
	for i, p := range snap.Amplitude {
		data[i] = opts.ScatterData{Value: []interface{}{p.Timestamp.UnixMilli(), p.Value}}
	}
	scatter.AddSeries("amplitude", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: markerSize}))
	return scatter
}

func cutOverlay(id string, snap *chart.Snapshot, axis chart.Axis, style chartStyle) echart {
	series := snap.AzimuthCuts
	title := "Cuts (azimuth)"
	xName := "Azimuth"
	if axis == chart.ElevationAxis {
		series = snap.ElevationCuts
		title = "Cuts (elevation)"
		xName = "Elevation"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(id, style),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle(snap)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithAnimation(false),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xName, NameLocation: "middle", NameGap: 28, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: amplitudeName, NameLocation: "middle", NameGap: 40, Scale: opts.Bool(true)}),
	)

	// the highlighted cut is drawn last so it stays on top
	ordered := slices.Clone(series)
	slices.SortStableFunc(ordered, func(a, b chart.Series) int {
		switch {
		case a.Highlight == b.Highlight:
			return 0
		case a.Highlight:
			return 1
		default:
			return -1
		}
	})

	for _, s := range ordered {
		data := make([]opts.LineData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
		}
		line.AddSeries("cut "+s.Name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color, Width: float32(s.Width)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		)
	}
	return line
}

func binLabels(bins []chart.Bin) []string {
	labels := make([]string, len(bins))
	for i, b := range bins {
		labels[i] = strconv.FormatFloat(b.Center(), 'f', 1, 64)
	}
	return labels
}

func heatmap(snap *chart.Snapshot, style chartStyle) echart {
	mapper := chart.NewColorMapper(style.theme, snap.Bounds)

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts(HeatmapChart, style),
		charts.WithTitleOpts(opts.Title{Title: "Heatmap", Subtitle: subtitle(snap)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithAnimation(false),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Azimuth", NameLocation: "middle", NameGap: 28, Data: binLabels(snap.Heatmap.XBins)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Elevation", NameLocation: "middle", NameGap: 40, Data: binLabels(snap.Heatmap.YBins)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(snap.Bounds.Min),
			Max:        float32(snap.Bounds.Max),
			Right:      "0",
			Top:        "middle",
			InRange:    &opts.VisualMapInRange{Color: mapper.Palette(paletteStops)},
		}),
	)

	data := make([]opts.HeatMapData, len(snap.Heatmap.Cells))
	for i, c := range snap.Heatmap.Cells {
		data[i] = opts.HeatMapData{Value: [3]interface{}{c.X, c.Y, c.Mean}}
	}
	hm.AddSeries("amplitude", data)
	return hm
}

// pollScript makes a chart fetch its options on every interval and replace
// the rendered ones. The next poll is scheduled only after the previous one
// finished.
func pollScript(name string, interval time.Duration) types.FuncStr {
	return types.FuncStr(fmt.Sprintf(
		`(function(){var c=%%MY_ECHARTS%%;var poll=function(){fetch('/api/charts/%s',{cache:'no-store'}).then(function(r){return r.ok?r.json():null;}).then(function(o){if(o){c.setOption(o,true);}}).catch(function(){}).finally(function(){setTimeout(poll,%d);});};setTimeout(poll,%d);})();`,
		name, interval.Milliseconds(), interval.Milliseconds()))
}
