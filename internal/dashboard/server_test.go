package dashboard

import (
	"context"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/grid-track/internal/chart"
)

type chartOption struct {
	Title struct {
		Text string `json:"text"`
	} `json:"title"`
	XAxis []struct {
		Type string   `json:"type"`
		Data []string `json:"data"`
	} `json:"xAxis"`
	VisualMap []struct {
		Min     float64 `json:"min"`
		Max     float64 `json:"max"`
		InRange struct {
			Color []string `json:"color"`
		} `json:"inRange"`
	} `json:"visualMap"`
	Series []struct {
		Name      string            `json:"name"`
		Type      string            `json:"type"`
		Data      []json.RawMessage `json:"data"`
		LineStyle *struct {
			Color string  `json:"color"`
			Width float64 `json:"width"`
		} `json:"lineStyle"`
	} `json:"series"`
}

func newTestServer(t *testing.T, samples int) (*Server, *Poller) {
	t.Helper()

	p := NewPoller(&fakeSource{samples: generate(t, samples)})
	require.NoError(t, p.Refresh(context.Background()))
	return NewServer(p), p
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func getChart(t *testing.T, s *Server, name string) chartOption {
	t.Helper()

	rr := get(t, s, "/api/charts/"+name)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var opt chartOption
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &opt))
	return opt
}

func TestServer_Index(t *testing.T) {
	s, _ := newTestServer(t, 40)

	rr := get(t, s, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Contains(t, body, pageTitle)
	for _, name := range ChartNames {
		assert.Contains(t, body, `id="`+name+`"`)
		assert.Contains(t, body, "/api/charts/"+name)
		assert.Contains(t, body, "var c=goecharts_"+name+";")
	}
}

func TestServer_CutCharts(t *testing.T) {
	s, p := newTestServer(t, 40)

	for name, title := range map[string]string{CutsChart: "Cuts (azimuth)", ElevationChart: "Cuts (elevation)"} {
		t.Run(name, func(t *testing.T) {
			opt := getChart(t, s, name)
			assert.Equal(t, title, opt.Title.Text)
			require.Len(t, opt.Series, p.Snapshot().CutCount)

			last := opt.Series[len(opt.Series)-1]
			assert.Equal(t, "cut 2", last.Name)
			require.NotNil(t, last.LineStyle)
			assert.Equal(t, chart.HighlightColor, last.LineStyle.Color)
			assert.Equal(t, chart.HighlightWidth, last.LineStyle.Width)

			for _, series := range opt.Series[:len(opt.Series)-1] {
				require.NotNil(t, series.LineStyle)
				assert.Equal(t, chart.NeutralColor, series.LineStyle.Color)
				assert.Equal(t, chart.NeutralWidth, series.LineStyle.Width)
			}
		})
	}
}

func TestServer_GridProgressAndText(t *testing.T) {
	s, _ := newTestServer(t, 40)

	grid := getChart(t, s, GridProgressChart)
	require.Len(t, grid.Series, 1)
	assert.Equal(t, "line", grid.Series[0].Type)
	assert.Len(t, grid.Series[0].Data, 40)

	text := getChart(t, s, TextChart)
	assert.Equal(t, "Text", text.Title.Text)
	require.Len(t, text.Series, 1)
	assert.Equal(t, "scatter", text.Series[0].Type)
	assert.Len(t, text.Series[0].Data, 40)
	require.Len(t, text.XAxis, 1)
	assert.Equal(t, "time", text.XAxis[0].Type)
}

func TestServer_Heatmap(t *testing.T) {
	s, p := newTestServer(t, 120)

	opt := getChart(t, s, HeatmapChart)
	require.Len(t, opt.XAxis, 1)
	assert.Len(t, opt.XAxis[0].Data, len(p.Snapshot().Heatmap.XBins))
	assert.Len(t, opt.XAxis[0].Data, 17) // one bin per azimuth step

	require.Len(t, opt.Series, 1)
	assert.Len(t, opt.Series[0].Data, len(p.Snapshot().Heatmap.Cells))

	require.Len(t, opt.VisualMap, 1)
	vm := opt.VisualMap[0]
	assert.InDelta(t, p.Snapshot().Bounds.Min, vm.Min, 1e-3)
	assert.InDelta(t, p.Snapshot().Bounds.Max, vm.Max, 1e-3)
	require.Len(t, vm.InRange.Color, paletteStops)
	assert.Equal(t, "#053061", vm.InRange.Color[0])
	assert.Equal(t, "#67001f", vm.InRange.Color[paletteStops-1])
}

func TestServer_UnknownChart(t *testing.T) {
	s, _ := newTestServer(t, 5)

	rr := get(t, s, "/api/charts/pie")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_Snapshot(t *testing.T) {
	s, _ := newTestServer(t, 30)

	rr := get(t, s, "/api/snapshot")
	require.Equal(t, http.StatusOK, rr.Code)

	var snap chart.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 30, snap.SampleCount)
	assert.Equal(t, 1, snap.LatestCut)
	assert.Len(t, snap.AzimuthCuts, 2)
}

func TestServer_HeatmapImage(t *testing.T) {
	s, _ := newTestServer(t, 60)

	rr := get(t, s, "/heatmap.png")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	img, err := png.Decode(rr.Body)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, 10)

	rr := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 10, health.Samples)
	assert.NotEmpty(t, health.UpdatedAt)

	rr = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "gridtrack_refresh_total")
}

func TestServer_EmptyDataset(t *testing.T) {
	s := NewServer(NewPoller(&fakeSource{}))

	for _, name := range ChartNames {
		rr := get(t, s, "/api/charts/"+name)
		assert.Equal(t, http.StatusOK, rr.Code, name)
	}
	assert.Equal(t, http.StatusOK, get(t, s, "/").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/heatmap.png").Code)
}

func TestServer_SnapshotEncodingFailure(t *testing.T) {
	samples := generate(t, 5)
	samples[2].Amplitude = math.NaN()

	p := NewPoller(&fakeSource{samples: samples})
	require.NoError(t, p.Refresh(context.Background()))
	s := NewServer(p)

	rr := get(t, s, "/api/snapshot")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "failed to encode response", resp.Error)

	// endpoints without amplitudes keep working
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
}
