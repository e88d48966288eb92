package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/grid-track/internal/scan"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC)

func testSamples(n int) []scan.Sample {
	samples := make([]scan.Sample, n)
	for i := range samples {
		samples[i] = scan.Sample{
			Index:     int64(i),
			Timestamp: baseTime.Add(time.Duration(i) * 2500 * time.Millisecond),
			Azimuth:   -80 + float64(i%17)*10,
			Elevation: -80 + float64(i/17)*10,
			Amplitude: -100.25 - float64(i)/8,
			CutIndex:  i / 17,
		}
	}
	return samples
}

func TestCSVRecord_HeaderMatchesColumns(t *testing.T) {
	header, err := csvutil.Header(csvRecord{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, scan.Columns(), header)
}

func TestCSVWriter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "data", "scan.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	samples := testSamples(40)
	require.NoError(t, w.Append(ctx, samples[:1]))
	require.NoError(t, w.Append(ctx, samples[1:]))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close must be idempotent")

	got, err := NewCSVReader(path).Samples(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(samples))

	for i := range samples {
		assert.Equal(t, samples[i].Index, got[i].Index)
		assert.True(t, samples[i].Timestamp.Equal(got[i].Timestamp), "timestamp %d: %s != %s", i, samples[i].Timestamp, got[i].Timestamp)
		assert.Equal(t, samples[i].Azimuth, got[i].Azimuth)
		assert.Equal(t, samples[i].Elevation, got[i].Elevation)
		assert.Equal(t, samples[i].Amplitude, got[i].Amplitude)
		assert.Equal(t, samples[i].CutIndex, got[i].CutIndex)
	}
}

func TestCSVWriter_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(context.Background(), testSamples(3)))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := splitLines(string(data))
	require.Len(t, lines, 4)
	assert.Equal(t, "index,timestamp,azimuth,elevation,amplitude,cut_index", lines[0])
	assert.Contains(t, lines[1], "2024-05-01T12:00:00.123456Z")
}

func TestCSVWriter_TruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.csv")
	require.NoError(t, os.WriteFile(path, []byte("garbage\nmore garbage\n"), 0o644))

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := NewCSVReader(path).Samples(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVWriter_AppendAfterClose(t *testing.T) {
	w, err := NewCSVWriter(filepath.Join(t.TempDir(), "scan.csv"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Append(context.Background(), testSamples(1)), os.ErrClosed)
}

func TestCSVReader_IgnoresPartialLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.csv")
	content := "index,timestamp,azimuth,elevation,amplitude,cut_index\n" +
		"0,2024-05-01T12:00:00Z,-80,-80,-163.1,0\n" +
		"1,2024-05-01T12:00:02.5Z,-70,-80,-157.2,0\n" +
		"2,2024-05-01T12:00:0"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := NewCSVReader(path).Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[1].Index)
	assert.Equal(t, -157.2, got[1].Amplitude)
}

func TestCSVReader_NaiveTimestampsAreUTC(t *testing.T) {
	data := []byte("index,timestamp,azimuth,elevation,amplitude,cut_index\n" +
		"0,2024-05-01T12:00:00.123456,-80,-80,-163.1,0\n")

	got, err := DecodeCSV(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Timestamp.Equal(baseTime))
	assert.Equal(t, time.UTC, got[0].Timestamp.Location())
}

func TestCSVReader_EmptyAndHeaderOnly(t *testing.T) {
	tests := map[string]string{
		"empty":                  "",
		"partial header":         "index,timestamp,azi",
		"header only":            "index,timestamp,azimuth,elevation,amplitude,cut_index\n",
		"header and partial row": "index,timestamp,azimuth,elevation,amplitude,cut_index\n0,2024",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scan.csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			got, err := NewCSVReader(path).Samples(context.Background())
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestCSVReader_SchemaMismatch(t *testing.T) {
	data := []byte("index,timestamp,azimuth,elevation,power,cut_index\n0,2024-05-01T12:00:00Z,1,2,3,0\n")

	_, err := DecodeCSV(data)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestCSVReader_MissingFile(t *testing.T) {
	_, err := NewCSVReader(filepath.Join(t.TempDir(), "missing.csv")).Samples(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCSVReader_MalformedRow(t *testing.T) {
	data := []byte("index,timestamp,azimuth,elevation,amplitude,cut_index\n0,yesterday,1,2,3,0\n")

	_, err := DecodeCSV(data)
	assert.Error(t, err)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
