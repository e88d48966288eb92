package storage

import (
	"fmt"
	"time"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// isoTimeLayouts are tried in order when decoding timestamps. Files written by
// older generators carry naive ISO-8601 timestamps, which are taken as UTC.
var isoTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

type isoTime time.Time

func (t isoTime) MarshalText() ([]byte, error) {
	return []byte(time.Time(t).UTC().Format(time.RFC3339Nano)), nil
}

func (t *isoTime) UnmarshalText(text []byte) error {
	s := string(text)
	for _, layout := range isoTimeLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*t = isoTime(v.UTC())
			return nil
		}
	}
	return fmt.Errorf("parsing timestamp %q: not an ISO-8601 value", s)
}

// csvRecord is the on-disk layout of a sample. Field order defines column order.
type csvRecord struct {
	Index     int64   `csv:"index"`
	Timestamp isoTime `csv:"timestamp"`
	Azimuth   float64 `csv:"azimuth"`
	Elevation float64 `csv:"elevation"`
	Amplitude float64 `csv:"amplitude"`
	CutIndex  int     `csv:"cut_index"`
}

func toCSVRecord(s scan.Sample) csvRecord {
	return csvRecord{
		Index:     s.Index,
		Timestamp: isoTime(s.Timestamp),
		Azimuth:   s.Azimuth,
		Elevation: s.Elevation,
		Amplitude: s.Amplitude,
		CutIndex:  s.CutIndex,
	}
}

func (r csvRecord) sample() scan.Sample {
	return scan.Sample{
		Index:     r.Index,
		Timestamp: time.Time(r.Timestamp),
		Azimuth:   r.Azimuth,
		Elevation: r.Elevation,
		Amplitude: r.Amplitude,
		CutIndex:  r.CutIndex,
	}
}
