package storage

import (
	"time"
)

type sampleData struct {
	SessionID int64
	Index     int64
	Timestamp time.Time
	Azimuth   float64
	Elevation float64
	Amplitude float64
	CutIndex  int
}
