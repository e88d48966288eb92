package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roman-kulish/grid-track/internal/scan"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && cErr != sql.ErrTxDone && *err == nil {
		*err = cErr
	}
}

func toSampleData(sessionID int64, s scan.Sample) *sampleData {
	return &sampleData{
		SessionID: sessionID,
		Index:     s.Index,
		Timestamp: s.Timestamp.UTC(),
		Azimuth:   s.Azimuth,
		Elevation: s.Elevation,
		Amplitude: s.Amplitude,
		CutIndex:  s.CutIndex,
	}
}

func (d *sampleData) sample() scan.Sample {
	return scan.Sample{
		Index:     d.Index,
		Timestamp: d.Timestamp.UTC(),
		Azimuth:   d.Azimuth,
		Elevation: d.Elevation,
		Amplitude: d.Amplitude,
		CutIndex:  d.CutIndex,
	}
}

// toNullString encodes an optional session config. Strings and byte slices
// are stored verbatim, anything else as JSON.
func toNullString(config any) (sql.NullString, error) {
	var ns sql.NullString

	switch v := config.(type) {
	case nil:
		return ns, nil

	case string:
		ns.String = v

	case []byte:
		ns.String = string(v)

	default:
		p, err := json.Marshal(v)
		if err != nil {
			return ns, fmt.Errorf("marshaling config: %w", err)
		}
		ns.String = string(p)
	}

	ns.Valid = true
	return ns, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*scan.Session, error) {
	var sess scan.Session
	var config sql.NullString
	if err := row.Scan(&sess.ID, &sess.StartTime, &sess.Generator, &config); err != nil {
		return nil, err
	}
	if config.Valid {
		sess.Config = &config.String
	}
	sess.StartTime = sess.StartTime.UTC()
	return &sess, nil
}
