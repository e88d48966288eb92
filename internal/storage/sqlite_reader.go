package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// ReaderOption configures a SqliteSampleReader with specific filtering criteria.
type ReaderOption func(*SqliteSampleReader)

// WithMinCut excludes cuts with a lower index.
func WithMinCut(cut int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.minCut = &cut
	}
}

// WithMaxCut excludes cuts with a higher index.
func WithMaxCut(cut int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.maxCut = &cut
	}
}

// WithCutRange sets both minimum and maximum cut filters.
func WithCutRange(minCut, maxCut int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.minCut = &minCut
		r.maxCut = &maxCut
	}
}

// WithTimeRange excludes samples taken outside [start, end].
func WithTimeRange(start, end time.Time) ReaderOption {
	return func(r *SqliteSampleReader) {
		start, end = start.UTC(), end.UTC()
		r.startTime = &start
		r.endTime = &end
	}
}

func newSqliteSampleReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqliteSampleReader, error) {
	sr := &SqliteSampleReader{
		db:        db,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(sr)
	}
	if err := sr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

// SqliteSampleReader iterates over the samples of a session, grouped into cuts.
// A cut is complete once a sample with a different cut index is read, or the
// rows are exhausted.
type SqliteSampleReader struct {
	db *sql.DB

	sessionID int64
	session   *scan.Session

	minCut    *int       // Optional lowest cut index
	maxCut    *int       // Optional highest cut index
	startTime *time.Time // Optional start of time range filter
	endTime   *time.Time // Optional end of time range filter

	currentCut       *scan.Cut
	nextSample       scan.Sample
	nextSampleExists bool
	rows             *sql.Rows
	err              error
}

func (sr *SqliteSampleReader) init(ctx context.Context) error {
	if sr.db == nil {
		return errors.New("database connection required")
	}
	if sr.sessionID <= 0 {
		return errors.New("session ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: sr.loadSession},
		{msg: "initializing filters", fn: sr.initFilters},
		{msg: "initializing query", fn: sr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (sr *SqliteSampleReader) loadSession(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if sr.session, err = scanSession(stmt.QueryRowContext(ctx, sr.sessionID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %d: %w", sr.sessionID, ErrNoSession)
		}
		return fmt.Errorf("querying session: %w", err)
	}
	return
}

func (sr *SqliteSampleReader) initFilters(ctx context.Context) (err error) {
	if sr.minCut != nil && sr.maxCut != nil && *sr.minCut > *sr.maxCut {
		return fmt.Errorf("min cut %d is greater than max cut %d", *sr.minCut, *sr.maxCut)
	}
	if sr.startTime != nil && sr.endTime != nil && sr.startTime.After(*sr.endTime) {
		return fmt.Errorf("start time %s is after end time %s", sr.startTime, sr.endTime)
	}
	if sr.minCut != nil && sr.maxCut != nil {
		return nil
	}

	stmt, err := sr.db.PrepareContext(ctx, selectCutBoundsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var minCut, maxCut int
	if err = stmt.QueryRowContext(ctx, sr.sessionID).Scan(&minCut, &maxCut); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}

	if sr.minCut == nil {
		sr.minCut = &minCut
	}
	if sr.maxCut == nil {
		sr.maxCut = &maxCut
	}
	return nil
}

func (sr *SqliteSampleReader) initQuery(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectSamplesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if sr.rows, err = stmt.QueryContext(ctx, sr.sessionID, *sr.minCut, *sr.maxCut); err != nil {
		return err
	}
	return nil
}

func (sr *SqliteSampleReader) scanSample() (scan.Sample, error) {
	var data sampleData
	err := sr.rows.Scan(&data.Index, &data.Timestamp, &data.Azimuth, &data.Elevation, &data.Amplitude, &data.CutIndex)
	if err != nil {
		return scan.Sample{}, fmt.Errorf("scanning sample: %w", err)
	}
	return data.sample(), nil
}

func (sr *SqliteSampleReader) inTimeRange(s scan.Sample) bool {
	if sr.startTime != nil && s.Timestamp.Before(*sr.startTime) {
		return false
	}
	if sr.endTime != nil && s.Timestamp.After(*sr.endTime) {
		return false
	}
	return true
}

// Session returns metadata about the generator run this reader is accessing.
func (sr *SqliteSampleReader) Session() *scan.Session {
	return sr.session
}

// Next advances the iterator to the next cut. It returns false when the
// iteration is complete or if an error occurred, check Error to tell apart.
func (sr *SqliteSampleReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	sr.currentCut = nil
	if sr.nextSampleExists {
		sr.currentCut = &scan.Cut{Index: sr.nextSample.CutIndex, Samples: []scan.Sample{sr.nextSample}}
		sr.nextSampleExists = false
	}

	for {
		select {
		case <-ctx.Done():
			sr.err = ctx.Err()
			return false
		default:
		}

		if !sr.rows.Next() {
			return sr.currentCut != nil
		}

		var sample scan.Sample
		if sample, sr.err = sr.scanSample(); sr.err != nil {
			return false
		}
		if !sr.inTimeRange(sample) {
			continue
		}

		if sr.currentCut == nil {
			sr.currentCut = &scan.Cut{Index: sample.CutIndex}
		}

		// a new cut index completes the current cut
		if sample.CutIndex != sr.currentCut.Index {
			sr.nextSample = sample
			sr.nextSampleExists = true
			return true
		}

		sr.currentCut.Samples = append(sr.currentCut.Samples, sample)
	}
}

// Current returns the current cut. If called after Next() returns false,
// the behavior is undefined.
func (sr *SqliteSampleReader) Current() *scan.Cut {
	return sr.currentCut
}

// Error returns any error that occurred during iteration.
func (sr *SqliteSampleReader) Error() error {
	if sr.err != nil {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

func (sr *SqliteSampleReader) Close() error {
	if sr.rows != nil {
		err := sr.rows.Close()
		sr.currentCut = nil
		sr.nextSampleExists = false
		sr.rows = nil
		return err
	}
	return nil
}
