package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// SqliteSink writes samples into one session of a SqliteStore.
type SqliteSink struct {
	store     *SqliteStore
	sessionID int64
}

// NewSqliteSink creates a new session for the generator and returns a sink
// bound to it.
func NewSqliteSink(ctx context.Context, store *SqliteStore, generator string, config any) (*SqliteSink, error) {
	sessionID, err := store.CreateSession(ctx, generator, config)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &SqliteSink{store: store, sessionID: sessionID}, nil
}

func (s *SqliteSink) SessionID() int64 {
	return s.sessionID
}

func (s *SqliteSink) Append(ctx context.Context, samples []scan.Sample) error {
	return s.store.AppendSamples(ctx, s.sessionID, samples)
}

// Close releases the underlying store.
func (s *SqliteSink) Close() error {
	return s.store.Close()
}

// SqliteSource reads a session of a SqliteStore. A zero session ID follows
// the most recent session, so a dashboard picks up a restarted generator.
type SqliteSource struct {
	store     *SqliteStore
	sessionID int64
}

func NewSqliteSource(store *SqliteStore, sessionID int64) *SqliteSource {
	return &SqliteSource{store: store, sessionID: sessionID}
}

func (s *SqliteSource) Samples(ctx context.Context) ([]scan.Sample, error) {
	sessionID := s.sessionID
	if sessionID == 0 {
		session, err := s.store.LatestSession(ctx)
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				return nil, nil
			}
			return nil, fmt.Errorf("resolving latest session: %w", err)
		}
		sessionID = session.ID
	}

	samples, err := s.store.Samples(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading session %d: %w", sessionID, err)
	}
	return samples, nil
}
