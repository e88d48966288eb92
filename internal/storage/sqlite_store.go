package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// ErrNoSession is returned when a store holds no session to read from.
var ErrNoSession = errors.New("no session found")

// maxBatchSize keeps multi-row inserts below SQLite's bound parameter limit
const maxBatchSize = 500

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened lazily, the schema is created with the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro&_busy_timeout=5000"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession registers a new generator run. The config can be a string,
// a []byte or any JSON serializable value.
func (s *SqliteStore) CreateSession(ctx context.Context, generator string, config any) (sessionID int64, err error) {
	configData, err := toNullString(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, generator, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *scan.Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if session, err = scanSession(stmt.QueryRowContext(ctx, id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("session %d: %w", id, ErrNoSession)
			return
		}
		err = fmt.Errorf("scanning session: %w", err)
	}
	return
}

// LatestSession returns the most recently created session.
func (s *SqliteStore) LatestSession(ctx context.Context) (session *scan.Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	if session, err = scanSession(db.QueryRowContext(ctx, selectLatestSessionSQL)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNoSession
			return
		}
		err = fmt.Errorf("scanning session: %w", err)
	}
	return
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*scan.Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess *scan.Session
		if sess, err = scanSession(rows); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	err = rows.Err()
	return
}

// AppendSamples stores samples of a session within a single transaction.
func (s *SqliteStore) AppendSamples(ctx context.Context, sessionID int64, samples []scan.Sample) (err error) {
	if len(samples) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for chunk := range slices.Chunk(samples, maxBatchSize) {
		if err = insertSamples(ctx, tx, sessionID, chunk); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertSamples(ctx context.Context, tx *sql.Tx, sessionID int64, samples []scan.Sample) error {
	values := make([]interface{}, 0, len(samples)*7)

	valuesPlaceholder := "(?, ?, ?, ?, ?, ?, ?)"

	var sb strings.Builder

	sb.WriteString(insertSampleSQL)

	for i, sample := range samples {
		data := toSampleData(sessionID, sample)
		values = append(values,
			data.SessionID,
			data.Index,
			data.Timestamp,
			data.Azimuth,
			data.Elevation,
			data.Amplitude,
			data.CutIndex,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting samples: %w", err)
	}
	return nil
}

// ReadSamples creates a reader that iterates over the session one cut at a time.
// The returned reader must be closed after use.
func (s *SqliteStore) ReadSamples(ctx context.Context, sessionID int64, opts ...ReaderOption) (*SqliteSampleReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteSampleReader(ctx, db, sessionID, opts...)
}

// Samples returns every sample of the session ordered by index.
func (s *SqliteStore) Samples(ctx context.Context, sessionID int64) (samples []scan.Sample, err error) {
	reader, err := s.ReadSamples(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer closeWithError(reader, &err)

	for reader.Next(ctx) {
		samples = append(samples, reader.Current().Samples...)
	}
	if err = reader.Error(); err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
