package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/jszwec/csvutil"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// ErrSchemaMismatch is returned when a CSV header does not match scan.Columns.
var ErrSchemaMismatch = errors.New("csv header does not match sample schema")

// CSVWriter appends samples to a CSV file. The file is truncated and the header
// written once when the writer is created.
type CSVWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	w   *csv.Writer
	enc *csvutil.Encoder

	closeOnce sync.Once
	closeErr  error
}

// NewCSVWriter creates the file at path, along with missing parent directories.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory '%s': %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating csv file: %w", err)
	}

	w := csv.NewWriter(f)
	if err = w.Write(scan.Columns()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	w.Flush()
	if err = w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}

	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = false

	return &CSVWriter{path: path, f: f, w: w, enc: enc}, nil
}

// Path returns the location of the CSV file
func (cw *CSVWriter) Path() string {
	return cw.path
}

// Append encodes samples as rows and flushes them to the file.
func (cw *CSVWriter) Append(ctx context.Context, samples []scan.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.f == nil {
		return fmt.Errorf("appending to '%s': %w", cw.path, os.ErrClosed)
	}

	records := make([]csvRecord, len(samples))
	for i, s := range samples {
		records[i] = toCSVRecord(s)
	}

	if err := cw.enc.Encode(records); err != nil {
		return fmt.Errorf("encoding samples: %w", err)
	}

	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return fmt.Errorf("flushing samples: %w", err)
	}
	return nil
}

func (cw *CSVWriter) Close() error {
	cw.closeOnce.Do(func() {
		cw.mu.Lock()
		defer cw.mu.Unlock()

		cw.w.Flush()
		cw.closeErr = errors.Join(cw.w.Error(), cw.f.Close())
		cw.f = nil
	})

	return cw.closeErr
}

// CSVReader loads the whole dataset from a CSV file on every call. It never
// holds the file open between calls so a writer may keep appending.
type CSVReader struct {
	path string
}

func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// Path returns the location of the CSV file
func (cr *CSVReader) Path() string {
	return cr.path
}

// Samples reads every complete row of the file. Bytes after the last newline
// belong to a row still being written and are ignored.
func (cr *CSVReader) Samples(ctx context.Context) ([]scan.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cr.path)
	if err != nil {
		return nil, fmt.Errorf("reading csv file: %w", err)
	}

	return DecodeCSV(completeLines(data))
}

// DecodeCSV decodes samples from CSV data with a header row.
func DecodeCSV(data []byte) ([]scan.Sample, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec, err := csvutil.NewDecoder(csv.NewReader(bytes.NewReader(data)))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if !slices.Equal(dec.Header(), scan.Columns()) {
		return nil, fmt.Errorf("%w: got %v", ErrSchemaMismatch, dec.Header())
	}

	var records []csvRecord
	if err = dec.Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding samples: %w", err)
	}

	samples := make([]scan.Sample, len(records))
	for i, r := range records {
		samples[i] = r.sample()
	}
	return samples, nil
}

func completeLines(data []byte) []byte {
	i := bytes.LastIndexByte(data, '\n')
	if i < 0 {
		return nil
	}
	return data[:i+1]
}
