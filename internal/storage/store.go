package storage

import (
	"context"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// Sink accepts scan samples as they are produced by a generator.
// Appends must be durable enough for a concurrent Source to observe them.
type Sink interface {
	// Append stores samples in the order given.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - samples: Samples in acquisition order
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	Append(ctx context.Context, samples []scan.Sample) error

	// Close releases all resources held by the sink.
	// It is safe to call Close multiple times.
	Close() error
}

// Source provides a full, consistent view of the dataset at the time of the call.
type Source interface {
	// Samples returns every complete sample stored so far, ordered by index.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//
	// Returns:
	//   - samples: The dataset, empty if nothing was written yet
	//   - error: If the underlying store cannot be read
	Samples(ctx context.Context) ([]scan.Sample, error)
}
