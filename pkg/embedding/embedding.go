// Package embedding provides the text embedding capability used by the
// similarity index and the food matcher. The model is externally supplied and
// treated as a pure function: stable text in, stable vector out.
package embedding

import (
	"context"
)

// Provider maps text to fixed-length embedding vectors. Dimension is fixed
// for the lifetime of a given index; the index validates against it on load.
type Provider interface {
	// Dimension returns the length of the vectors this provider produces
	Dimension() int
	// Embed returns the embedding vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per input text, in input order.
	// Callers embedding many texts should prefer it over per-text calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
