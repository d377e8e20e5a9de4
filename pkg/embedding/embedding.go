// Package embedding defines the Semantic Store's injected text-to-vector
// capability. The embedding model itself is an external collaborator out
// of this module's scope; pkg/semantic depends only on the Embedder
// interface.
package embedding

import (
	"context"
	"crypto/sha256"
	"math"
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// HashEmbedder is a deterministic Embedder for tests: it derives a vector
// from a SHA-256 digest of the text, so identical input always produces an
// identical vector without calling any external model.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder constructs a HashEmbedder producing vectors of dims
// dimensions (dims <= 0 falls back to 32).
func NewHashEmbedder(dims int) HashEmbedder {
	if dims <= 0 {
		dims = 32
	}
	return HashEmbedder{dims: dims}
}

// Dimensions implements Embedder.
func (h HashEmbedder) Dimensions() int { return h.dims }

// Embed implements Embedder by expanding a SHA-256 digest of text into dims
// float32 components in [-1, 1], repeating the digest as needed.
func (h HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, h.dims)
	for i := range vec {
		b := sum[i%len(sum)]
		vec[i] = (float32(b)/255.0)*2 - 1
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
