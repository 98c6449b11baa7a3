package imagehash

import (
	"context"
	"log/slog"
)

// Neutral values reported when either image cannot be hashed.
const (
	FallbackSimilarity = 50
	FallbackDistance   = 32
)

// Comparison is the outcome of comparing a before/after pair.
type Comparison struct {
	Similarity int    `json:"similarity"`
	Distance   int    `json:"hash_distance"`
	BeforeHash string `json:"before_hash,omitempty"`
	AfterHash  string `json:"after_hash,omitempty"`
	Fallback   bool   `json:"fallback"`
}

// Fallback is the neutral comparison used when hashing is impossible.
func Fallback() Comparison {
	return Comparison{Similarity: FallbackSimilarity, Distance: FallbackDistance, Fallback: true}
}

// Comparator hashes already-downloaded image bytes. It performs no I/O.
type Comparator struct {
	logger *slog.Logger
}

func NewComparator(logger *slog.Logger) *Comparator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{logger: logger}
}

// Compare hashes both images. Decode failures yield the neutral fallback.
func (c *Comparator) Compare(ctx context.Context, before, after []byte) Comparison {
	bh, err := HashBytes(before)
	if err != nil {
		c.logger.WarnContext(ctx, "before image could not be hashed", "error", err)
		return Fallback()
	}
	ah, err := HashBytes(after)
	if err != nil {
		c.logger.WarnContext(ctx, "after image could not be hashed", "error", err)
		return Fallback()
	}
	dist := Hamming(bh.String(), ah.String())
	return Comparison{
		Similarity: Similarity(dist),
		Distance:   dist,
		BeforeHash: bh.String(),
		AfterHash:  ah.String(),
	}
}
