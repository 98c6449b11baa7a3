// Package imagehash computes 64-bit difference hashes (dHash) and compares
// before/after images by Hamming distance.
package imagehash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/bits"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// Bits is the hash width; also the distance reported for incomparable hashes.
	Bits = 64

	hashWidth  = 9
	hashHeight = 8
)

// Hash is a 64-bit dHash, row-major, most significant bit first.
type Hash uint64

// String renders the hash as 16 lowercase hex characters.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// DHash downsamples img to 9x8 grayscale and sets a bit for every pixel that is
// darker than its right-hand neighbour.
func DHash(img image.Image) Hash {
	small := imaging.Grayscale(imaging.Resize(img, hashWidth, hashHeight, imaging.Lanczos))

	var h Hash
	for y := 0; y < hashHeight; y++ {
		row := small.Pix[y*small.Stride:]
		for x := 0; x < hashWidth-1; x++ {
			h <<= 1
			if row[x*4] < row[(x+1)*4] {
				h |= 1
			}
		}
	}
	return h
}

// HashBytes decodes an encoded image (jpeg, png, gif or webp) and hashes it.
func HashBytes(buf []byte) (Hash, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	return DHash(img), nil
}

// Hamming counts differing bits between two hex-encoded hashes. Hashes of
// different length or containing non-hex characters are maximally distant.
func Hamming(a, b string) int {
	if len(a) != len(b) || len(a) == 0 {
		return Bits
	}
	dist := 0
	for i := 0; i < len(a); i++ {
		x, ok := nibble(a[i])
		if !ok {
			return Bits
		}
		y, ok := nibble(b[i])
		if !ok {
			return Bits
		}
		dist += bits.OnesCount8(x ^ y)
	}
	return dist
}

// Similarity converts a Hamming distance into a 0-100 percentage.
func Similarity(distance int) int {
	s := 100 - float64(distance)/Bits*100
	return int(math.Round(math.Max(0, s)))
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
