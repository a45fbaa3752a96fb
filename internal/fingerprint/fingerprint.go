// Package fingerprint computes perceptual fingerprints of images for
// near-duplicate detection. The fingerprint is an 8x8 average hash: coarse
// enough to survive re-encoding, resizing and compression artifacts, which is
// exactly what catches "the same photo uploaded twice with a different file
// size". It cannot tell apart genuinely similar but distinct photos; that is a
// documented limitation of the approach, not a defect.
package fingerprint

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// HexLen is the canonical serialized length of a fingerprint: 64 bits as
// lowercase hex.
const HexLen = 16

// Fingerprint is a 64-bit perceptual hash. Two fingerprints are comparable
// only if produced by the same algorithm and grid size.
type Fingerprint uint64

// DecodeError reports image bytes that could not be decoded. It is permanent:
// retrying with the same bytes cannot succeed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrMalformed reports a stored fingerprint string that is not a valid
// 16-character lowercase hex value.
var ErrMalformed = errors.New("malformed fingerprint")

// Compute decodes raw image bytes (JPEG, PNG, GIF, WEBP, BMP) and returns the
// 8x8 average hash. Identical bytes always produce the identical fingerprint.
func Compute(data []byte) (Fingerprint, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, &DecodeError{Err: err}
	}

	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return 0, fmt.Errorf("computing average hash: %w", err)
	}

	return Fingerprint(hash.GetHash()), nil
}

// Parse converts a stored hex string back into a Fingerprint.
func Parse(s string) (Fingerprint, error) {
	if len(s) != HexLen {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return Fingerprint(v), nil
}

// String serializes the fingerprint as fixed-width lowercase hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Distance computes the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(other Fingerprint) int {
	xor := uint64(f) ^ uint64(other)
	distance := 0
	for xor != 0 {
		distance++
		xor &= xor - 1 // Clear lowest set bit
	}
	return distance
}

// Similar returns true if two fingerprints are within the given threshold.
func Similar(a, b Fingerprint, threshold int) bool {
	return a.Distance(b) <= threshold
}
