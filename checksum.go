package integritykit

import (
	"fmt"
	"hash"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// ChecksumAlgorithm represents a supported checksum algorithm
type ChecksumAlgorithm string

const (
	// ChecksumCRC32 is the CRC32 checksum with the IEEE polynomial (default)
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumCRC32C is the CRC32 checksum with the Castagnoli polynomial
	ChecksumCRC32C ChecksumAlgorithm = "crc32c"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// NewHash32 creates a new hash.Hash32 for the given algorithm.
// Returns an error if the algorithm is not supported.
func NewHash32(algorithm ChecksumAlgorithm) (hash.Hash32, error) {
	switch algorithm {
	case ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case ChecksumCRC32C:
		return crc32.New(castagnoliTable), nil
	default:
		return nil, fmt.Errorf("%w: unsupported checksum algorithm: %s", ErrNotSupported, algorithm)
	}
}

// Accumulator holds the running state of an incremental CRC32 checksum.
//
// Chunk boundaries are invisible: feeding a byte sequence through any number
// of Update calls yields the same Sum32 as a single call over the whole
// sequence. Create a fresh Accumulator per validation operation and discard
// it after reading the final value; accumulators are never reused across
// files.
//
// Accumulator implements io.Writer, so it composes with io.MultiWriter and
// io.TeeReader for single-pass write-and-checksum pipelines.
type Accumulator struct {
	h hash.Hash32
	n int64
}

// NewAccumulator creates a fresh CRC32 (IEEE) accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{h: crc32.NewIEEE()}
}

// Update feeds a chunk into the running checksum.
func (a *Accumulator) Update(chunk []byte) {
	a.h.Write(chunk) //nolint:errcheck // hash.Hash.Write never returns an error
	a.n += int64(len(chunk))
}

// Write implements io.Writer.
func (a *Accumulator) Write(p []byte) (int, error) {
	a.Update(p)
	return len(p), nil
}

// Sum32 returns the checksum of all bytes fed so far.
func (a *Accumulator) Sum32() uint32 {
	return a.h.Sum32()
}

// Count returns the total number of bytes fed so far.
func (a *Accumulator) Count() int64 {
	return a.n
}

// Digest64 computes a fast 64-bit xxHash digest of the given byte slices in
// order. Used for cache keys, not for content integrity.
func Digest64(parts ...[]byte) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		d.Write(p) //nolint:errcheck // xxhash.Digest.Write never returns an error
	}
	return d.Sum64()
}
