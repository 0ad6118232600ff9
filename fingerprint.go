package integritykit

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"time"
)

const (
	// DefaultHeadWindow is the default number of leading bytes sampled by
	// a fingerprint.
	DefaultHeadWindow = 64 << 10 // 64 KiB

	// DefaultTailWindow is the default number of trailing bytes sampled.
	DefaultTailWindow = 64 << 10 // 64 KiB
)

// FingerprintGenerator produces a fast approximate content identity from a
// bounded head window, a bounded tail window, and the total size of a
// seekable source, without reading the middle.
//
// The fingerprint is an approximate identity for cache-key and
// fast-rejection use cases only. A change in the middle of a file larger
// than the two windows does not necessarily change the fingerprint; use
// StreamValidator for correctness-critical verification.
type FingerprintGenerator struct {
	headWindow int64
	tailWindow int64
}

// NewFingerprintGenerator creates a generator with the given window sizes.
// Non-positive sizes select the defaults.
func NewFingerprintGenerator(headWindow, tailWindow int64) *FingerprintGenerator {
	if headWindow <= 0 {
		headWindow = DefaultHeadWindow
	}
	if tailWindow <= 0 {
		tailWindow = DefaultTailWindow
	}
	return &FingerprintGenerator{headWindow: headWindow, tailWindow: tailWindow}
}

// FingerprintFile fingerprints a file-backed source. Missing files yield
// ErrNotExist and zero-length files ErrEmptyFile, wrapped in *PathError.
func (g *FingerprintGenerator) FingerprintFile(ctx context.Context, path string) (*FingerprintReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Op: "fingerprint", Path: path, Err: ErrNotExist}
		}
		return nil, &PathError{Op: "fingerprint", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &PathError{Op: "fingerprint", Path: path, Err: ErrIsDir}
	}
	if info.Size() == 0 {
		return nil, &PathError{Op: "fingerprint", Path: path, Err: ErrEmptyFile}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &PathError{Op: "fingerprint", Path: path, Err: err}
	}
	defer f.Close()

	return g.Fingerprint(ctx, path, f, info.Size())
}

// Fingerprint computes the fingerprint of a seekable source of known size.
// The checksum covers head bytes ++ tail bytes ++ 8-byte little-endian size;
// including the size means two sources with identical head and tail but
// different lengths never collide. The tail window is clamped so the two
// windows never overlap on sources smaller than head+tail.
func (g *FingerprintGenerator) Fingerprint(ctx context.Context, label string, src io.ReadSeeker, size int64) (*FingerprintReport, error) {
	if size <= 0 {
		return nil, &PathError{Op: "fingerprint", Path: label, Err: ErrEmptyFile}
	}

	start := time.Now()

	head := g.headWindow
	if head > size {
		head = size
	}
	tail := g.tailWindow
	if tail > size-head {
		tail = size - head
	}

	acc := NewAccumulator()
	window := make([]byte, head)

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, &PathError{Op: "fingerprint", Path: label, Err: err}
	}
	if _, err := io.ReadFull(src, window); err != nil {
		return nil, &PathError{Op: "fingerprint", Path: label, Err: err}
	}
	acc.Update(window)

	select {
	case <-ctx.Done():
		return nil, &PathError{Op: "fingerprint", Path: label, Err: ctx.Err()}
	default:
	}

	if tail > 0 {
		if int64(len(window)) < tail {
			window = make([]byte, tail)
		}
		window = window[:tail]
		if _, err := src.Seek(size-tail, io.SeekStart); err != nil {
			return nil, &PathError{Op: "fingerprint", Path: label, Err: err}
		}
		if _, err := io.ReadFull(src, window); err != nil {
			return nil, &PathError{Op: "fingerprint", Path: label, Err: err}
		}
		acc.Update(window)
	}

	var sizeBytes [8]byte
	binary.LittleEndian.PutUint64(sizeBytes[:], uint64(size))
	acc.Update(sizeBytes[:])

	return &FingerprintReport{
		CRC32:     acc.Sum32(),
		Strategy:  StrategyFingerprint,
		LatencyMs: durationMs(time.Since(start)),
	}, nil
}
