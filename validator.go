package integritykit

import (
	"context"
	"io"
	"os"
	"time"
)

const (
	// DefaultChunkSize is the streaming read buffer size used when no
	// explicit size is configured.
	DefaultChunkSize = 1 << 20 // 1 MiB

	// MinChunkSize and MaxChunkSize bound configured chunk sizes.
	MinChunkSize = 4 << 10 // 4 KiB
	MaxChunkSize = 8 << 20 // 8 MiB
)

// minElapsedSeconds floors the throughput denominator so zero-duration or
// zero-byte validations never divide by zero.
const minElapsedSeconds = 1e-6

// accumulatorOverheadBytes is the fixed per-operation bookkeeping reported
// on top of the chunk buffer in MemoryUsageMb.
const accumulatorOverheadBytes = 4 << 10

// StreamValidator computes a full-content CRC32 over a byte source in
// bounded chunks. Memory usage is bounded by the chunk size regardless of
// input size. A StreamValidator is stateless and safe for concurrent use;
// each validation owns its own accumulator and buffer.
type StreamValidator struct {
	chunkSize int
}

// NewStreamValidator creates a validator with the given chunk size.
// A non-positive size selects DefaultChunkSize; out-of-range sizes are
// clamped to [MinChunkSize, MaxChunkSize].
func NewStreamValidator(chunkSize int) *StreamValidator {
	return &StreamValidator{chunkSize: clampChunkSize(chunkSize)}
}

func clampChunkSize(chunkSize int) int {
	switch {
	case chunkSize <= 0:
		return DefaultChunkSize
	case chunkSize < MinChunkSize:
		return MinChunkSize
	case chunkSize > MaxChunkSize:
		return MaxChunkSize
	}
	return chunkSize
}

// ChunkSize returns the effective chunk size in bytes.
func (v *StreamValidator) ChunkSize() int {
	return v.chunkSize
}

// ValidateFile validates a file-backed source. Existence and emptiness are
// checked before the file is opened: a missing file yields ErrNotExist and a
// zero-length file yields ErrEmptyFile, both wrapped in *PathError. The file
// handle is released on every exit path.
func (v *StreamValidator) ValidateFile(ctx context.Context, path string) (*ValidationReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Op: "validate", Path: path, Err: ErrNotExist}
		}
		return nil, &PathError{Op: "validate", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &PathError{Op: "validate", Path: path, Err: ErrIsDir}
	}
	if info.Size() == 0 {
		return nil, &PathError{Op: "validate", Path: path, Err: ErrEmptyFile}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &PathError{Op: "validate", Path: path, Err: err}
	}
	defer f.Close()

	return v.validate(ctx, path, f)
}

// ValidateStream validates a sequential byte source of unknown size. The
// label identifies the source in the report and in errors. A stream that
// ends before yielding any bytes is rejected with ErrEmptyFile. The caller
// retains ownership of the reader and closes it.
func (v *StreamValidator) ValidateStream(ctx context.Context, label string, r io.Reader) (*ValidationReport, error) {
	return v.validate(ctx, label, r)
}

// validate runs the chunked read loop. Cancellation is checked between chunk
// reads, never mid-chunk, so chunk N's checksum update always completes
// before chunk N+1 is read.
func (v *StreamValidator) validate(ctx context.Context, label string, r io.Reader) (*ValidationReport, error) {
	acc := NewAccumulator()
	buf := make([]byte, v.chunkSize)

	var total uint64
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil, &PathError{Op: "validate", Path: label, Err: ctx.Err()}
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			acc.Update(buf[:n])
			total += uint64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &PathError{Op: "validate", Path: label, Err: err}
		}
	}

	elapsed := time.Since(start)

	if total == 0 {
		return nil, &PathError{Op: "validate", Path: label, Err: ErrEmptyFile}
	}

	return &ValidationReport{
		FilePath:       label,
		CalculatedCRC:  acc.Sum32(),
		Strategy:       StrategyFullStream,
		BytesProcessed: total,
		DurationMs:     durationMs(elapsed),
		ThroughputMbps: throughputMbps(total, elapsed),
		MemoryUsageMb:  boundedMemoryMb(v.chunkSize),
	}, nil
}

func durationMs(elapsed time.Duration) float64 {
	return float64(elapsed) / float64(time.Millisecond)
}

// throughputMbps converts bytes over elapsed time to MiB/s. The elapsed time
// is floored to minElapsedSeconds, so the result is always finite and >= 0.
func throughputMbps(bytes uint64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds < minElapsedSeconds {
		seconds = minElapsedSeconds
	}
	return (float64(bytes) / (1 << 20)) / seconds
}

// boundedMemoryMb reports the peak buffer footprint of a chunked pass:
// the chunk buffer plus fixed accumulator overhead, independent of the
// number of bytes processed.
func boundedMemoryMb(chunkSize int) float64 {
	return float64(chunkSize+accumulatorOverheadBytes) / (1 << 20)
}
