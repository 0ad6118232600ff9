package integritykit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// uploadState tracks an upload through its lifecycle. Failure at any
// non-terminal state transitions to stateRejected.
type uploadState string

const (
	stateReceived          uploadState = "received"
	stateFilenameValidated uploadState = "filename_validated"
	stateQuarantined       uploadState = "quarantined"
	stateValidated         uploadState = "validated"
	statePromoted          uploadState = "promoted"
	stateRejected          uploadState = "rejected"
)

// UploadHandler orchestrates an end-to-end upload: the declared filename is
// validated, the incoming stream is written to a quarantined temporary file
// while being checksummed in the same pass, and the file is atomically
// promoted to its destination once validated.
//
// The quarantine directory is never publicly addressable and temp names are
// unique per operation, so concurrent uploads never contend on the same
// path. A failed upload never leaves a file at the destination.
type UploadHandler struct {
	destDir       string
	quarantineDir string
	chunkSize     int
	log           zerolog.Logger
}

// NewUploadHandler creates a handler writing promoted files under destDir
// and quarantined temporaries under quarantineDir. Both directories are
// created if missing; the quarantine directory is owner-only. A non-positive
// chunk size selects DefaultChunkSize.
func NewUploadHandler(destDir, quarantineDir string, chunkSize int) (*UploadHandler, error) {
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}
	absQuarantine, err := filepath.Abs(quarantineDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absDest, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absQuarantine, 0700); err != nil {
		return nil, err
	}

	return &UploadHandler{
		destDir:       absDest,
		quarantineDir: absQuarantine,
		chunkSize:     clampChunkSize(chunkSize),
		log:           log.With().Str("role", "upload_handler").Logger(),
	}, nil
}

// HandleUpload runs the upload state machine for a single incoming stream.
// A negative declaredSize means the size is unknown and skips the mismatch
// check. Cancellation is honored between chunk reads and cleans up the
// quarantined file exactly as an error would.
func (h *UploadHandler) HandleUpload(ctx context.Context, r io.Reader, declaredFilename string, declaredSize int64) (*UploadResult, error) {
	logger := h.log.With().Str("filename", declaredFilename).Logger()

	if err := ValidateFilename(declaredFilename); err != nil {
		h.logRejection(logger, stateReceived, err)
		return nil, err
	}
	h.logTransition(logger, stateFilenameValidated)

	finalPath := filepath.Join(h.destDir, filepath.Clean(declaredFilename))
	if !isPathUnder(h.destDir, finalPath) {
		err := &FilenameError{
			Rule:   RulePathTraversal,
			Name:   declaredFilename,
			Detail: "filename resolves outside the destination directory",
		}
		h.logRejection(logger, stateFilenameValidated, err)
		return nil, err
	}

	tempPath := filepath.Join(h.quarantineDir, uuid.NewString()+".part")
	tmp, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		h.logRejection(logger, stateFilenameValidated, err)
		return nil, &PathError{Op: "quarantine", Path: declaredFilename, Err: err}
	}

	received, crc, elapsed, err := h.receive(ctx, r, tmp, declaredFilename)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = &PathError{Op: "quarantine", Path: declaredFilename, Err: closeErr}
	}
	if err != nil {
		h.discard(logger, tempPath)
		h.logRejection(logger, stateFilenameValidated, err)
		return nil, err
	}
	h.logTransition(logger, stateQuarantined)

	if received == 0 {
		err := &PathError{Op: "quarantine", Path: declaredFilename, Err: ErrEmptyFile}
		h.discard(logger, tempPath)
		h.logRejection(logger, stateQuarantined, err)
		return nil, err
	}
	if declaredSize >= 0 && uint64(declaredSize) != received {
		err := &SizeMismatchError{Path: declaredFilename, Expected: uint64(declaredSize), Actual: received}
		h.discard(logger, tempPath)
		h.logRejection(logger, stateQuarantined, err)
		return nil, err
	}
	h.logTransition(logger, stateValidated)

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		h.discard(logger, tempPath)
		h.logRejection(logger, stateValidated, err)
		return nil, &PathError{Op: "promote", Path: declaredFilename, Err: err}
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		h.discard(logger, tempPath)
		h.logRejection(logger, stateValidated, err)
		return nil, &PathError{Op: "promote", Path: declaredFilename, Err: err}
	}

	throughput := throughputMbps(received, elapsed)
	logger.Info().
		Str("state", string(statePromoted)).
		Str("path", finalPath).
		Str("size", humanize.IBytes(received)).
		Uint32("crc32", crc).
		Float64("throughput_mbps", throughput).
		Msg("upload promoted")

	return &UploadResult{
		Path: finalPath,
		Integrity: Integrity{
			Algorithm: ChecksumCRC32,
			CRC32:     crc,
		},
		ThroughputMbps: throughput,
	}, nil
}

// receive copies the incoming stream to the quarantine file in bounded
// chunks, feeding every chunk to a fresh accumulator from the same buffer.
// This is the single pass over the upload bytes: the file is never re-read
// from disk to checksum what was just written. Cancellation is checked
// between chunk reads.
func (h *UploadHandler) receive(ctx context.Context, r io.Reader, tmp *os.File, label string) (uint64, uint32, time.Duration, error) {
	acc := NewAccumulator()
	buf := make([]byte, h.chunkSize)

	var received uint64
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return received, 0, 0, &PathError{Op: "quarantine", Path: label, Err: ctx.Err()}
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if _, writeErr := tmp.Write(buf[:n]); writeErr != nil {
				return received, 0, 0, &PathError{Op: "quarantine", Path: label, Err: writeErr}
			}
			acc.Update(buf[:n])
			received += uint64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return received, 0, 0, &PathError{Op: "quarantine", Path: label, Err: readErr}
		}
	}

	return received, acc.Sum32(), time.Since(start), nil
}

// discard removes a quarantined temp file. Cleanup is best-effort: a removal
// failure is logged, not escalated, since the primary error already explains
// the user-facing failure.
func (h *UploadHandler) discard(logger zerolog.Logger, tempPath string) {
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("temp_path", tempPath).Msg("failed to remove quarantined file")
	}
}

func (h *UploadHandler) logTransition(logger zerolog.Logger, state uploadState) {
	logger.Debug().Str("state", string(state)).Msg("upload state transition")
}

func (h *UploadHandler) logRejection(logger zerolog.Logger, from uploadState, err error) {
	logger.Debug().
		Str("state", string(stateRejected)).
		Str("from", string(from)).
		Err(err).
		Msg("upload rejected")
}

// isPathUnder reports whether path is root itself or a descendant of root.
func isPathUnder(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
