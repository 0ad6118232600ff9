package integritykit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestUploadHandler(t *testing.T) (*UploadHandler, string, string) {
	t.Helper()
	dir := t.TempDir()
	dest := filepath.Join(dir, "storage")
	quarantine := filepath.Join(dir, "quarantine")

	h, err := NewUploadHandler(dest, quarantine, 64<<10)
	if err != nil {
		t.Fatalf("NewUploadHandler() error = %v", err)
	}
	return h, dest, quarantine
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	return entries
}

func TestHandleUploadRoundTrip(t *testing.T) {
	h, _, quarantine := newTestUploadHandler(t)
	data := testPayload(t, 300*1024)

	result, err := h.HandleUpload(context.Background(), bytes.NewReader(data), "my-package-1.2.3.tgz", int64(len(data)))
	if err != nil {
		t.Fatalf("HandleUpload() error = %v", err)
	}

	if result.Integrity.Algorithm != ChecksumCRC32 {
		t.Errorf("Integrity.Algorithm = %s, want %s", result.Integrity.Algorithm, ChecksumCRC32)
	}

	// Re-read the promoted file out of band and recompute its checksum.
	promoted, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("failed to read promoted file: %v", err)
	}
	if !bytes.Equal(promoted, data) {
		t.Error("promoted file content diverged from uploaded bytes")
	}
	if got := crc32.ChecksumIEEE(promoted); got != result.Integrity.CRC32 {
		t.Errorf("out-of-band CRC = %08x, want %08x", got, result.Integrity.CRC32)
	}

	if result.ThroughputMbps < 0 {
		t.Errorf("ThroughputMbps = %v, want >= 0", result.ThroughputMbps)
	}
	if entries := dirEntries(t, quarantine); len(entries) != 0 {
		t.Errorf("quarantine dir has %d leftover entries, want 0", len(entries))
	}
}

func TestHandleUploadUnknownSize(t *testing.T) {
	h, _, _ := newTestUploadHandler(t)
	data := testPayload(t, 1024)

	result, err := h.HandleUpload(context.Background(), bytes.NewReader(data), "unknown-size.bin", -1)
	if err != nil {
		t.Fatalf("HandleUpload() with unknown size error = %v", err)
	}
	if got := crc32.ChecksumIEEE(data); got != result.Integrity.CRC32 {
		t.Errorf("CRC = %08x, want %08x", result.Integrity.CRC32, got)
	}
}

func TestHandleUploadSizeMismatch(t *testing.T) {
	h, dest, quarantine := newTestUploadHandler(t)
	data := testPayload(t, 1024)

	_, err := h.HandleUpload(context.Background(), bytes.NewReader(data), "truncated.bin", int64(len(data))+100)
	if !IsSizeMismatch(err) {
		t.Fatalf("HandleUpload() error = %v, want size mismatch", err)
	}

	var mismatch *SizeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error type = %T, want *SizeMismatchError", err)
	}
	if mismatch.Expected != uint64(len(data))+100 || mismatch.Actual != uint64(len(data)) {
		t.Errorf("mismatch = %d/%d, want %d/%d", mismatch.Expected, mismatch.Actual, len(data)+100, len(data))
	}

	// Atomic rejection: nothing at the destination, nothing in quarantine.
	if _, statErr := os.Stat(filepath.Join(dest, "truncated.bin")); !os.IsNotExist(statErr) {
		t.Error("rejected upload left a file at the destination")
	}
	if entries := dirEntries(t, quarantine); len(entries) != 0 {
		t.Errorf("quarantine dir has %d leftover entries, want 0", len(entries))
	}
}

func TestHandleUploadRejectsFilenames(t *testing.T) {
	h, dest, _ := newTestUploadHandler(t)
	data := []byte("payload")

	names := []string{
		"../../../etc/passwd",
		"file%00.txt",
		"CON.zip",
		"file|pipe.txt",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := h.HandleUpload(context.Background(), bytes.NewReader(data), name, int64(len(data)))
			if err == nil {
				t.Fatal("HandleUpload() accepted a malicious filename")
			}
			var nameErr *FilenameError
			if !errors.As(err, &nameErr) {
				t.Fatalf("error type = %T, want *FilenameError", err)
			}
		})
	}

	if entries := dirEntries(t, dest); len(entries) != 0 {
		t.Errorf("destination has %d entries after rejected uploads, want 0", len(entries))
	}
}

func TestHandleUploadEmptyStream(t *testing.T) {
	h, _, quarantine := newTestUploadHandler(t)

	_, err := h.HandleUpload(context.Background(), bytes.NewReader(nil), "empty.bin", -1)
	if !IsEmptyFile(err) {
		t.Fatalf("HandleUpload() error = %v, want ErrEmptyFile", err)
	}
	if entries := dirEntries(t, quarantine); len(entries) != 0 {
		t.Errorf("quarantine dir has %d leftover entries, want 0", len(entries))
	}
}

func TestHandleUploadCancellationCleansUp(t *testing.T) {
	h, dest, quarantine := newTestUploadHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.HandleUpload(ctx, bytes.NewReader(testPayload(t, 1024)), "cancelled.bin", -1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("HandleUpload() error = %v, want context.Canceled", err)
	}

	if entries := dirEntries(t, quarantine); len(entries) != 0 {
		t.Errorf("quarantine dir has %d leftover entries, want 0", len(entries))
	}
	if entries := dirEntries(t, dest); len(entries) != 0 {
		t.Errorf("destination has %d entries, want 0", len(entries))
	}
}

func TestHandleUploadMidStreamReadFailure(t *testing.T) {
	h, dest, quarantine := newTestUploadHandler(t)
	cause := errors.New("connection reset")

	_, err := h.HandleUpload(context.Background(), &failingReader{
		data: []byte("partial upload"),
		err:  cause,
	}, "aborted.bin", -1)
	if !errors.Is(err, cause) {
		t.Fatalf("HandleUpload() error = %v, want wrapped %v", err, cause)
	}

	if entries := dirEntries(t, quarantine); len(entries) != 0 {
		t.Errorf("quarantine dir has %d leftover entries, want 0", len(entries))
	}
	if entries := dirEntries(t, dest); len(entries) != 0 {
		t.Errorf("destination has %d entries, want 0", len(entries))
	}
}

func TestHandleUploadConcurrent(t *testing.T) {
	h, _, quarantine := newTestUploadHandler(t)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*UploadResult, workers)
	uploadErrs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := bytes.Repeat([]byte{byte(i + 1)}, 64*1024)
			results[i], uploadErrs[i] = h.HandleUpload(
				context.Background(),
				bytes.NewReader(data),
				fmt.Sprintf("artifact-%d.bin", i),
				int64(len(data)),
			)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if uploadErrs[i] != nil {
			t.Fatalf("worker %d: HandleUpload() error = %v", i, uploadErrs[i])
		}
		promoted, err := os.ReadFile(results[i].Path)
		if err != nil {
			t.Fatalf("worker %d: failed to read promoted file: %v", i, err)
		}
		want := bytes.Repeat([]byte{byte(i + 1)}, 64*1024)
		if !bytes.Equal(promoted, want) {
			t.Errorf("worker %d: promoted content diverged", i)
		}
	}

	if entries := dirEntries(t, quarantine); len(entries) != 0 {
		t.Errorf("quarantine dir has %d leftover entries, want 0", len(entries))
	}
}
