package integritykit

import (
	"bytes"
	"errors"
	"hash/crc32"
	"io"
	"math/rand"
	"testing"
)

func testPayload(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	rng := rand.New(rand.NewSource(42))
	if _, err := rng.Read(data); err != nil {
		t.Fatalf("failed to build payload: %v", err)
	}
	return data
}

func TestAccumulatorStreamingEquivalence(t *testing.T) {
	data := testPayload(t, 1<<16)
	want := crc32.ChecksumIEEE(data)

	chunkings := []struct {
		name  string
		sizes []int
	}{
		{name: "single byte chunks", sizes: []int{1}},
		{name: "prime sized chunks", sizes: []int{7}},
		{name: "small chunks", sizes: []int{64}},
		{name: "one kilobyte chunks", sizes: []int{1024}},
		{name: "whole payload", sizes: []int{1 << 16}},
		{name: "uneven mixed chunks", sizes: []int{1, 1023, 511, 4096, 3}},
	}

	for _, tt := range chunkings {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator()
			pos := 0
			for i := 0; pos < len(data); i++ {
				end := pos + tt.sizes[i%len(tt.sizes)]
				if end > len(data) {
					end = len(data)
				}
				acc.Update(data[pos:end])
				pos = end
			}

			if got := acc.Sum32(); got != want {
				t.Errorf("Sum32() = %08x, want %08x", got, want)
			}
			if got := acc.Count(); got != int64(len(data)) {
				t.Errorf("Count() = %d, want %d", got, len(data))
			}
		})
	}
}

func TestAccumulatorImplementsWriter(t *testing.T) {
	data := testPayload(t, 4096)

	acc := NewAccumulator()
	var copied bytes.Buffer

	if _, err := io.Copy(io.MultiWriter(&copied, acc), bytes.NewReader(data)); err != nil {
		t.Fatalf("io.Copy() error = %v", err)
	}

	if got, want := acc.Sum32(), crc32.ChecksumIEEE(data); got != want {
		t.Errorf("Sum32() = %08x, want %08x", got, want)
	}
	if !bytes.Equal(copied.Bytes(), data) {
		t.Error("MultiWriter copy diverged from source data")
	}
}

func TestNewHash32(t *testing.T) {
	tests := []struct {
		name      string
		algorithm ChecksumAlgorithm
		wantErr   bool
	}{
		{name: "crc32 ieee", algorithm: ChecksumCRC32},
		{name: "crc32 castagnoli", algorithm: ChecksumCRC32C},
		{name: "unsupported", algorithm: ChecksumAlgorithm("sha256"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHash32(tt.algorithm)
			if tt.wantErr {
				if !errors.Is(err, ErrNotSupported) {
					t.Errorf("NewHash32() error = %v, want ErrNotSupported", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHash32() error = %v", err)
			}
			if h == nil {
				t.Fatal("NewHash32() returned nil hash")
			}
		})
	}
}

func TestNewHash32Algorithms(t *testing.T) {
	data := []byte("my-package-1.2.3.tgz")

	ieee, err := NewHash32(ChecksumCRC32)
	if err != nil {
		t.Fatalf("NewHash32(crc32) error = %v", err)
	}
	ieee.Write(data)
	if got, want := ieee.Sum32(), crc32.ChecksumIEEE(data); got != want {
		t.Errorf("crc32 = %08x, want %08x", got, want)
	}

	castagnoli, err := NewHash32(ChecksumCRC32C)
	if err != nil {
		t.Fatalf("NewHash32(crc32c) error = %v", err)
	}
	castagnoli.Write(data)
	want := crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli))
	if got := castagnoli.Sum32(); got != want {
		t.Errorf("crc32c = %08x, want %08x", got, want)
	}
}

func TestDigest64(t *testing.T) {
	if Digest64([]byte("a"), []byte("b")) != Digest64([]byte("ab")) {
		t.Error("Digest64 should be chunking independent")
	}
	if Digest64([]byte("ab")) == Digest64([]byte("ba")) {
		t.Error("Digest64 should depend on byte order")
	}
}
