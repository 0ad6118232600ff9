// Package integritykit provides streaming content-integrity validation for
// uploaded artifacts, from kilobytes to multi-gigabyte files, with bounded
// memory regardless of input size.
//
// The engine computes an incremental CRC32 over a byte source in fixed-size
// chunks, so the result is independent of how the input was chunked, and
// selects a validation strategy per use case: full-stream verification for
// uploads and security audits, bounded head/tail fingerprinting for cache
// invalidation and telemetry, and a full buffered read for small files.
//
// # Basic Usage
//
//	engine, err := integritykit.New(&integritykit.Config{
//	    DestinationDir: "./storage",
//	    QuarantineDir:  "./storage/.quarantine",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//
//	// Full-content validation
//	report, err := engine.ValidateFile(ctx, "artifact.tgz")
//
//	// Fast approximate identity (cache keys, fast rejection)
//	fp, err := engine.FingerprintFile(ctx, "artifact.tgz")
//
//	// Strategy selected from the declared use case
//	r, err := engine.Inspect(ctx, "artifact.tgz", integritykit.UseCaseCacheCheck)
//
// # Uploads
//
// HandleUpload validates the declared filename, writes the incoming stream
// to a quarantined temporary file while checksumming the same bytes in a
// single pass, and atomically promotes the file once validated:
//
//	result, err := engine.HandleUpload(ctx, body, "my-package-1.2.3.tgz", declaredSize)
//	if err != nil {
//	    // a failed upload never leaves a file at the destination
//	}
//	fmt.Println(result.Path, result.Integrity.CRC32)
//
// # Fingerprints Are Approximate
//
// A fingerprint covers only the head window, the tail window, and the total
// size. Two files differing only in the middle can share a fingerprint.
// Fingerprints are for cache-key and fast-rejection use cases; paths that
// must verify exactly what was received always use full-stream validation
// and are never downgraded.
//
// # Error Handling
//
// The package uses sentinel errors and typed errors for programmatic
// handling:
//
//	_, err := engine.ValidateFile(ctx, "missing.tgz")
//	if integritykit.IsNotExist(err) {
//	    // source does not exist
//	}
//
//	var pathErr *integritykit.PathError
//	if errors.As(err, &pathErr) {
//	    fmt.Printf("op: %s, source: %s\n", pathErr.Op, pathErr.Path)
//	}
//
//	var nameErr *integritykit.FilenameError
//	if errors.As(err, &nameErr) {
//	    fmt.Printf("rejected by rule: %s\n", nameErr.Rule)
//	}
//
// # Configuration
//
// Engines can be configured via environment variables with the
// INTEGRITYKIT_ prefix, or programmatically via the [Config] struct:
//
//	cfg := integritykit.Config{
//	    ChunkSize:      4 << 20,
//	    DestinationDir: "/var/lib/artifacts",
//	    QuarantineDir:  "/var/lib/artifacts/.quarantine",
//	}
//	engine, err := integritykit.New(&cfg)
package integritykit
