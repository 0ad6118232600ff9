package integritykit

// Strategy identifies the validation algorithm used to produce a report
type Strategy string

const (
	// StrategyFullStream reads the entire source in bounded chunks and
	// checksums every byte. Used for correctness-critical paths.
	StrategyFullStream Strategy = "full_stream"
	// StrategyFingerprint reads only bounded head/tail windows plus the
	// total size. Approximate identity, never used for security-critical
	// verification.
	StrategyFingerprint Strategy = "fingerprint"
	// StrategyFullBufferRead reads the whole file into memory in one call.
	// Only sensible for small files.
	StrategyFullBufferRead Strategy = "full_buffer_read"
)

// UseCase declares why a caller wants a file validated. The use case
// determines the strategy; see SelectStrategy.
type UseCase string

const (
	// UseCaseUpload validates exactly what was received during an upload.
	UseCaseUpload UseCase = "upload"
	// UseCaseCacheCheck produces a fast cache-invalidation fingerprint.
	UseCaseCacheCheck UseCase = "cache_check"
	// UseCaseSecurityAudit performs a forensic full-content verification.
	UseCaseSecurityAudit UseCase = "security_audit"
	// UseCaseTelemetry samples content identity for high-volume telemetry.
	UseCaseTelemetry UseCase = "telemetry"
)

// Report is implemented by all report shapes produced by the engine.
type Report interface {
	// ReportStrategy returns the strategy that produced the report.
	ReportStrategy() Strategy
}

// ValidationReport is the result of a full-content validation pass.
// Reports are immutable value objects owned by the caller.
type ValidationReport struct {
	// FilePath is the source identifier. It may be a real path or an
	// opaque stream label.
	FilePath string `json:"file_path"`

	// CalculatedCRC is the final CRC32 value over the validated bytes.
	CalculatedCRC uint32 `json:"calculated_crc"`

	// Strategy that produced this report.
	Strategy Strategy `json:"strategy"`

	// BytesProcessed is the total number of bytes checksummed.
	BytesProcessed uint64 `json:"bytes_processed"`

	// DurationMs is the wall-clock duration of the validation pass.
	DurationMs float64 `json:"duration_ms"`

	// ThroughputMbps is always finite and >= 0. The elapsed time is
	// floored to a minimum epsilon so zero-duration inputs never divide
	// by zero.
	ThroughputMbps float64 `json:"throughput_mbps"`

	// MemoryUsageMb is the peak buffer size used during validation. For
	// the streaming and fingerprint strategies this is bounded by the
	// chunk size regardless of file size.
	MemoryUsageMb float64 `json:"memory_usage_mb"`
}

// ReportStrategy implements Report
func (r *ValidationReport) ReportStrategy() Strategy {
	return r.Strategy
}

// FingerprintReport is a fast approximate content identity computed from
// bounded head/tail windows plus the total size. It is unsuitable for
// security-critical integrity checks; a change in the middle of a large file
// does not necessarily change the fingerprint.
type FingerprintReport struct {
	// CRC32 over head bytes ++ tail bytes ++ 8-byte little-endian size.
	CRC32 uint32 `json:"crc32"`

	// Strategy is always StrategyFingerprint.
	Strategy Strategy `json:"strategy"`

	// LatencyMs is the wall-clock time the fingerprint took.
	LatencyMs float64 `json:"latency_ms"`
}

// ReportStrategy implements Report
func (r *FingerprintReport) ReportStrategy() Strategy {
	return r.Strategy
}

// Integrity describes the checksum attached to a completed upload.
type Integrity struct {
	Algorithm ChecksumAlgorithm `json:"algorithm"`
	CRC32     uint32            `json:"crc32"`
}

// UploadResult is returned for a successfully promoted upload.
type UploadResult struct {
	// Path is the final, validated destination path.
	Path string `json:"path"`

	// Integrity is the checksum of the bytes as they were received.
	Integrity Integrity `json:"integrity"`

	// ThroughputMbps of the combined write-and-checksum pass.
	ThroughputMbps float64 `json:"throughput_mbps"`
}
