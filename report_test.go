package integritykit

import (
	"encoding/json"
	"testing"
)

func TestReportsSerializeToFlatJSON(t *testing.T) {
	tests := []struct {
		name     string
		report   interface{}
		wantKeys []string
	}{
		{
			name: "validation report",
			report: &ValidationReport{
				FilePath:       "artifact.tgz",
				CalculatedCRC:  0xDEADBEEF,
				Strategy:       StrategyFullStream,
				BytesProcessed: 1024,
			},
			wantKeys: []string{
				"file_path", "calculated_crc", "strategy", "bytes_processed",
				"duration_ms", "throughput_mbps", "memory_usage_mb",
			},
		},
		{
			name: "fingerprint report",
			report: &FingerprintReport{
				CRC32:    0xCAFEBABE,
				Strategy: StrategyFingerprint,
			},
			wantKeys: []string{"crc32", "strategy", "latency_ms"},
		},
		{
			name: "upload result",
			report: &UploadResult{
				Path:      "/storage/artifact.tgz",
				Integrity: Integrity{Algorithm: ChecksumCRC32, CRC32: 1},
			},
			wantKeys: []string{"path", "integrity", "throughput_mbps"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.report)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}

			var decoded map[string]interface{}
			if err := json.Unmarshal(raw, &decoded); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			for _, key := range tt.wantKeys {
				if _, ok := decoded[key]; !ok {
					t.Errorf("serialized report missing key %q", key)
				}
			}
		})
	}
}

func TestReportStrategy(t *testing.T) {
	var reports = []Report{
		&ValidationReport{Strategy: StrategyFullStream},
		&ValidationReport{Strategy: StrategyFullBufferRead},
		&FingerprintReport{Strategy: StrategyFingerprint},
	}
	want := []Strategy{StrategyFullStream, StrategyFullBufferRead, StrategyFingerprint}

	for i, report := range reports {
		if report.ReportStrategy() != want[i] {
			t.Errorf("ReportStrategy() = %s, want %s", report.ReportStrategy(), want[i])
		}
	}
}
