package integritykit

import (
	"fmt"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Streaming read buffer size in bytes. Clamped to
	// [MinChunkSize, MaxChunkSize] at construction.
	ChunkSize int `env:"INTEGRITYKIT_CHUNK_SIZE,default:1048576"`

	// Fingerprint window sizes in bytes
	HeadWindowBytes int64 `env:"INTEGRITYKIT_HEAD_WINDOW_BYTES,default:65536"`
	TailWindowBytes int64 `env:"INTEGRITYKIT_TAIL_WINDOW_BYTES,default:65536"`

	// Upload destination and quarantine locations
	DestinationDir string `env:"INTEGRITYKIT_DESTINATION_DIR,default:./storage"`
	QuarantineDir  string `env:"INTEGRITYKIT_QUARANTINE_DIR,default:./storage/.quarantine"`

	// Fingerprint cache settings
	CacheEnabled    bool `env:"INTEGRITYKIT_CACHE_ENABLED,default:true"`
	CacheTTLSeconds int  `env:"INTEGRITYKIT_CACHE_TTL_SECONDS,default:300"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.HeadWindowBytes < 0 || cfg.TailWindowBytes < 0 {
		return fmt.Errorf("fingerprint windows must not be negative")
	}
	if cfg.DestinationDir == "" {
		return fmt.Errorf("destination directory is required")
	}
	if cfg.QuarantineDir == "" {
		return fmt.Errorf("quarantine directory is required")
	}
	if cfg.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}
	return nil
}
