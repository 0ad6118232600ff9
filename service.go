package integritykit

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

// Global instance
var (
	defaultEngine *Engine
	defaultOnce   sync.Once
	defaultErr    error
)

// Engine combines the streaming validator, fingerprint generator, strategy
// selection, and upload handling behind one entry point. Engines are safe
// for concurrent use; concurrent operations share no mutable state beyond
// the fingerprint cache, which is internally synchronized.
type Engine struct {
	validator *StreamValidator
	generator *FingerprintGenerator
	cache     *FingerprintCache
	uploads   *UploadHandler

	// smallFileThreshold is the size at or below which the approximate
	// use cases switch from fingerprinting to a full buffered read.
	smallFileThreshold int64
}

// Builder provides a way to create Engine instances with a custom
// environment variable prefix
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global Engine instance using the builder's prefix
func (b *Builder) Init() error {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return err
	}
	return Init(cfg)
}

// New creates a new Engine instance using the builder's prefix
func (b *Builder) New() (*Engine, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Init initializes the global engine instance
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultEngine, defaultErr = New(cfg)
	})

	return defaultErr
}

// Default returns the global engine instance, initializing it from the
// environment on first use
func Default() (*Engine, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return defaultEngine, nil
}

// New creates a new engine with the given config
func New(cfg *Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	generator := NewFingerprintGenerator(cfg.HeadWindowBytes, cfg.TailWindowBytes)

	var cache *FingerprintCache
	if cfg.CacheEnabled {
		cache = NewFingerprintCache(generator, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	}

	uploads, err := NewUploadHandler(cfg.DestinationDir, cfg.QuarantineDir, cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload handler: %w", err)
	}

	head := cfg.HeadWindowBytes
	if head <= 0 {
		head = DefaultHeadWindow
	}
	tail := cfg.TailWindowBytes
	if tail <= 0 {
		tail = DefaultTailWindow
	}

	return &Engine{
		validator:          NewStreamValidator(cfg.ChunkSize),
		generator:          generator,
		cache:              cache,
		uploads:            uploads,
		smallFileThreshold: head + tail,
	}, nil
}

// ValidateFile runs a full-stream validation of a file-backed source.
func (e *Engine) ValidateFile(ctx context.Context, path string) (*ValidationReport, error) {
	return e.validator.ValidateFile(ctx, path)
}

// ValidateStream runs a full-stream validation of a sequential byte source.
func (e *Engine) ValidateStream(ctx context.Context, label string, r io.Reader) (*ValidationReport, error) {
	return e.validator.ValidateStream(ctx, label, r)
}

// FingerprintFile produces the approximate identity of a file, served from
// the fingerprint cache when enabled.
func (e *Engine) FingerprintFile(ctx context.Context, path string) (*FingerprintReport, error) {
	if e.cache != nil {
		return e.cache.FingerprintFile(ctx, path)
	}
	return e.generator.FingerprintFile(ctx, path)
}

// HandleUpload runs the end-to-end upload pipeline.
func (e *Engine) HandleUpload(ctx context.Context, r io.Reader, declaredFilename string, declaredSize int64) (*UploadResult, error) {
	return e.uploads.HandleUpload(ctx, r, declaredFilename, declaredSize)
}

// CacheStats returns fingerprint cache metrics, or zero statistics when the
// cache is disabled.
func (e *Engine) CacheStats() CacheStatistics {
	if e.cache == nil {
		return CacheStatistics{}
	}
	return e.cache.Stats()
}
