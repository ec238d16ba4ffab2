package core

import "fmt"

// ProcessorConfig defines the settings shared by the render path: the sample
// rate of the audio clock and the number of frames pulled per render quantum.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns the defaults used by the audio context.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  512,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the render quantum in frames.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports a descriptive error for unusable settings.
func (c ProcessorConfig) Validate() error {
	if c.SampleRate <= 0 || !IsFinite(c.SampleRate) {
		return fmt.Errorf("sample rate must be > 0: %f", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be > 0: %d", c.BlockSize)
	}
	return nil
}
