package tantivy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options controls the tunables named in the specification: block size,
// the free-block threshold that trips IsBufferFull, the arena size, and
// the doc-store chunk size. Zero-value Options is invalid; use DefaultOptions and override
// individual fields, or load a YAML file with the same shape via Load.
type Options struct {
	// BlockSize is the fixed byte capacity of each arena block.
	BlockSize int `yaml:"block_size"`

	// LowWatermarkBlocks is the free-block count below which
	// SegmentWriter.IsBufferFull reports true.
	LowWatermarkBlocks int `yaml:"low_watermark_blocks"`

	// ArenaBlocks is the total number of blocks the BlockStore
	// pre-allocates.
	ArenaBlocks int `yaml:"arena_blocks"`

	// DocStoreChunkDocs is the number of documents grouped into one
	// chunk by the store writer.
	DocStoreChunkDocs int `yaml:"doc_store_chunk_docs"`
}

// DefaultOptions returns the constants named in the specification: a
// 1024-byte block, a 100,000-block low watermark.
func DefaultOptions() Options {
	return Options{
		BlockSize:          1024,
		LowWatermarkBlocks: 100_000,
		ArenaBlocks:        1_000_000,
		DocStoreChunkDocs:  128,
	}
}

// Load reads a YAML file at path and overlays it onto DefaultOptions.
func Load(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("tantivy: reading options file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("tantivy: parsing options file %s: %w", path, err)
	}

	if err := opts.validate(); err != nil {
		return Options{}, fmt.Errorf("tantivy: %s: %w", path, err)
	}

	return opts, nil
}

func (o Options) validate() error {
	if o.BlockSize <= 0 {
		return fmt.Errorf("tantivy: block_size must be positive, got %d", o.BlockSize)
	}
	if o.LowWatermarkBlocks < 0 {
		return fmt.Errorf("tantivy: low_watermark_blocks must not be negative, got %d", o.LowWatermarkBlocks)
	}
	if o.ArenaBlocks <= 0 {
		return fmt.Errorf("tantivy: arena_blocks must be positive, got %d", o.ArenaBlocks)
	}
	return nil
}
