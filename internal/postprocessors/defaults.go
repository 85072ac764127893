package postprocessors

import (
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/postprocessors/chunker"
	"github.com/finsight-labs/finsight-cli/internal/postprocessors/metadata"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("metadata", buildMetadata)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Bytes per chunk (default: 1000)
//   - overlap (int): Overlapping bytes between chunks (default: 200)
//   - boundary_window (float): Fraction of the window searched backward
//     for a natural boundary (default: 0.2)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap, ok := getIntKey(cfg, "overlap"); ok {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
		if window := getFloatFromConfig(cfg, "boundary_window"); window > 0 {
			opts = append(opts, chunker.WithBoundaryWindow(window))
		}
	}

	return chunker.New(opts...)
}

// buildMetadata creates a metadata attacher. It takes no config.
func buildMetadata(_ map[string]any) (driven.PostProcessor, error) {
	return metadata.New(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	v, _ := getIntKey(cfg, key)
	return v
}

// getIntKey extracts an int and reports whether the key was present
// with a numeric value. Needed where zero is a meaningful setting.
func getIntKey(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// getFloatFromConfig safely extracts a float from generic config map.
func getFloatFromConfig(cfg map[string]any, key string) float64 {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
