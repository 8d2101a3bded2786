package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"pharmadoc/config"
	"pharmadoc/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// SchemaInfo stores schema version and configuration hash.
type SchemaInfo struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`
}

// ComputeConfigHash computes a hash of index-relevant configuration.
// Changes to this hash indicate the index should be rebuilt.
func ComputeConfigHash(cfg *config.Config) string {
	metric := cfg.Retrieve.Metric
	if metric == "" {
		metric = string(domain.MetricCosine)
	}

	relevant := struct {
		ChunkSize     int    `json:"chunk_size"`
		ChunkOverlap  int    `json:"chunk_overlap"`
		FormFeedPages bool   `json:"formfeed_pages"`
		EmbProvider   string `json:"emb_provider"`
		EmbModel      string `json:"emb_model"`
		EmbDimension  int    `json:"emb_dimension"`
		Metric        string `json:"metric"`
	}{
		ChunkSize:     cfg.Chunk.Size,
		ChunkOverlap:  cfg.Chunk.Overlap,
		FormFeedPages: cfg.Loader.FormFeedPages,
		EmbProvider:   cfg.Embedding.Provider,
		EmbModel:      cfg.Embedding.Model,
		EmbDimension:  cfg.Embedding.Dimension,
		Metric:        metric,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// checkSchema rejects snapshots written with a different storage layout.
func checkSchema(info SchemaInfo) error {
	switch {
	case info.Version > CurrentSchemaVersion:
		return fmt.Errorf("%w: created by newer version (v%d > v%d)", domain.ErrStaleIndex, info.Version, CurrentSchemaVersion)
	case info.Version < CurrentSchemaVersion:
		return fmt.Errorf("%w: schema v%d needs rebuild for v%d", domain.ErrStaleIndex, info.Version, CurrentSchemaVersion)
	}
	return nil
}
