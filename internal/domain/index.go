package domain

import "time"

// Metric selects how query and segment vectors are compared.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// ParseMetric accepts "cosine" (also the empty string) and "l2".
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricCosine:
		return MetricCosine, nil
	case MetricL2:
		return MetricL2, nil
	}
	return "", InvalidArgument("unknown metric %q", s)
}

// IndexEntry pairs a segment with its embedding.
type IndexEntry struct {
	Vector  []float32
	Segment Segment
}

// IndexMeta describes a built index.
type IndexMeta struct {
	BuildID        string    `json:"build_id"`
	Dimension      int       `json:"dimension"`
	Metric         Metric    `json:"metric"`
	EmbeddingModel string    `json:"embedding_model"`
	ConfigHash     string    `json:"config_hash"`
	SegmentCount   int       `json:"segment_count"`
	DocumentCount  int       `json:"document_count"`
	CreatedAt      time.Time `json:"created_at"`
}
