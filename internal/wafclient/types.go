package wafclient

import (
	"encoding/json"
	"strconv"
	"strings"
)

// =============================================================================
// CANONICAL RECORDS - What the rest of wafdeck consumes
// =============================================================================

// Verdict is the canonical classification result for one input.
// Optional fields from the wire are normalized to pointers exactly once here;
// downstream code never re-checks raw JSON shapes.
type Verdict struct {
	Input          string
	Flagged        bool
	Source         *string
	Probability    *float64
	MatchedPattern *string
}

// AlertLevel is the severity the detection service assigns to an alert.
type AlertLevel string

const (
	LevelLow      AlertLevel = "LOW"
	LevelMedium   AlertLevel = "MEDIUM"
	LevelHigh     AlertLevel = "HIGH"
	LevelCritical AlertLevel = "CRITICAL"
)

// Alert is one entry in the live alert feed.
// TS is a display string ("just now", "15s ago") and is never parsed.
type Alert struct {
	Level AlertLevel `json:"level" yaml:"level"`
	Text  string     `json:"text" yaml:"text"`
	TS    string     `json:"ts" yaml:"ts"`
}

// Submission is the live-alerting variant of a single classification:
// the verdict plus the alert object the service may embed in the response.
type Submission struct {
	Verdict
	Alert *Alert
}

// Metrics is the aggregate counter snapshot from GET /metrics.
type Metrics struct {
	Requests     int        `json:"requests"`
	RegexFlagged int        `json:"regex_flagged"`
	MLFlagged    int        `json:"ml_flagged"`
	NotFlagged   int        `json:"not_flagged"`
	Blocked      int        `json:"blocked"`
	Uptime       string     `json:"uptime"`
	ML           *MLMetrics `json:"ml_metrics"`
}

// MLMetrics is the model-quality block nested in the metrics payload.
type MLMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	ROCAUC    float64 `json:"roc_auc"`
	PRAUC     float64 `json:"pr_auc"`
	TN        int     `json:"tn"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	TP        int     `json:"tp"`
}

// Ingestion is the pipeline status snapshot from GET /ingestion.
type Ingestion struct {
	Batch     BatchIngestion     `json:"batch"`
	Streaming StreamingIngestion `json:"streaming"`
}

// BatchIngestion describes the batch leg of the pipeline.
type BatchIngestion struct {
	Status  string `json:"status"`
	Logs    int64  `json:"logs"`
	LastRun string `json:"last_run"`
}

// StreamingIngestion describes the streaming leg of the pipeline.
type StreamingIngestion struct {
	Status string `json:"status"`
	Rate   string `json:"rate"`
}

// ModelInfo is the deployed-model snapshot from GET /model.
type ModelInfo struct {
	Version         string   `json:"version"`
	Accuracy        *float64 `json:"accuracy"`
	LastRetrain     string   `json:"last_retrain"`
	IncrementalData string   `json:"incremental_data"`
}

// =============================================================================
// WIRE TYPES - Tolerant decoding of the service's loose payloads
// =============================================================================

// looseBool decodes the service's flagged field, which has been observed as a
// JSON bool, 0/1, a quoted "true"/"false", or absent entirely. Absence and
// null decode to false; anything else follows JS truthiness.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch s {
	case "", "null":
		*b = false
		return nil
	case "true":
		*b = true
		return nil
	case "false":
		*b = false
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*b = n != 0
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(str)); err == nil {
			*b = looseBool(v)
		} else {
			// Non-boolean string: the service means it truthy when non-empty.
			*b = strings.TrimSpace(str) != ""
		}
		return nil
	}
	// Unknown shape (object, array): treat as falsy rather than failing the
	// whole response.
	*b = false
	return nil
}

// wireResult is one classification result as it appears on the wire, shared by
// the single and batch endpoints.
type wireResult struct {
	Input          string    `json:"input"`
	URL            string    `json:"url"`
	Flagged        looseBool `json:"flagged"`
	Source         *string   `json:"source"`
	Probability    *float64  `json:"probability"`
	MatchedPattern *string   `json:"matched_pattern"`
	Alert          *Alert    `json:"alert"`
}

// verdict converts a wire result to the canonical record. The service echoes
// the input under either "input" or "url" depending on the endpoint; fallback
// fills in the request input when it echoes neither.
func (w wireResult) verdict(fallback string) Verdict {
	input := w.Input
	if input == "" {
		input = w.URL
	}
	if input == "" {
		input = fallback
	}
	return Verdict{
		Input:          input,
		Flagged:        bool(w.Flagged),
		Source:         w.Source,
		Probability:    w.Probability,
		MatchedPattern: w.MatchedPattern,
	}
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

type batchResponse struct {
	Results *[]wireResult `json:"results"`
}

type classifyRequest struct {
	Text string `json:"text"`
}
