package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ritmolabs/ritmo/pkg/signals"
)

// Classifier is the trained probabilistic model over engineered features.
// It may be absent or unreachable; the predictor treats any error as
// "use the heuristic" and never surfaces it.
type Classifier interface {
	Predict(ctx context.Context, fv signals.FeatureVector) (Level, float64, error)
}

// HTTPClassifier calls the risk-classifier sidecar. Response shape:
//
//	{"level": "medium", "confidence": 0.82}
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClassifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClassifier) Predict(ctx context.Context, fv signals.FeatureVector) (Level, float64, error) {
	if c.baseURL == "" {
		return Low, 0, fmt.Errorf("classifier URL not configured")
	}

	payload, err := json.Marshal(fv)
	if err != nil {
		return Low, 0, fmt.Errorf("marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return Low, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Low, 0, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Low, 0, fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Low, 0, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Level      string  `json:"level"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Low, 0, fmt.Errorf("unmarshal classifier response: %w", err)
	}

	level, ok := ParseLevel(out.Level)
	if !ok {
		return Low, 0, fmt.Errorf("classifier returned unknown level %q", out.Level)
	}
	return level, out.Confidence, nil
}
