package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fibrotrack-server/internal/assessment"
	"github.com/fibrotrack-server/internal/domain"
	"github.com/fibrotrack-server/internal/service"
)

// Client calls the model inference service over HTTP. It implements both
// domain.RiskPredictor and service.SeverityPredictor, shielded by a
// circuit breaker and a client-side rate limit.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	rateLimit  *rate.Limiter
	encoder    *LabelEncoder
	logger     *logrus.Logger
}

// NewClient creates an inference client from predictor configuration.
func NewClient(config domain.PredictorConfig, logger *logrus.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("predictor base URL is required")
	}
	encoder, err := NewLabelEncoder(config.Classes)
	if err != nil {
		return nil, fmt.Errorf("creating label encoder: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RiskModel",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		rateLimit:  rate.NewLimiter(rate.Limit(rateLimit), 1),
		encoder:    encoder,
		logger:     logger,
	}, nil
}

// predictRequest is the inference service request body.
type predictRequest struct {
	Features []float64 `json:"features"`
}

// predictResponse is the inference service response body. Probabilities
// follow the model's label order.
type predictResponse struct {
	Class         string    `json:"class"`
	Probabilities []float64 `json:"probabilities"`
}

// Predict implements domain.RiskPredictor. Every failure mode is wrapped
// in a *domain.ModelUnavailableError carrying the fallback reason.
func (c *Client) Predict(ctx context.Context, features domain.RiskFeatures) (*domain.RiskPrediction, error) {
	resp, err := c.call(ctx, "/predict/risk", features.Vector())
	if err != nil {
		return nil, err
	}

	if len(resp.Probabilities) != len(c.encoder.Classes()) {
		return nil, &domain.ModelUnavailableError{
			Reason: domain.FallbackShapeMismatch,
			Cause:  fmt.Errorf("expected %d class probabilities, got %d", len(c.encoder.Classes()), len(resp.Probabilities)),
		}
	}

	category := domain.RiskCategory(resp.Class)
	if !category.Valid() {
		// Fall back to argmax when the service omits the class label.
		best := 0
		for i, p := range resp.Probabilities {
			if p > resp.Probabilities[best] {
				best = i
			}
		}
		category, err = c.encoder.Decode(best)
		if err != nil {
			return nil, &domain.ModelUnavailableError{Reason: domain.FallbackBadResponse, Cause: err}
		}
	}

	// The reported probability is the mass on the High class, regardless
	// of the winning label.
	highIdx, ok := c.encoder.Index(string(domain.RiskHigh))
	if !ok {
		return nil, &domain.ModelUnavailableError{
			Reason: domain.FallbackShapeMismatch,
			Cause:  fmt.Errorf("model classes do not include %q", domain.RiskHigh),
		}
	}

	return &domain.RiskPrediction{
		Category:    category,
		Probability: resp.Probabilities[highIdx],
	}, nil
}

// PredictSeverity implements service.SeverityPredictor for the PHQ-9 and
// GAD-7 scale models.
func (c *Client) PredictSeverity(ctx context.Context, scale assessment.ScaleType, features service.ScaleFeatures) (*assessment.SeverityPrediction, error) {
	vector := make([]float64, 0, len(features.Answers)+2)
	for _, a := range features.Answers {
		vector = append(vector, float64(a))
	}
	vector = append(vector, features.AvgResponseTime, features.MaxResponseTime)

	resp, err := c.call(ctx, "/predict/"+string(scale), vector)
	if err != nil {
		return nil, err
	}
	if resp.Class == "" {
		return nil, &domain.ModelUnavailableError{
			Reason: domain.FallbackBadResponse,
			Cause:  fmt.Errorf("severity response missing class label"),
		}
	}

	confidence := 0.0
	for _, p := range resp.Probabilities {
		if p > confidence {
			confidence = p
		}
	}
	return &assessment.SeverityPrediction{Severity: resp.Class, Confidence: confidence}, nil
}

// call runs one inference request through the rate limiter and breaker.
func (c *Client) call(ctx context.Context, path string, vector []float64) (*predictResponse, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, &domain.ModelUnavailableError{Reason: domain.FallbackTimeout, Cause: err}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, path, vector)
	})
	if err != nil {
		return nil, c.wrapError(err)
	}
	return result.(*predictResponse), nil
}

// doRequest performs the HTTP round trip and decodes the response.
func (c *Client) doRequest(ctx context.Context, path string, vector []float64) (*predictResponse, error) {
	body, err := json.Marshal(predictRequest{Features: vector})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &decoded, nil
}

// wrapError maps transport failures onto fallback reasons.
func (c *Client) wrapError(err error) error {
	var unavailable *domain.ModelUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}

	reason := domain.FallbackBadResponse
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		reason = domain.FallbackBreakerOpen
	case errors.Is(err, context.DeadlineExceeded):
		reason = domain.FallbackTimeout
	}
	return &domain.ModelUnavailableError{Reason: reason, Cause: err}
}
