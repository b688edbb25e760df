package prep

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/metrics"
)

// GeminiConfig configures the Gemini generator. An empty APIKey disables it.
type GeminiConfig struct {
	APIKey      string                 `mapstructure:"apiKey"`
	Model       string                 `mapstructure:"model"`
	BaseURL     string                 `mapstructure:"baseURL"`
	Temperature float32                `mapstructure:"temperature"`
	Timeout     time.Duration          `mapstructure:"timeout"`
	MaxRetries  int                    `mapstructure:"maxRetries"`
	RetryDelay  time.Duration          `mapstructure:"retryDelay"`
	Breaker     market.BreakerSettings `mapstructure:"breaker"`
}

const (
	defaultGeminiModel = "gemini-2.0-flash"
	maxBackoff         = 30 * time.Second
)

// GeminiGenerator asks Gemini for prep materials with a JSON response schema.
// Calls are retried on transient errors and guarded by a circuit breaker.
type GeminiGenerator struct {
	client *genai.Client
	cfg    GeminiConfig
	cb     *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
	log    *logging.Logger
}

// NewGeminiGenerator returns nil, nil when no API key is configured.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, log *logging.Logger, m *metrics.Metrics) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	if log == nil {
		log = logging.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		cfg:    cfg,
		cb:     market.NewBreaker[*genai.GenerateContentResponse]("gemini-prep", cfg.Breaker, log, m),
		log:    log.With("component", "gemini"),
	}, nil
}

func (*GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Materials, error) {
	ctx, span := otel.Tracer("offer-service.prep").Start(ctx, "gemini.negotiation_prep")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.cfg.Model),
		attribute.String("focus.primary", req.Focus.Primary),
	)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	prompt, err := userPrompt(req)
	if err != nil {
		return Materials{}, err
	}
	call := func() (*genai.GenerateContentResponse, error) {
		return g.withRetry(ctx, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), g.contentConfig())
		})
	}

	var resp *genai.GenerateContentResponse
	if g.cb != nil {
		resp, err = g.cb.Execute(call)
	} else {
		resp, err = call()
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return Materials{}, fmt.Errorf("gemini generate: %w", err)
	}

	var out Materials
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return Materials{}, fmt.Errorf("parse gemini response: %w", err)
	}
	out = out.trimmed()

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.talking_points", len(out.TalkingPoints)),
		attribute.Int("output.scripts", len(out.Scripts)),
	)
	return out, nil
}

func (g *GeminiGenerator) withRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			g.log.Warn("retrying gemini call", "attempt", attempt, "maxRetries", g.cfg.MaxRetries, "err", lastErr)
			select {
			case <-time.After(backoff(g.cfg.RetryDelay, attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// backoff doubles base per attempt with up to 10% jitter, capped at 30s.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	if j := int64(d) / 10; j > 0 {
		n, _ := rand.Int(rand.Reader, big.NewInt(j))
		d += time.Duration(n.Int64())
	}
	return min(d, maxBackoff)
}

// IsRetryable reports whether err is a network failure or an upstream status
// worth another attempt (429 and 5xx gateway errors).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}
	var aErr genai.APIError
	if errors.As(err, &aErr) {
		return retryableStatus(aErr.Code)
	}
	var aErrPtr *genai.APIError
	if errors.As(err, &aErrPtr) && aErrPtr != nil {
		return retryableStatus(aErrPtr.Code)
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ─── Prompt ──────────────────────────────────────────────────────────────────

const systemPrompt = `You are a compensation negotiation coach. Given a job offer, its
valuation and market position, write concise, specific negotiation material.
Talking points are single factual sentences the candidate can say. Scripts are
short verbatim lines for the conversation. Confidence exercises are practical
steps to take before the call. Never invent market figures that are not in the
input. Respond only with the requested JSON.`

func userPrompt(req Request) (string, error) {
	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prep request: %w", err)
	}
	return "Prepare negotiation materials for this offer:\n\n" + string(body), nil
}

func (g *GeminiGenerator) contentConfig() *genai.GenerateContentConfig {
	list := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"talkingPoints":       list,
				"scripts":             list,
				"confidenceExercises": list,
			},
			Required: []string{"talkingPoints", "scripts", "confidenceExercises"},
		},
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if g.cfg.Temperature > 0 {
		t := g.cfg.Temperature
		cfg.Temperature = &t
	}
	return cfg
}

func (m Materials) trimmed() Materials {
	return Materials{
		TalkingPoints:       nonBlank(m.TalkingPoints),
		Scripts:             nonBlank(m.Scripts),
		ConfidenceExercises: nonBlank(m.ConfidenceExercises),
	}
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
