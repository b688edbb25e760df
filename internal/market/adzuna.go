package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"jobmate/offer-service/internal/logging"
)

const (
	adzunaBaseURL     = "https://api.adzuna.com"
	adzunaCountry     = "us"
	adzunaHTTPTimeout = 15 * time.Second
)

// AdzunaConfig configures the Adzuna salary histogram client.
type AdzunaConfig struct {
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", …
	BaseURL string
	Timeout time.Duration
}

// AdzunaProvider derives percentiles from the Adzuna salary histogram of the
// advertised jobs matching a role and location.
// If AppID or AppKey is empty, Lookup returns (nil, nil) and the offer is
// scored without market context.
type AdzunaProvider struct {
	cfg    AdzunaConfig
	client *http.Client
	log    *logging.Logger
}

// NewAdzunaProvider constructs a provider with a shared HTTP client.
func NewAdzunaProvider(cfg AdzunaConfig, log *logging.Logger) *AdzunaProvider {
	if cfg.Country == "" {
		cfg.Country = adzunaCountry
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = adzunaBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = adzunaHTTPTimeout
	}
	return &AdzunaProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With("component", "adzuna"),
	}
}

// histogramResponse mirrors the Adzuna histogram endpoint. Keys are the lower
// bound of each salary bucket, values the number of ads in it.
type histogramResponse struct {
	Histogram map[string]int `json:"histogram"`
}

// Lookup implements Provider. Years of experience are not a histogram filter
// and are ignored.
func (p *AdzunaProvider) Lookup(ctx context.Context, q Query) (*SalaryData, error) {
	if p.cfg.AppID == "" || p.cfg.AppKey == "" {
		p.log.Debug("ADZUNA_APP_ID / ADZUNA_APP_KEY not set, skipping market lookup")
		return nil, nil
	}
	if strings.TrimSpace(q.Role) == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("app_id", p.cfg.AppID)
	params.Set("app_key", p.cfg.AppKey)
	params.Set("what", q.Role)
	if q.Location != "" && !strings.EqualFold(q.Location, "remote") {
		params.Set("where", q.Location)
	}
	params.Set("content-type", "application/json")

	reqURL := fmt.Sprintf("%s/v1/api/jobs/%s/histogram?%s", p.cfg.BaseURL, p.cfg.Country, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna histogram: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("adzuna histogram: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload histogramResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("adzuna histogram: json unmarshal: %w", err)
	}

	data := PercentilesFromHistogram(payload.Histogram)
	if data == nil {
		return nil, nil
	}
	data.Source = "adzuna"
	data.FetchedAt = time.Now().UTC()
	return data, nil
}

type bucket struct {
	lower float64
	count int
}

// PercentilesFromHistogram interpolates the 25th, 50th, 75th and 90th
// percentiles inside salary buckets keyed by their lower bound. Each bucket
// extends to the next lower bound; the last one is as wide as its
// predecessor. It returns nil when the histogram holds no ads.
func PercentilesFromHistogram(h map[string]int) *SalaryData {
	buckets := make([]bucket, 0, len(h))
	total := 0
	for k, n := range h {
		lower, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		if err != nil || n <= 0 || lower < 0 {
			continue
		}
		buckets = append(buckets, bucket{lower: lower, count: n})
		total += n
	}
	if total == 0 {
		return nil
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].lower < buckets[j].lower })

	width := func(i int) float64 {
		switch {
		case i+1 < len(buckets):
			return buckets[i+1].lower - buckets[i].lower
		case i > 0:
			return buckets[i].lower - buckets[i-1].lower
		}
		return 0
	}

	at := func(p float64) float64 {
		target := p * float64(total)
		cum := 0.0
		for i, b := range buckets {
			next := cum + float64(b.count)
			if next >= target {
				frac := (target - cum) / float64(b.count)
				return b.lower + frac*width(i)
			}
			cum = next
		}
		last := len(buckets) - 1
		return buckets[last].lower + width(last)
	}

	return &SalaryData{
		Percentile25: at(0.25),
		MedianSalary: at(0.50),
		Percentile75: at(0.75),
		Percentile90: at(0.90),
		SampleSize:   total,
	}
}
