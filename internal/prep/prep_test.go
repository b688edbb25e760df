package prep_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/negotiation"
	"jobmate/offer-service/internal/prep"
	"jobmate/offer-service/internal/scoring"
)

func sampleRequest() prep.Request {
	p := 30.0
	return prep.Request{
		Company:         "Acme",
		Role:            "Backend Engineer",
		Location:        "Austin, TX",
		YearsExperience: 6,
		Breakdown: compensation.Breakdown{
			BaseSalary:  150000,
			Year1Total:  171230,
			AnnualTotal: 160000,
		},
		Score:  scoring.OfferScore{PercentileVsMarket: &p},
		Focus:  negotiation.Plan(&p),
		Market: &market.SalaryData{MedianSalary: 155000, Percentile25: 130000, Percentile75: 175000, Percentile90: 195000},
	}
}

// ── Template ───────────────────────────────────────────────────────────────

func TestTemplate_FillsEverySection(t *testing.T) {
	m, err := prep.NewTemplateGenerator().Generate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(m.TalkingPoints) == 0 || len(m.Scripts) == 0 || len(m.ConfidenceExercises) == 0 {
		t.Fatalf("empty section in %+v", m)
	}
	joined := strings.Join(m.TalkingPoints, " ")
	if !strings.Contains(joined, "$155,000") || !strings.Contains(joined, "6 years") {
		t.Errorf("talking points miss market median or experience: %q", joined)
	}
	if !strings.Contains(m.Scripts[0], "Acme") || !strings.Contains(m.Scripts[0], "$175,000") {
		t.Errorf("base-salary script should name the company and the 75th percentile: %q", m.Scripts[0])
	}
}

func TestTemplate_WithoutMarketData(t *testing.T) {
	req := sampleRequest()
	req.Market = nil
	req.Score.PercentileVsMarket = nil
	req.Focus = negotiation.Plan(nil)

	m, _ := prep.NewTemplateGenerator().Generate(context.Background(), req)
	for _, tp := range m.TalkingPoints {
		if strings.Contains(tp, "market median") {
			t.Errorf("unexpected market talking point %q", tp)
		}
	}
	// 10% over base, rounded to the thousand.
	if !strings.Contains(m.Scripts[0], "$165,000") {
		t.Errorf("script target = %q, want $165,000", m.Scripts[0])
	}
}

func TestTemplate_Deterministic(t *testing.T) {
	g := prep.NewTemplateGenerator()
	a, _ := g.Generate(context.Background(), sampleRequest())
	b, _ := g.Generate(context.Background(), sampleRequest())
	if !reflect.DeepEqual(a, b) {
		t.Error("template output differs between calls")
	}
}

// ── Fallback ───────────────────────────────────────────────────────────────

type stubGenerator struct {
	name  string
	out   prep.Materials
	err   error
	calls int
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Generate(context.Context, prep.Request) (prep.Materials, error) {
	s.calls++
	return s.out, s.err
}

func TestFallback_UsesPrimaryWhenItSucceeds(t *testing.T) {
	primary := &stubGenerator{name: "a", out: prep.Materials{Scripts: []string{"x"}}}
	fallback := &stubGenerator{name: "b"}
	g := prep.NewFallbackGenerator(primary, fallback, logging.NewNop(), nil)

	m, err := g.Generate(context.Background(), sampleRequest())
	if err != nil || len(m.Scripts) != 1 {
		t.Fatalf("got %+v, %v", m, err)
	}
	if fallback.calls != 0 {
		t.Error("fallback should not run")
	}
}

func TestFallback_OnErrorOrEmpty(t *testing.T) {
	for _, primary := range []*stubGenerator{
		{name: "broken", err: errors.New("boom")},
		{name: "empty"},
	} {
		fallback := &stubGenerator{name: "b", out: prep.Materials{TalkingPoints: []string{"y"}}}
		g := prep.NewFallbackGenerator(primary, fallback, logging.NewNop(), nil)
		m, err := g.Generate(context.Background(), sampleRequest())
		if err != nil || len(m.TalkingPoints) != 1 || fallback.calls != 1 {
			t.Errorf("%s: got %+v, %v, fallback calls %d", primary.name, m, err, fallback.calls)
		}
	}
}

// ── Gemini ─────────────────────────────────────────────────────────────────

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad input"), false},
		{"canceled", context.Canceled, false},
		{"network", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"googleapi 503", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"googleapi 400", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"genai 429", genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"genai 403 wrapped", fmt.Errorf("call: %w", genai.APIError{Code: http.StatusForbidden}), false},
	}
	for _, c := range cases {
		if got := prep.IsRetryable(c.err); got != c.want {
			t.Errorf("%s: IsRetryable = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNewGeminiGenerator_DisabledWithoutKey(t *testing.T) {
	g, err := prep.NewGeminiGenerator(context.Background(), prep.GeminiConfig{}, nil, nil)
	if g != nil || err != nil {
		t.Errorf("got %v, %v; want nil, nil", g, err)
	}
}

func TestGemini_RetriesThenParses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":`+
			`"{\"talkingPoints\":[\"I bring six years.\",\" \"],\"scripts\":[\"Is there flexibility?\"],\"confidenceExercises\":[]}"`+
			`}]}}]}`)
	}))
	defer srv.Close()

	g, err := prep.NewGeminiGenerator(context.Background(), prep.GeminiConfig{
		APIKey:     "test",
		BaseURL:    srv.URL + "/",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewGeminiGenerator: %v", err)
	}

	m, err := g.Generate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if !reflect.DeepEqual(m.TalkingPoints, []string{"I bring six years."}) || len(m.Scripts) != 1 {
		t.Errorf("materials = %+v", m)
	}
}
