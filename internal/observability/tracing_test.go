package observability_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"jobmate/offer-service/internal/observability"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := observability.Setup(observability.Options{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetup_ExportsHTTPSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := observability.Setup(observability.Options{
		Enabled:     true,
		ServiceName: "offer-service-test",
		Writer:      &buf,
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	h := observability.HTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), "offers")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/offers", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "offer-service-test") {
		t.Errorf("exported spans missing service name: %s", buf.String())
	}
}
