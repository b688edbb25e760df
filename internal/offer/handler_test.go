package offer_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobmate/offer-service/internal/export"
	"jobmate/offer-service/internal/offer"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, _, _ := newService(t, offer.Options{Market: fixedMarket(160000)})
	mux := http.NewServeMux()
	offer.NewHandler(svc, nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, userID string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createOffer(t *testing.T, srv *httptest.Server, userID string) offer.Record {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/offers", userID, sampleInput())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /offers status = %d", resp.StatusCode)
	}
	var rec offer.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec
}

// ── Auth and routing ───────────────────────────────────────────────────────

func TestHandler_MissingUserID(t *testing.T) {
	srv := newServer(t)
	for _, path := range []string{"/offers", "/offers/abc", "/offers/compare"} {
		if resp := do(t, srv, http.MethodGet, path, "", nil); resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestHandler_ForeignOfferIsNotFound(t *testing.T) {
	srv := newServer(t)
	rec := createOffer(t, srv, "owner")

	for _, c := range []struct{ method, path string }{
		{http.MethodGet, "/offers/" + rec.ID},
		{http.MethodPost, "/offers/" + rec.ID + "/evaluate"},
		{http.MethodGet, "/offers/" + rec.ID + "/negotiation"},
	} {
		if resp := do(t, srv, c.method, c.path, "intruder", nil); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", c.method, c.path, resp.StatusCode)
		}
	}
}

func TestHandler_UnknownActionAndWrongMethod(t *testing.T) {
	srv := newServer(t)
	rec := createOffer(t, srv, "u1")

	if resp := do(t, srv, http.MethodPost, "/offers/"+rec.ID+"/bogus", "u1", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown action status = %d, want 404", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodGet, "/offers/"+rec.ID+"/evaluate", "u1", nil); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET evaluate status = %d, want 405", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodDelete, "/offers", "u1", nil); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /offers status = %d, want 405", resp.StatusCode)
	}
}

// ── Offer lifecycle ────────────────────────────────────────────────────────

func TestHandler_CreateListEvaluate(t *testing.T) {
	srv := newServer(t)
	rec := createOffer(t, srv, "u1")

	resp := do(t, srv, http.MethodGet, "/offers?status=RECEIVED", "u1", nil)
	var list []offer.Record
	json.NewDecoder(resp.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Errorf("list = %+v", list)
	}

	if resp := do(t, srv, http.MethodGet, "/offers?status=nope", "u1", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad status filter = %d, want 400", resp.StatusCode)
	}

	resp = do(t, srv, http.MethodPost, "/offers/"+rec.ID+"/evaluate", "u1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("evaluate status = %d", resp.StatusCode)
	}
	var evaluated offer.Record
	json.NewDecoder(resp.Body).Decode(&evaluated)
	if evaluated.Evaluation == nil || evaluated.Evaluation.Score.Recommendation == "" {
		t.Errorf("evaluation = %+v", evaluated.Evaluation)
	}
}

func TestHandler_CreateInvalid(t *testing.T) {
	srv := newServer(t)
	in := sampleInput()
	in.Offer.BaseSalary = -10
	if resp := do(t, srv, http.MethodPost, "/offers", "u1", in); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/offers", strings.NewReader("{not json"))
	req.Header.Set("x-user-id", "u1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", resp.StatusCode)
	}
}

func TestHandler_StatusTransitions(t *testing.T) {
	srv := newServer(t)
	rec := createOffer(t, srv, "u1")
	path := "/offers/" + rec.ID + "/status"

	if resp := do(t, srv, http.MethodPost, path, "u1", map[string]string{}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing newStatus = %d, want 400", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodPost, path, "u1", map[string]string{"newStatus": "ACCEPTED"}); resp.StatusCode != http.StatusOK {
		t.Errorf("RECEIVED → ACCEPTED = %d, want 200", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodPost, path, "u1", map[string]string{"newStatus": "NEGOTIATING"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("terminal transition = %d, want 400", resp.StatusCode)
	}
}

func TestHandler_Scenarios(t *testing.T) {
	srv := newServer(t)
	rec := createOffer(t, srv, "u1")

	resp := do(t, srv, http.MethodPost, "/offers/"+rec.ID+"/scenarios", "u1", map[string]any{
		"scenarios": []map[string]any{
			{"name": "more base", "changes": map[string]any{"baseSalary": 175000}},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Scenarios []struct {
			ScenarioName      string `json:"scenarioName"`
			TotalCompensation struct {
				BaseSalary float64 `json:"baseSalary"`
			} `json:"totalCompensation"`
		} `json:"scenarios"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if len(body.Scenarios) != 1 || body.Scenarios[0].TotalCompensation.BaseSalary != 175000 {
		t.Errorf("body = %+v", body)
	}

	if resp := do(t, srv, http.MethodPost, "/offers/"+rec.ID+"/scenarios", "u1", map[string]any{}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty scenarios = %d, want 400", resp.StatusCode)
	}
}

func TestHandler_StatusConflict(t *testing.T) {
	svc := offer.NewService(conflictStore{offer.NewMemoryStore()}, offer.Options{})
	mux := http.NewServeMux()
	offer.NewHandler(svc, nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	rec := createOffer(t, srv, "u1")
	resp := do(t, srv, http.MethodPost, "/offers/"+rec.ID+"/status", "u1", map[string]string{"newStatus": "ACCEPTED"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("concurrent status change = %d, want 409", resp.StatusCode)
	}
}

// ── Compare ────────────────────────────────────────────────────────────────

func TestHandler_CompareInlineAndExport(t *testing.T) {
	srv := newServer(t)
	a, b := sampleInput(), sampleInput()
	b.Label = "Better"
	b.Offer.BaseSalary = 200000
	payload := map[string]any{"offers": []offer.Input{a, b}}

	resp := do(t, srv, http.MethodPost, "/offers/compare", "u1", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("compare status = %d", resp.StatusCode)
	}
	var cmp struct {
		WinnerIndex int `json:"winnerIndex"`
		Matrix      []struct {
			Metric string `json:"metric"`
		} `json:"comparisonMatrix"`
	}
	json.NewDecoder(resp.Body).Decode(&cmp)
	if cmp.WinnerIndex != 1 || len(cmp.Matrix) == 0 {
		t.Errorf("comparison = %+v", cmp)
	}

	resp = do(t, srv, http.MethodPost, "/offers/compare/export", "u1", payload)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != export.ContentType {
		t.Errorf("export status = %d, content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	one := map[string]any{"offers": []offer.Input{a}}
	if resp := do(t, srv, http.MethodPost, "/offers/compare", "u1", one); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("single-offer compare = %d, want 400", resp.StatusCode)
	}
}
