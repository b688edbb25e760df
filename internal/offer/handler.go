package offer

// HTTP handlers for the offer service.
//
// All routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	GET  /offers                    → list user's offers (?status=)
//	POST /offers                    → store a new offer
//	POST /offers/compare            → compare 2+ stored or inline offers
//	POST /offers/compare/export     → same comparison as an xlsx workbook
//	GET  /offers/{id}               → one offer
//	PUT  /offers/{id}               → update compensation sub-fields
//	POST /offers/{id}/evaluate      → value, score and persist
//	POST /offers/{id}/scenarios     → what-if scenarios
//	GET  /offers/{id}/negotiation   → focus, prep materials and readiness
//	POST /offers/{id}/status        → move through the decision state machine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jobmate/offer-service/internal/export"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/scoring"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
	log *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{svc: svc, log: log.With("component", "http")}
}

// RegisterRoutes mounts all offer-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/offers", h.handleOffers)
	mux.HandleFunc("/offers/", h.handleOfferAction)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleOffers handles GET|POST /offers
func (h *Handler) handleOffers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.listOffers(w, r, userID)
	case http.MethodPost:
		h.createOffer(w, r, userID)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleOfferAction handles /offers/compare[/export] and /offers/{id}[/{action}]
func (h *Handler) handleOfferAction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// Parse /offers/{id}/{action}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	id := parts[1]
	action := ""
	if len(parts) == 3 {
		action = parts[2]
	}

	if id == "compare" {
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch action {
		case "":
			h.compare(w, r, userID, false)
		case "export":
			h.compare(w, r, userID, true)
		default:
			jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
		}
		return
	}

	method := map[string]string{
		"":            r.Method,
		"evaluate":    http.MethodPost,
		"scenarios":   http.MethodPost,
		"negotiation": http.MethodGet,
		"status":      http.MethodPost,
	}
	want, known := method[action]
	if !known {
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
		return
	}
	if r.Method != want {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.getOffer(w, r, userID, id)
		case http.MethodPut, http.MethodPatch:
			h.updateOffer(w, r, userID, id)
		default:
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case "evaluate":
		h.evaluate(w, r, userID, id)
	case "scenarios":
		h.scenarios(w, r, userID, id)
	case "negotiation":
		h.negotiation(w, r, userID, id)
	case "status":
		h.changeStatus(w, r, userID, id)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request, userID string) {
	offers, err := h.svc.List(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		h.serviceError(w, "listOffers", err)
		return
	}
	jsonOK(w, offers)
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request, userID string) {
	var in Input
	if !decode(w, r, &in) {
		return
	}
	rec, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		h.serviceError(w, "createOffer", err)
		return
	}
	jsonStatus(w, http.StatusCreated, rec)
}

func (h *Handler) getOffer(w http.ResponseWriter, r *http.Request, userID, id string) {
	rec, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.serviceError(w, "getOffer", err)
		return
	}
	jsonOK(w, rec)
}

func (h *Handler) updateOffer(w http.ResponseWriter, r *http.Request, userID, id string) {
	var p Patch
	if !decode(w, r, &p) {
		return
	}
	rec, err := h.svc.Update(r.Context(), userID, id, p)
	if err != nil {
		h.serviceError(w, "updateOffer", err)
		return
	}
	jsonOK(w, rec)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, userID, id string) {
	rec, err := h.svc.Evaluate(r.Context(), SourceHTTP, userID, id)
	if err != nil {
		h.serviceError(w, "evaluate", err)
		return
	}
	jsonOK(w, rec)
}

func (h *Handler) scenarios(w http.ResponseWriter, r *http.Request, userID, id string) {
	var body struct {
		Scenarios []scoring.Scenario `json:"scenarios"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.Scenarios) == 0 {
		jsonError(w, "body must contain at least one scenario", http.StatusBadRequest)
		return
	}
	results, err := h.svc.RunScenarios(r.Context(), userID, id, body.Scenarios)
	if err != nil {
		h.serviceError(w, "scenarios", err)
		return
	}
	jsonOK(w, map[string]any{"offerId": id, "scenarios": results})
}

func (h *Handler) negotiation(w http.ResponseWriter, r *http.Request, userID, id string) {
	n, err := h.svc.NegotiationPrep(r.Context(), SourceHTTP, userID, id)
	if err != nil {
		h.serviceError(w, "negotiation", err)
		return
	}
	jsonOK(w, n)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, userID, id string) {
	var body struct {
		NewStatus string `json:"newStatus"`
		Note      string `json:"note"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body.NewStatus == "" {
		jsonError(w, "body must contain newStatus", http.StatusBadRequest)
		return
	}
	rec, err := h.svc.ChangeStatus(r.Context(), userID, id, body.NewStatus, body.Note)
	if err != nil {
		h.serviceError(w, "changeStatus", err)
		return
	}
	jsonOK(w, rec)
}

// compare accepts either {"offerIds": [...]} for stored offers or
// {"offers": [...]} for inline ones.
func (h *Handler) compare(w http.ResponseWriter, r *http.Request, userID string, asWorkbook bool) {
	var body struct {
		OfferIDs []string `json:"offerIds"`
		Offers   []Input  `json:"offers"`
	}
	if !decode(w, r, &body) {
		return
	}

	var (
		cmp *scoring.Comparison
		err error
	)
	switch {
	case len(body.OfferIDs) > 0 && len(body.Offers) > 0:
		jsonError(w, "send either offerIds or offers, not both", http.StatusBadRequest)
		return
	case len(body.OfferIDs) > 0:
		cmp, err = h.svc.CompareStored(r.Context(), userID, body.OfferIDs)
	default:
		cmp, err = h.svc.CompareInputs(r.Context(), body.Offers)
	}
	if err != nil {
		h.serviceError(w, "compare", err)
		return
	}

	if !asWorkbook {
		jsonOK(w, cmp)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteComparison(&buf, cmp); err != nil {
		h.log.Error("compare export failed", "err", err)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="offer-comparison.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// serviceError maps service errors onto status codes.
func (h *Handler) serviceError(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		jsonError(w, "offer not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error(op+" failed", "err", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
