package offer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/metrics"
	"jobmate/offer-service/internal/negotiation"
	"jobmate/offer-service/internal/prep"
	"jobmate/offer-service/internal/scoring"
)

// Evaluation sources, used as a metrics label.
const (
	SourceHTTP    = "http"
	SourceGRPC    = "grpc"
	SourceMCP     = "mcp"
	SourceCLI     = "cli"
	SourceRescore = "rescore"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// Options are the optional collaborators of a Service. Zero values select
// offline defaults: no market data, template prep, no events.
type Options struct {
	Market    market.Provider
	Locations compensation.LocationProvider
	Prep      prep.Generator
	Events    Publisher
	Log       *logging.Logger
	Metrics   *metrics.Metrics
}

// Service encapsulates offer business logic. It is transport-agnostic: the
// HTTP handler, gRPC server, MCP tools and CLI all go through it.
type Service struct {
	store      Store
	market     market.Provider
	evaluator  *compensation.Evaluator
	comparator *scoring.Comparator
	prep       prep.Generator
	events     Publisher
	log        *logging.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// NewService returns a configured Service. store may be nil for stateless use
// (EvaluateInput, CompareInputs, PrepareInput).
func NewService(store Store, opts Options) *Service {
	evaluator := compensation.NewEvaluator(opts.Locations)
	s := &Service{
		store:      store,
		market:     opts.Market,
		evaluator:  evaluator,
		comparator: scoring.NewComparator(evaluator),
		prep:       opts.Prep,
		events:     opts.Events,
		log:        opts.Log,
		metrics:    opts.Metrics,
		tracer:     otel.Tracer("offer-service.offer"),
		now:        time.Now,
	}
	if s.prep == nil {
		s.prep = prep.NewTemplateGenerator()
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.log == nil {
		s.log = logging.NewNop()
	}
	return s
}

// ─── Stored offers ───────────────────────────────────────────────────────────

// List returns the user's offers, newest first. If statusFilter is non-empty,
// only offers with that status are returned.
func (s *Service) List(ctx context.Context, userID, statusFilter string) ([]Record, error) {
	var status Status
	if statusFilter != "" {
		st, err := ParseStatus(statusFilter)
		if err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
		status = st
	}
	return s.store.List(ctx, userID, status)
}

// Get returns a single offer by ID, validating ownership.
func (s *Service) Get(ctx context.Context, userID, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, userID, id)
}

// Create stores a new offer at RECEIVED status.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*Record, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Company) == "" {
		return nil, &ValidationError{Msg: "company is required"}
	}
	r := &Record{
		ID:              uuid.NewString(),
		UserID:          userID,
		Company:         strings.TrimSpace(in.Company),
		Role:            strings.TrimSpace(in.Role),
		YearsExperience: in.YearsExperience,
		Status:          StatusReceived,
		Offer:           in.Offer.Clone(),
		Factors:         in.Factors,
		Weights:         in.Weights,
		History:         []HistoryEntry{},
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Update applies a partial update to the user-editable fields. Terminal
// offers are read-only. Changing anything the score depends on drops the
// stored evaluation until the offer is evaluated again.
func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*Record, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(r.Status) {
		return nil, &ValidationError{Msg: fmt.Sprintf("offer is %s and can no longer be edited", r.Status)}
	}
	if p.apply(r) {
		r.Evaluation = nil
	}
	if err := validateInput(r.input()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Evaluate values and scores a stored offer with fresh market data, then
// persists the evaluation and publishes EVENT_OFFER_EVALUATED. source names
// the calling transport.
func (s *Service) Evaluate(ctx context.Context, source, userID, id string) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "offer.Evaluate", trace.WithAttributes(
		attribute.String("offer.id", id),
		attribute.String("source", source)))
	defer span.End()

	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, fail(span, err)
	}
	ev := s.evaluate(ctx, source, r.input())
	if err := s.store.SaveEvaluation(ctx, r.ID, &ev); err != nil {
		return nil, fail(span, fmt.Errorf("save evaluation: %w", err))
	}
	r.Evaluation = &ev
	s.publishEvaluated(ctx, r)
	return r, nil
}

// RunScenarios applies each scenario to a copy of the stored offer. The stored
// offer is not modified.
func (s *Service) RunScenarios(ctx context.Context, userID, id string, scenarios []scoring.Scenario) ([]scoring.ScenarioResult, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.ScenariosInput(ctx, r.input(), scenarios)
}

// CompareStored ranks two or more of the user's stored offers.
func (s *Service) CompareStored(ctx context.Context, userID string, ids []string) (*scoring.Comparison, error) {
	if len(ids) < 2 {
		return nil, &ValidationError{Msg: "at least two offerIds are required"}
	}
	inputs := make([]Input, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, r.input())
	}
	return s.CompareInputs(ctx, inputs)
}

// NegotiationPrep builds the prep package for a stored offer. Nothing is
// persisted.
func (s *Service) NegotiationPrep(ctx context.Context, source, userID, id string) (*Negotiation, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	n, err := s.PrepareInput(ctx, source, r.input())
	if err != nil {
		return nil, err
	}
	n.OfferID = r.ID
	return n, nil
}

// ChangeStatus moves an offer through the decision state machine and
// publishes EVENT_OFFER_STATUS_CHANGED.
//
// Returns ErrNotFound if the offer does not exist or belong to userID,
// *ValidationError if the state machine rejects the transition and
// ErrConflict if the offer changed status concurrently.
func (s *Service) ChangeStatus(ctx context.Context, userID, id, newStatusStr, note string) (*Record, error) {
	newStatus, err := ParseStatus(newStatusStr)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !IsTransitionAllowed(r.Status, newStatus) {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("transition %s → %s is not allowed", r.Status, newStatus),
		}
	}

	updated, err := s.store.UpdateStatus(ctx, userID, id, HistoryEntry{
		From: r.Status,
		To:   newStatus,
		At:   s.now().UTC(),
		Note: strings.TrimSpace(note),
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventOfferStatusChanged, map[string]string{
		"offerId": id,
		"userId":  userID,
		"from":    string(r.Status),
		"to":      string(newStatus),
	})
	return updated, nil
}

// RescoreSummary reports one rescore pass.
type RescoreSummary struct {
	Visited  int `json:"visited"`
	Rescored int `json:"rescored"`
	Failed   int `json:"failed"`
}

// RescoreOpen re-evaluates every non-terminal offer against current market
// data and persists the results. A failure on one offer is logged and does
// not stop the pass.
func (s *Service) RescoreOpen(ctx context.Context) (RescoreSummary, error) {
	ctx, span := s.tracer.Start(ctx, "offer.RescoreOpen")
	defer span.End()

	var sum RescoreSummary
	records, err := s.store.ListOpen(ctx)
	if err != nil {
		s.metrics.ObserveRescore("error")
		return sum, fail(span, fmt.Errorf("list open offers: %w", err))
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			s.metrics.ObserveRescore("canceled")
			return sum, err
		}
		r := &records[i]
		sum.Visited++
		ev := s.evaluate(ctx, SourceRescore, r.input())
		if err := s.store.SaveEvaluation(ctx, r.ID, &ev); err != nil {
			sum.Failed++
			s.log.Warn("rescore: save evaluation failed", "offerId", r.ID, "err", err)
			continue
		}
		r.Evaluation = &ev
		sum.Rescored++
		s.publishEvaluated(ctx, r)
	}

	span.SetAttributes(
		attribute.Int("rescore.visited", sum.Visited),
		attribute.Int("rescore.failed", sum.Failed),
	)
	result := "ok"
	if sum.Failed > 0 {
		result = "partial"
	}
	s.metrics.ObserveRescore(result)
	return sum, nil
}

// ─── Stateless operations ────────────────────────────────────────────────────

// EvaluateInput values and scores an offer that is not stored.
func (s *Service) EvaluateInput(ctx context.Context, source string, in Input) (*Evaluation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "offer.EvaluateInput", trace.WithAttributes(attribute.String("source", source)))
	defer span.End()
	ev := s.evaluate(ctx, source, in)
	return &ev, nil
}

// ScenariosInput runs what-if scenarios against in.Offer.
func (s *Service) ScenariosInput(_ context.Context, in Input, scenarios []scoring.Scenario) ([]scoring.ScenarioResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	for i, sc := range scenarios {
		if strings.TrimSpace(sc.Name) == "" {
			return nil, &ValidationError{Msg: fmt.Sprintf("scenario %d has no name", i+1)}
		}
	}
	return s.comparator.RunScenarios(in.Offer, scenarios), nil
}

// CompareInputs ranks two or more offers. Each offer is scored against the
// market median for its own role and location when one is available.
func (s *Service) CompareInputs(ctx context.Context, inputs []Input) (*scoring.Comparison, error) {
	if len(inputs) < 2 {
		return nil, &ValidationError{Msg: "at least two offers are required for a comparison"}
	}
	ctx, span := s.tracer.Start(ctx, "offer.Compare", trace.WithAttributes(attribute.Int("offers", len(inputs))))
	defer span.End()

	candidates := make([]scoring.Candidate, 0, len(inputs))
	for i, in := range inputs {
		if err := validateInput(in); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("offer %d: %s", i+1, err.Error())}
		}
		candidates = append(candidates, scoring.Candidate{
			Label:        in.Label,
			Offer:        in.Offer,
			Factors:      in.Factors,
			MarketMedian: s.marketData(ctx, in).Median(),
			Weights:      in.Weights,
		})
	}
	cmp := s.comparator.Compare(candidates)
	return &cmp, nil
}

// PrepareInput builds negotiation focus, prep materials and readiness for an
// offer that is not stored.
func (s *Service) PrepareInput(ctx context.Context, source string, in Input) (*Negotiation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "offer.NegotiationPrep", trace.WithAttributes(attribute.String("source", source)))
	defer span.End()

	ev := s.evaluate(ctx, source, in)
	focus := negotiation.Plan(ev.Score.PercentileVsMarket)

	materials, err := s.prep.Generate(ctx, prep.Request{
		Company:         in.Company,
		Role:            in.Role,
		Location:        in.Offer.Location,
		YearsExperience: in.YearsExperience,
		Breakdown:       ev.Valuation.Breakdown,
		Score:           ev.Score,
		Focus:           focus,
		Market:          ev.MarketData,
	})
	if err != nil {
		return nil, fail(span, fmt.Errorf("generate prep materials: %w", err))
	}

	readiness := negotiation.Assess(negotiation.PrepMaterials{
		TalkingPoints:       materials.TalkingPoints,
		Scripts:             materials.Scripts,
		ConfidenceExercises: materials.ConfidenceExercises,
		MarketData:          ev.MarketData,
	}, &ev.Score, in.YearsExperience)

	return &Negotiation{
		OfferID:    in.Offer.OfferID,
		Evaluation: ev,
		Focus:      focus,
		Materials:  materials,
		Generator:  s.prep.Name(),
		Readiness:  readiness,
	}, nil
}

// ─── Internals ───────────────────────────────────────────────────────────────

func (s *Service) evaluate(ctx context.Context, source string, in Input) Evaluation {
	md := s.marketData(ctx, in)
	v := s.evaluator.Evaluate(in.Offer)
	score := scoring.Score(v.Breakdown, in.Factors, md.Median(), in.Weights)
	s.metrics.ObserveEvaluation(source, string(score.Recommendation), score.WeightedTotalScore)
	return Evaluation{
		Valuation:   v,
		Score:       score,
		MarketData:  md,
		EvaluatedAt: s.now().UTC(),
	}
}

// marketData returns nil when there is no provider, no role to look up, or the
// provider fails. Scoring then takes the absolute path.
func (s *Service) marketData(ctx context.Context, in Input) *market.SalaryData {
	if s.market == nil || strings.TrimSpace(in.Role) == "" {
		return nil
	}
	d, err := s.market.Lookup(ctx, market.Query{
		Role:            in.Role,
		Location:        in.Offer.Location,
		YearsExperience: in.YearsExperience,
	})
	if err != nil {
		s.log.Warn("market lookup failed, scoring without market data", "role", in.Role, "err", err)
		return nil
	}
	if !d.WellFormed() {
		return nil
	}
	return d
}

func (s *Service) publishEvaluated(ctx context.Context, r *Record) {
	fields := map[string]string{
		"offerId": r.ID,
		"userId":  r.UserID,
	}
	if r.Evaluation != nil {
		fields["recommendation"] = string(r.Evaluation.Score.Recommendation)
		fields["weightedTotalScore"] = fmt.Sprintf("%.1f", r.Evaluation.Score.WeightedTotalScore)
	}
	s.publish(ctx, EventOfferEvaluated, fields)
}

// publish is non-fatal.
func (s *Service) publish(ctx context.Context, eventType string, fields map[string]string) {
	if err := s.events.Publish(ctx, eventType, fields); err != nil {
		s.metrics.ObserveDroppedEvent(eventType)
		s.log.Warn("publish "+eventType+" failed", "err", err)
	}
}

func validateInput(in Input) error {
	o := in.Offer
	switch {
	case o.BaseSalary < 0:
		return &ValidationError{Msg: "baseSalary must not be negative"}
	case o.SigningBonus < 0:
		return &ValidationError{Msg: "signingBonus must not be negative"}
	case o.PTODays < 0:
		return &ValidationError{Msg: "ptoDays must not be negative"}
	case in.YearsExperience < 0:
		return &ValidationError{Msg: "yearsExperience must not be negative"}
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when an offer is missing or does not belong to the user.
var ErrNotFound = errors.New("offer not found")

// ErrConflict is returned when an offer changed status between read and write.
var ErrConflict = errors.New("offer status changed concurrently")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
