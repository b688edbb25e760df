// Package grpcserver implements the OfferService gRPC server.
//
// It delegates all business logic to offer.Service and handles only the gRPC
// transport concerns: metadata extraction, error mapping and the choice
// between stored and inline offers. Messages travel as JSON (see CodecName).
package grpcserver

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/offer"
	"jobmate/offer-service/internal/scoring"
)

// Server implements OfferServiceServer.
type Server struct {
	svc *offer.Service
}

// NewServer constructs a gRPC Server backed by the given offer.Service.
func NewServer(svc *offer.Service) *Server {
	return &Server{svc: svc}
}

// New builds a grpc.Server with OfferService and the standard health service
// registered, plus logging and panic recovery on every unary call.
func New(svc *offer.Service, log *logging.Logger) *grpc.Server {
	if log == nil {
		log = logging.NewNop()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		recoverInterceptor(log),
		logInterceptor(log),
	))
	RegisterOfferServiceServer(gs, NewServer(svc))

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// EvaluateOffer scores a stored offer (persisting the result) or an inline one.
func (s *Server) EvaluateOffer(ctx context.Context, req *EvaluateOfferRequest) (*offer.Evaluation, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := oneOf(req.OfferID, req.Offer); err != nil {
		return nil, err
	}

	if req.OfferID != "" {
		rec, err := s.svc.Evaluate(ctx, offer.SourceGRPC, userID, req.OfferID)
		if err != nil {
			return nil, toGRPCError(err)
		}
		return rec.Evaluation, nil
	}
	ev, err := s.svc.EvaluateInput(ctx, offer.SourceGRPC, *req.Offer)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return ev, nil
}

// CompareOffers ranks two or more stored or inline offers.
func (s *Server) CompareOffers(ctx context.Context, req *CompareOffersRequest) (*scoring.Comparison, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var cmp *scoring.Comparison
	switch {
	case len(req.OfferIDs) > 0 && len(req.Offers) > 0:
		return nil, status.Error(codes.InvalidArgument, "send either offerIds or offers, not both")
	case len(req.OfferIDs) > 0:
		cmp, err = s.svc.CompareStored(ctx, userID, req.OfferIDs)
	default:
		cmp, err = s.svc.CompareInputs(ctx, req.Offers)
	}
	if err != nil {
		return nil, toGRPCError(err)
	}
	return cmp, nil
}

// RunScenarios applies what-if changes to a stored or inline offer.
func (s *Server) RunScenarios(ctx context.Context, req *RunScenariosRequest) (*RunScenariosResponse, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := oneOf(req.OfferID, req.Offer); err != nil {
		return nil, err
	}
	if len(req.Scenarios) == 0 {
		return nil, status.Error(codes.InvalidArgument, "at least one scenario is required")
	}

	var results []scoring.ScenarioResult
	if req.OfferID != "" {
		results, err = s.svc.RunScenarios(ctx, userID, req.OfferID, req.Scenarios)
	} else {
		results, err = s.svc.ScenariosInput(ctx, *req.Offer, req.Scenarios)
	}
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &RunScenariosResponse{Scenarios: results}, nil
}

// NegotiationPrep builds focus, materials and readiness for an offer.
func (s *Server) NegotiationPrep(ctx context.Context, req *NegotiationPrepRequest) (*offer.Negotiation, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := oneOf(req.OfferID, req.Offer); err != nil {
		return nil, err
	}

	var n *offer.Negotiation
	if req.OfferID != "" {
		n, err = s.svc.NegotiationPrep(ctx, offer.SourceGRPC, userID, req.OfferID)
	} else {
		n, err = s.svc.PrepareInput(ctx, offer.SourceGRPC, *req.Offer)
	}
	if err != nil {
		return nil, toGRPCError(err)
	}
	return n, nil
}

// ChangeStatus moves a stored offer through the decision state machine.
func (s *Server) ChangeStatus(ctx context.Context, req *ChangeStatusRequest) (*offer.Record, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if req.OfferID == "" || req.NewStatus == "" {
		return nil, status.Error(codes.InvalidArgument, "offerId and newStatus are required")
	}

	rec, err := s.svc.ChangeStatus(ctx, userID, req.OfferID, req.NewStatus, req.Note)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return rec, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// userIDFromCtx extracts the x-user-id value forwarded by the Gateway
// via gRPC metadata.
func userIDFromCtx(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("x-user-id")
	if len(vals) == 0 || vals[0] == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id metadata")
	}
	return vals[0], nil
}

func oneOf(id string, in *offer.Input) error {
	switch {
	case id != "" && in != nil:
		return status.Error(codes.InvalidArgument, "send either offerId or offer, not both")
	case id == "" && in == nil:
		return status.Error(codes.InvalidArgument, "offerId or offer is required")
	}
	return nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	if errors.Is(err, offer.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, offer.ErrConflict) {
		return status.Error(codes.Aborted, err.Error())
	}
	var ve *offer.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	return status.Error(codes.Internal, "internal server error")
}

// ─── Interceptors ────────────────────────────────────────────────────────────

func logInterceptor(log *logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if code == codes.Internal || code == codes.Unknown {
			log.Error("grpc call failed", "method", info.FullMethod, "code", code.String(), "err", err)
		} else {
			log.Debug("grpc call", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
		}
		return resp, err
	}
}

func recoverInterceptor(log *logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panic", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
