package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"jobmate/offer-service/internal/offer"
	"jobmate/offer-service/internal/scoring"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "jobmate.offer.v1.OfferService"

// ─── Messages ────────────────────────────────────────────────────────────────

// Requests name either a stored offer (OfferID) or carry one inline (Offer).

type EvaluateOfferRequest struct {
	OfferID string       `json:"offerId,omitempty"`
	Offer   *offer.Input `json:"offer,omitempty"`
}

type CompareOffersRequest struct {
	OfferIDs []string      `json:"offerIds,omitempty"`
	Offers   []offer.Input `json:"offers,omitempty"`
}

type RunScenariosRequest struct {
	OfferID   string             `json:"offerId,omitempty"`
	Offer     *offer.Input       `json:"offer,omitempty"`
	Scenarios []scoring.Scenario `json:"scenarios"`
}

type RunScenariosResponse struct {
	Scenarios []scoring.ScenarioResult `json:"scenarios"`
}

type NegotiationPrepRequest struct {
	OfferID string       `json:"offerId,omitempty"`
	Offer   *offer.Input `json:"offer,omitempty"`
}

type ChangeStatusRequest struct {
	OfferID   string `json:"offerId"`
	NewStatus string `json:"newStatus"`
	Note      string `json:"note,omitempty"`
}

// OfferServiceServer is the server API for OfferService.
type OfferServiceServer interface {
	EvaluateOffer(context.Context, *EvaluateOfferRequest) (*offer.Evaluation, error)
	CompareOffers(context.Context, *CompareOffersRequest) (*scoring.Comparison, error)
	RunScenarios(context.Context, *RunScenariosRequest) (*RunScenariosResponse, error)
	NegotiationPrep(context.Context, *NegotiationPrepRequest) (*offer.Negotiation, error)
	ChangeStatus(context.Context, *ChangeStatusRequest) (*offer.Record, error)
}

// ─── Descriptor ──────────────────────────────────────────────────────────────

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OfferServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("EvaluateOffer", OfferServiceServer.EvaluateOffer),
		unary("CompareOffers", OfferServiceServer.CompareOffers),
		unary("RunScenarios", OfferServiceServer.RunScenarios),
		unary("NegotiationPrep", OfferServiceServer.NegotiationPrep),
		unary("ChangeStatus", OfferServiceServer.ChangeStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobmate/offer/v1/offer.proto",
}

// RegisterOfferServiceServer registers srv on s.
func RegisterOfferServiceServer(s grpc.ServiceRegistrar, srv OfferServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(OfferServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(OfferServiceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ─── Client ──────────────────────────────────────────────────────────────────

// Client calls OfferService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) EvaluateOffer(ctx context.Context, req *EvaluateOfferRequest) (*offer.Evaluation, error) {
	out := new(offer.Evaluation)
	return out, c.invoke(ctx, "EvaluateOffer", req, out)
}

func (c *Client) CompareOffers(ctx context.Context, req *CompareOffersRequest) (*scoring.Comparison, error) {
	out := new(scoring.Comparison)
	return out, c.invoke(ctx, "CompareOffers", req, out)
}

func (c *Client) RunScenarios(ctx context.Context, req *RunScenariosRequest) (*RunScenariosResponse, error) {
	out := new(RunScenariosResponse)
	return out, c.invoke(ctx, "RunScenarios", req, out)
}

func (c *Client) NegotiationPrep(ctx context.Context, req *NegotiationPrepRequest) (*offer.Negotiation, error) {
	out := new(offer.Negotiation)
	return out, c.invoke(ctx, "NegotiationPrep", req, out)
}

func (c *Client) ChangeStatus(ctx context.Context, req *ChangeStatusRequest) (*offer.Record, error) {
	out := new(offer.Record)
	return out, c.invoke(ctx, "ChangeStatus", req, out)
}

func (c *Client) invoke(ctx context.Context, method string, req, out any) error {
	return c.cc.Invoke(ctx, fullMethod(method), req, out, grpc.CallContentSubtype(CodecName))
}
