// Package mcptools exposes offer evaluation to AI agents as MCP tools.
//
// Tools are stateless: agents pass offers inline and nothing is stored.
//
//	evaluate_offer    → valuation, score and recommendation
//	compare_offers    → rank 2+ offers with a side-by-side matrix
//	run_scenarios     → what-if changes to one offer
//	negotiation_prep  → focus, talking points, scripts and readiness
package mcptools

import (
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/offer"
)

// Path is where the streamable HTTP handler is mounted.
const Path = "/mcp"

type registry struct {
	server *sdkmcp.Server
	svc    *offer.Service
	log    *logging.Logger
}

// NewServer builds an MCP server with every offer tool registered.
func NewServer(svc *offer.Service, version string, log *logging.Logger) *sdkmcp.Server {
	if log == nil {
		log = logging.NewNop()
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "jobmate-offer-service",
		Version: version,
	}, nil)

	reg := &registry{server: server, svc: svc, log: log.With("component", "mcp")}
	reg.evaluateOffer()
	reg.compareOffers()
	reg.runScenarios()
	reg.negotiationPrep()
	return server
}

// Handler serves server over the streamable HTTP transport.
func Handler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, nil)
}
