// jobmate-offer-service
//
// Offer evaluation and negotiation prep for received job offers.
// Exposes a REST API used by the Gateway to implement:
//   - offers / offer(id)          CRUD and status transitions
//   - evaluateOffer(id)           total compensation, market position, score
//   - compareOffers(ids)          side-by-side matrix and xlsx export
//   - runScenarios(id, changes)   what-if totals
//   - negotiationPrep(id)         focus, talking points, readiness
//
// The same operations are served over gRPC and as MCP tools. Open offers are
// re-scored on a cron schedule and status changes are published to Redis.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jobmate/offer-service/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[offer-service] %v\n", err)
		stop()
		os.Exit(1)
	}
}
