package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jobmate/offer-service/internal/app"
	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/offer"
)

// offlineService builds a stateless service from the loaded config. Market
// data is fetched live when Adzuna credentials are present and withMarket is
// set; generated prep uses Gemini when a key is configured.
func offlineService(ctx context.Context, rt *runtime, withMarket bool) (*offer.Service, error) {
	var mkt market.Provider
	if withMarket {
		mkt = app.MarketProvider(rt.cfg, market.NewMemoryCache(), rt.log, nil)
	}
	gen, err := app.PrepGenerator(ctx, rt.cfg, rt.log, nil)
	if err != nil {
		return nil, err
	}
	return offer.NewService(nil, offer.Options{
		Market:    mkt,
		Locations: compensation.NewLocationTable(rt.cfg.LocationProfiles()),
		Prep:      gen,
		Log:       rt.log,
	}), nil
}

// readInput decodes one offer from path, or from stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (offer.Input, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return offer.Input{}, err
		}
		defer f.Close()
		r = f
	}

	var in offer.Input
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return offer.Input{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return in, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
