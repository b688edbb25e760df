package app

import (
	"encoding/json"
	"net/http"
)

// ServiceName identifies this service in health checks and telemetry.
const ServiceName = "offer-service"

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": ServiceName,
			"version": version,
		})
	}
}
