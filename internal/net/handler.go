package net

import (
	"encoding/json"
	"net/http"

	"duskfall/server/internal/net/ws"
	"duskfall/server/internal/registry"
	"duskfall/server/internal/telemetry"
)

// Status is the payload served from /status.
type Status struct {
	Tick       uint64 `json:"tick"`
	Population int    `json:"population"`
	BossActive bool   `json:"bossActive"`
	Observers  int    `json:"observers"`
}

// NewHandler wires the HTTP surface: health probe, observer stream, and a
// small status endpoint for operators.
func NewHandler(reg *registry.Registry, hub *ws.Hub, logger telemetry.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/ws", ws.NewHandler(hub, logger))

	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		_, bossActive := reg.ActiveWorldBoss()
		status := Status{
			Tick:       reg.Tick(),
			Population: reg.Population(),
			BossActive: bossActive,
			Observers:  hub.ObserverCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil && logger != nil {
			logger.Printf("http: encode status: %v", err)
		}
	})

	return mux
}
