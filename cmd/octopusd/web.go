// Copyright 2026 The hass-octopus-energy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	octopus "github.com/palbella/hass-octopus-energy"
)

// WebServer exposes the daemon's observability surface: Prometheus
// metrics, a JSON snapshot of the last poll, and a health check.
type WebServer struct {
	server *http.Server
	state  *AppState
	logger *octopus.Logger
}

func NewWebServer(port int, state *AppState, metrics *Metrics, logger *octopus.Logger) *WebServer {
	w := &WebServer{
		state:  state,
		logger: logger.WithComponent("web"),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/status", w.handleStatus)
	mux.HandleFunc("/healthz", w.handleHealthz)

	w.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return w
}

func (w *WebServer) Start() error {
	w.logger.Info("Web server listening", "addr", w.server.Addr)
	if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (w *WebServer) Shutdown(ctx context.Context) error {
	return w.server.Shutdown(ctx)
}

type statusResponse struct {
	Version  string                     `json:"version"`
	LastPoll time.Time                  `json:"last_poll"`
	Accounts map[string]AccountSnapshot `json:"accounts"`
}

func (w *WebServer) handleStatus(rw http.ResponseWriter, r *http.Request) {
	w.state.mu.RLock()
	lastPoll := w.state.LastPoll
	w.state.mu.RUnlock()

	response := statusResponse{
		Version:  octopus.Version(),
		LastPoll: lastPoll,
		Accounts: w.state.SnapshotView(),
	}

	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(response); err != nil {
		w.logger.Warn("Failed to encode status response", "error", err.Error())
	}
}

func (w *WebServer) handleHealthz(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(http.StatusOK)
	fmt.Fprintln(rw, "ok")
}
