// Copyright 2026 Blink Labs Software
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

// Package api serves the DAO over a JSON HTTP API. Callers identify
// themselves with the X-Dao-Caller header.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultListenAddress = ":8080"
	CallerHeader         = "X-Dao-Caller"
)

type Config struct {
	ListenAddress string
	// ShutdownTimeout applies when the server is stopped by context
	// cancellation
	ShutdownTimeout time.Duration
}

// Api is the HTTP API server
type Api struct {
	config     Config
	logger     *slog.Logger
	dao        Dao
	httpServer *http.Server
	mu         sync.Mutex
}

func New(
	cfg Config,
	dao Dao,
	logger *slog.Logger,
) *Api {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Api{
		config: cfg,
		logger: logger,
		dao:    dao,
	}
}

// Handler returns the API routes
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)

	mux.HandleFunc("GET /api/v1/dao", a.handleDao)
	mux.HandleFunc("GET /api/v1/index", a.handleIndex)
	mux.HandleFunc("GET /api/v1/events", a.handleEvents)

	mux.HandleFunc("GET /api/v1/members", a.handleMembers)
	mux.HandleFunc("POST /api/v1/members", a.handleJoin)
	mux.HandleFunc("POST /api/v1/members/bond", a.handleTopUpBond)
	mux.HandleFunc("GET /api/v1/members/{address}", a.handleMember)
	mux.HandleFunc(
		"GET /api/v1/members/{address}/score",
		a.handleMemberScore,
	)

	mux.HandleFunc("GET /api/v1/proposals", a.handleProposals)
	mux.HandleFunc("POST /api/v1/proposals", a.handleCreateProposal)
	mux.HandleFunc("GET /api/v1/proposals/{id}", a.handleProposal)
	mux.HandleFunc(
		"GET /api/v1/proposals/{id}/votes",
		a.handleProposalVotes,
	)
	mux.HandleFunc("POST /api/v1/proposals/{id}/votes", a.handleVote)
	mux.HandleFunc(
		"POST /api/v1/proposals/{id}/finalize",
		a.handleFinalize,
	)
	mux.HandleFunc(
		"POST /api/v1/proposals/{id}/execute",
		a.handleExecute,
	)
	mux.HandleFunc(
		"POST /api/v1/proposals/{id}/confirm",
		a.handleConfirm,
	)

	mux.HandleFunc("GET /api/v1/vault", a.handleVault)
	mux.HandleFunc("POST /api/v1/vault/deposits", a.handleDeposit)
	mux.HandleFunc("GET /api/v1/credits/{address}", a.handleCredit)
	mux.HandleFunc(
		"POST /api/v1/credits/withdrawals",
		a.handleWithdraw,
	)

	mux.HandleFunc("POST /api/v1/admin/score", a.handleAdminScore)
	mux.HandleFunc("POST /api/v1/admin/expel", a.handleAdminExpel)
	mux.HandleFunc("POST /api/v1/admin/roles", a.handleAdminRole)
	mux.HandleFunc("POST /api/v1/admin/metrics", a.handleAdminMetrics)
	return mux
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when ctx is canceled.
func (a *Api) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	a.logger.Info(
		"API listener started on " + ln.Addr().String(),
	)

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			a.config.ShutdownTimeout,
		)
		defer cancel()
		//nolint:contextcheck
		if err := a.Stop(shutdownCtx); err != nil {
			a.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Api) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}
