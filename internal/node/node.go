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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/glassdao"
	"github.com/blinklabs-io/glassdao/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	genesis, err := cfg.Genesis.ToGenesis()
	if err != nil {
		return err
	}
	if len(genesis.Admins) == 0 {
		logger.Warn(
			"no genesis admins configured, admin operations will be unavailable for a new DAO",
			"component", "node",
		)
	}
	d, err := glassdao.New(
		glassdao.NewConfig(
			glassdao.WithLogger(logger),
			glassdao.WithDatabasePath(cfg.DatabasePath),
			glassdao.WithBlobPlugin(cfg.BlobPlugin),
			glassdao.WithMetadataPlugin(cfg.MetadataPlugin),
			glassdao.WithMetadataDsn(cfg.MetadataDsn),
			glassdao.WithBlobDsn(cfg.BlobDsn),
			glassdao.WithApiListenAddress(cfg.ApiListenAddress()),
			glassdao.WithNatsUrl(cfg.NatsUrl),
			glassdao.WithNatsSubjectPrefix(cfg.NatsSubjectPrefix),
			glassdao.WithNatsStream(cfg.NatsStream),
			glassdao.WithGenesis(genesis),
			glassdao.WithShutdownTimeout(shutdownTimeout),
			// Enable metrics with default prometheus registry
			glassdao.WithPrometheusRegistry(prometheus.DefaultRegisterer),
			glassdao.WithTracing(cfg.Tracing),
			glassdao.WithTracingStdout(cfg.TracingStdout),
		),
	)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	errChan := make(chan error, 2)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}
	// Run node in goroutine
	go func() {
		//nolint:contextcheck
		errChan <- d.Run(signalCtx)
	}()

	// Wait for signal or error
	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
	case runErr = <-errChan:
		if runErr != nil {
			logger.Error("node error", "error", runErr)
		} else {
			logger.Info("node stopped")
		}
	}
	signalCtxStop()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := d.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	logger.Info("shutdown complete")
	return runErr
}
