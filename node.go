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

package glassdao

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/glassdao/api"
	"github.com/blinklabs-io/glassdao/database"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/blinklabs-io/glassdao/governance"
	"github.com/blinklabs-io/glassdao/relay"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	state         *governance.State
	relay         *relay.Relay
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	config        Config
	ready         chan struct{}
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	return n, nil
}

// Run starts the node and blocks until ctx is canceled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	dbNeedsCheck := false
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		MetadataDsn:    n.config.metadataDsn,
		BlobDsn:        n.config.blobDsn,
	})
	if db == nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		if !database.IsConsistencyError(err) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"database stores disagree, verifying against event log",
			"error",
			err,
		)
		dbNeedsCheck = true
	}
	// Load governance state
	state, err := governance.NewState(governance.StateConfig{
		Logger:       n.config.logger,
		Database:     n.db,
		EventBus:     n.eventBus,
		PromRegistry: n.config.promRegistry,
		Genesis:      n.config.genesis,
		Now:          n.config.now,
	})
	if err != nil {
		return fmt.Errorf("failed to load DAO state: %w", err)
	}
	n.state = state
	if dbNeedsCheck {
		if _, err := n.state.VerifyReplay(); err != nil {
			return fmt.Errorf("database needs recovery: %w", err)
		}
		n.config.logger.Info("event log replay matches stored state")
	}
	// Configure event relay
	if err := n.startRelay(ctx); err != nil {
		return err
	}
	// Configure HTTP API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{
				ListenAddress:   n.config.apiListenAddress,
				ShutdownTimeout: n.shutdownTimeout(),
			},
			n.state,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	close(n.ready)
	n.config.logger.Info("node started", "component", "node")

	// Wait for shutdown
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

func (n *Node) startRelay(ctx context.Context) error {
	publisher := n.config.publisher
	if publisher == nil && n.config.natsUrl != "" {
		var err error
		publisher, err = relay.NewNatsPublisher(
			ctx,
			relay.NatsConfig{
				Logger:        n.config.logger,
				Url:           n.config.natsUrl,
				Stream:        n.config.natsStream,
				SubjectPrefix: n.config.natsSubjectPrefix,
			},
		)
		if err != nil {
			return err
		}
	}
	if publisher == nil {
		return nil
	}
	r, err := relay.New(relay.Config{
		Logger:        n.config.logger,
		Publisher:     publisher,
		PromRegistry:  n.config.promRegistry,
		SubjectPrefix: n.config.natsSubjectPrefix,
	})
	if err != nil {
		_ = publisher.Close()
		return err
	}
	r.Register(n.eventBus)
	n.relay = r
	return nil
}

// Ready returns a channel that is closed once Run has started all components
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// State returns the governance state. It is nil until the node is ready.
func (n *Node) State() *governance.State {
	return n.state
}

// Handler returns the HTTP API routes. It is nil if the API is disabled.
func (n *Node) Handler() http.Handler {
	if n.api == nil {
		return nil
	}
	return n.api.Handler()
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdownTimeout() time.Duration {
	if n.config.shutdownTimeout > 0 {
		return n.config.shutdownTimeout
	}
	return 30 * time.Second
}

func (n *Node) shutdown() error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		n.shutdownTimeout(),
	)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping API")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Stop the event bus, which also drains and closes the relay
	n.config.logger.Debug("shutdown phase 2: draining events")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: Close database
	n.config.logger.Debug("shutdown phase 3: closing database")

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
