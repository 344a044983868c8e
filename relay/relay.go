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

// Package relay forwards governance events from the in-process event bus
// to NATS so that consumers outside the node can follow the event log.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/glassdao/event"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultSubjectPrefix  = "glassdao.events"
	DefaultQueueSize      = 1024
	DefaultPublishTimeout = 5 * time.Second
)

var ErrRelayClosed = errors.New("relay closed")

// Publisher sends a message to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

type Config struct {
	Logger         *slog.Logger
	Publisher      Publisher
	PromRegistry   prometheus.Registerer
	SubjectPrefix  string
	QueueSize      int
	PublishTimeout time.Duration
}

// Relay is an event.Subscriber that publishes governance events from a
// background worker. Deliver never blocks the bus: events that do not fit
// in the queue are dropped and counted.
type Relay struct {
	config    Config
	metrics   relayMetrics
	queue     chan event.Event
	done      chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func New(cfg Config) (*Relay, error) {
	if cfg.Publisher == nil {
		return nil, errors.New("no publisher provided")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "relay")
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	r := &Relay{
		config: cfg,
		queue:  make(chan event.Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	r.metrics.init(cfg.PromRegistry)
	r.wg.Add(1)
	go r.worker()
	return r, nil
}

// Subject returns the subject an event type is published on
func (r *Relay) Subject(eventType event.EventType) string {
	return r.config.SubjectPrefix + "." + string(eventType)
}

// Register subscribes the relay to all events on the bus. The bus closes
// the relay when it is stopped.
func (r *Relay) Register(bus *event.EventBus) event.EventSubscriberId {
	return bus.RegisterSubscriber(event.EventTypeAll, r)
}

// Deliver queues an event for publishing. Only governance events are
// relayed.
func (r *Relay) Deliver(evt event.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRelayClosed
	}
	if !event.IsGovernanceEventType(evt.Type) {
		return nil
	}
	select {
	case r.queue <- evt:
	default:
		r.metrics.dropped.Inc()
		r.config.Logger.Warn(
			"relay queue full, dropping event",
			"type", evt.Type,
		)
	}
	return nil
}

// Close stops accepting events, publishes what is already queued and
// closes the publisher
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.done)
		r.wg.Wait()
		if err := r.config.Publisher.Close(); err != nil {
			r.config.Logger.Warn("failed to close publisher", "error", err)
		}
	})
}

func (r *Relay) worker() {
	defer r.wg.Done()
	for {
		select {
		case evt := <-r.queue:
			r.publish(evt)
		case <-r.done:
			for {
				select {
				case evt := <-r.queue:
					r.publish(evt)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) publish(evt event.Event) {
	subject := r.Subject(evt.Type)
	data, err := json.Marshal(evt.Data)
	if err != nil {
		r.metrics.errors.Inc()
		r.config.Logger.Error(
			fmt.Sprintf("failed to encode event: %s", err),
			"type", evt.Type,
		)
		return
	}
	ctx, cancel := context.WithTimeout(
		context.Background(),
		r.config.PublishTimeout,
	)
	defer cancel()
	if err := r.config.Publisher.Publish(ctx, subject, data); err != nil {
		r.metrics.errors.Inc()
		r.config.Logger.Warn(
			"failed to publish event",
			"subject", subject,
			"error", err,
		)
		return
	}
	r.metrics.published.Inc()
}
