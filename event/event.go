// Copyright 2025 Blink Labs Software
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

package event

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const EventQueueSize = 64

// EventTypeAll subscribes to every event type published on the bus
const EventTypeAll = EventType("*")

type EventType string

type EventSubscriberId int

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

// Subscriber receives events from the bus. In-process consumers use
// channel subscribers; the NATS relay registers its own implementation.
// Close must be safe to call more than once.
type Subscriber interface {
	Deliver(Event) error
	Close()
}

type EventBus struct {
	subscribers map[EventType]map[EventSubscriberId]Subscriber
	metrics     *eventMetrics
	lastSubId   EventSubscriberId
	mu          sync.RWMutex
	logger      *slog.Logger
	stopOnce    sync.Once
}

// NewEventBus creates a new EventBus. Delivery is synchronous, so
// subscribers see events in publish order.
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &EventBus{
		subscribers: make(map[EventType]map[EventSubscriberId]Subscriber),
		logger:      logger.With("component", "event"),
	}
	if promRegistry != nil {
		e.initMetrics(promRegistry)
	}
	return e
}

// channelSubscriber delivers events on a buffered channel. A subscriber
// that falls behind loses events rather than stalling the publisher.
type channelSubscriber struct {
	ch      chan Event
	mu      sync.RWMutex
	closed  bool
	dropped func()
}

func newChannelSubscriber(buffer int, dropped func()) *channelSubscriber {
	return &channelSubscriber{
		ch:      make(chan Event, buffer),
		dropped: dropped,
	}
}

func (c *channelSubscriber) Deliver(evt Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- evt:
	default:
		if c.dropped != nil {
			c.dropped()
		}
	}
	return nil
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

func subscriberKind(sub Subscriber) string {
	if _, ok := sub.(*channelSubscriber); ok {
		return "in-memory"
	}
	return "remote"
}

func (e *EventBus) addSubscriber(
	eventType EventType,
	sub Subscriber,
) EventSubscriberId {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSubId++
	subId := e.lastSubId
	if _, ok := e.subscribers[eventType]; !ok {
		e.subscribers[eventType] = make(map[EventSubscriberId]Subscriber)
	}
	e.subscribers[eventType][subId] = sub
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(
			string(eventType),
			subscriberKind(sub),
		).Inc()
	}
	return subId
}

// Subscribe returns a channel that receives events of the given type. Use
// EventTypeAll to receive every event.
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	chSub := newChannelSubscriber(
		EventQueueSize,
		func() {
			e.logger.Warn(
				"subscriber queue full, dropping event",
				"type", eventType,
			)
			if e.metrics != nil {
				e.metrics.deliveryErrors.WithLabelValues(
					string(eventType),
					"dropped",
				).Inc()
			}
		},
	)
	subId := e.addSubscriber(eventType, chSub)
	return subId, chSub.ch
}

// RegisterSubscriber adds an externally implemented subscriber, such as a
// network relay
func (e *EventBus) RegisterSubscriber(
	eventType EventType,
	sub Subscriber,
) EventSubscriberId {
	return e.addSubscriber(eventType, sub)
}

// Unsubscribe removes a subscriber and closes it
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	var sub Subscriber
	if evtTypeSubs, ok := e.subscribers[eventType]; ok {
		sub = evtTypeSubs[subId]
		delete(evtTypeSubs, subId)
		if len(evtTypeSubs) == 0 {
			delete(e.subscribers, eventType)
		}
	}
	if sub != nil && e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(
			string(eventType),
			subscriberKind(sub),
		).Dec()
	}
	e.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

type subscription struct {
	eventType EventType
	id        EventSubscriberId
	sub       Subscriber
}

// Publish delivers an event to the subscribers of its type and to wildcard
// subscribers. A subscriber that fails delivery is removed.
func (e *EventBus) Publish(eventType EventType, evt Event) {
	e.mu.RLock()
	subs := make(
		[]subscription,
		0,
		len(e.subscribers[eventType])+len(e.subscribers[EventTypeAll]),
	)
	for id, sub := range e.subscribers[eventType] {
		subs = append(subs, subscription{eventType, id, sub})
	}
	if eventType != EventTypeAll {
		for id, sub := range e.subscribers[EventTypeAll] {
			subs = append(subs, subscription{EventTypeAll, id, sub})
		}
	}
	e.mu.RUnlock()
	for _, s := range subs {
		if err := deliver(s.sub, evt); err != nil {
			e.Unsubscribe(s.eventType, s.id)
			if e.metrics != nil {
				e.metrics.deliveryErrors.WithLabelValues(
					string(eventType),
					subscriberKind(s.sub),
				).Inc()
			}
			e.logger.Warn(
				"event delivery failed, removing subscriber",
				"type", eventType,
				"error", err,
			)
		}
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
	}
}

func deliver(sub Subscriber, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber deliver panic: %v", r)
		}
	}()
	return sub.Deliver(evt)
}

// Stop removes and closes all subscribers
func (e *EventBus) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		subs := e.subscribers
		e.subscribers = make(map[EventType]map[EventSubscriberId]Subscriber)
		e.mu.Unlock()
		for _, evtTypeSubs := range subs {
			for _, sub := range evtTypeSubs {
				sub.Close()
			}
		}
		if e.metrics != nil {
			e.metrics.subscribers.Reset()
		}
	})
}
