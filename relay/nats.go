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

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type NatsConfig struct {
	Logger *slog.Logger
	Url    string
	// Stream, when set, publishes through JetStream into a stream of this
	// name that is created if missing. Otherwise core NATS is used.
	Stream        string
	SubjectPrefix string
	ClientName    string
}

// natsPublisher publishes with core NATS
type natsPublisher struct {
	conn *nats.Conn
}

func (p *natsPublisher) Publish(_ context.Context, subject string, data []byte) error {
	return p.conn.Publish(subject, data)
}

func (p *natsPublisher) Close() error {
	return drain(p.conn)
}

// jetStreamPublisher waits for the stream to acknowledge each message
type jetStreamPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func (p *jetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

func (p *jetStreamPublisher) Close() error {
	return drain(p.conn)
}

func drain(conn *nats.Conn) error {
	if err := conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		conn.Close()
		return err
	}
	return nil
}

// NewNatsPublisher connects to a NATS server
func NewNatsPublisher(ctx context.Context, cfg NatsConfig) (Publisher, error) {
	if cfg.Url == "" {
		return nil, errors.New("no NATS URL provided")
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "glassdao"
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(
		cfg.Url,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	if cfg.Stream == "" {
		return &natsPublisher{conn: conn}, nil
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.SubjectPrefix + ".>"},
		Storage:  jetstream.FileStorage,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create stream %s: %w", cfg.Stream, err)
	}
	return &jetStreamPublisher{conn: conn, js: js}, nil
}
