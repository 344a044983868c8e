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
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/glassdao/governance"
	"github.com/blinklabs-io/glassdao/relay"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry      prometheus.Registerer
	logger            *slog.Logger
	publisher         relay.Publisher
	now               func() time.Time
	genesis           governance.Genesis
	dataDir           string
	blobPlugin        string
	metadataPlugin    string
	metadataDsn       string
	blobDsn           string
	apiListenAddress  string
	natsUrl           string
	natsSubjectPrefix string
	natsStream        string
	tracing           bool
	tracingStdout     bool
	shutdownTimeout   time.Duration
}

func (c *Config) validate() error {
	if c.natsStream != "" && c.natsUrl == "" {
		return errors.New("NATS stream requires a NATS URL")
	}
	if c.publisher != nil && c.natsUrl != "" {
		return errors.New("event publisher and NATS URL are mutually exclusive")
	}
	if err := c.genesis.Params.Validate(); err != nil {
		return err
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new glassdao config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		genesis: governance.DefaultGenesis(),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithMetadataDsn specifies the connection string for the postgres and mysql metadata plugins
func WithMetadataDsn(dsn string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataDsn = dsn
	}
}

// WithBlobDsn specifies the object store location for the s3 and gcs blob
// plugins, such as s3://bucket/prefix
func WithBlobDsn(dsn string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobDsn = dsn
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithApiListenAddress specifies the listen address for the HTTP API. The API is disabled when this is empty
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithNatsUrl enables relaying governance events to the NATS server at the given URL
func WithNatsUrl(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.natsUrl = url
	}
}

// WithNatsSubjectPrefix specifies the subject prefix for relayed events. The default is "glassdao.events"
func WithNatsSubjectPrefix(prefix string) ConfigOptionFunc {
	return func(c *Config) {
		c.natsSubjectPrefix = prefix
	}
}

// WithNatsStream publishes relayed events into the named JetStream stream
func WithNatsStream(stream string) ConfigOptionFunc {
	return func(c *Config) {
		c.natsStream = stream
	}
}

// WithEventPublisher relays governance events through the given publisher instead of NATS
func WithEventPublisher(publisher relay.Publisher) ConfigOptionFunc {
	return func(c *Config) {
		c.publisher = publisher
	}
}

// WithGenesis specifies the DAO to create when the database is empty
func WithGenesis(genesis governance.Genesis) ConfigOptionFunc {
	return func(c *Config) {
		c.genesis = genesis
	}
}

// WithClock specifies the time source for voting windows. This defaults to time.Now
func WithClock(now func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.now = now
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
