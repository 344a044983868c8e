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

package sqlite

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultBusyTimeout    = 5 * time.Second
	DefaultVacuumInterval = 24 * time.Hour
)

type SqliteOptionFunc func(*MetadataStoreSqlite)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.promRegistry = registry
	}
}

// WithDataDir specifies the data directory to use for storage. The store is
// kept in memory when this is empty.
func WithDataDir(dataDir string) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.dataDir = dataDir
	}
}

// WithBusyTimeout specifies how long a writer waits on a locked database
// file before failing
func WithBusyTimeout(timeout time.Duration) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.busyTimeout = timeout
	}
}

// WithVacuumInterval specifies how often the database file is vacuumed. A
// zero interval disables vacuuming.
func WithVacuumInterval(interval time.Duration) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.vacuumInterval = &interval
	}
}

// WithDsn applies tuning given as a query string, such as
// "busy_timeout=10s&vacuum_interval=12h". An invalid DSN makes Start fail.
func WithDsn(dsn string) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		if dsn == "" {
			return
		}
		opts, err := parseDsn(dsn)
		if err != nil {
			m.optErr = err
			return
		}
		for _, opt := range opts {
			opt(m)
		}
	}
}

func parseDsn(dsn string) ([]SqliteOptionFunc, error) {
	values, err := url.ParseQuery(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse sqlite dsn: %w", err)
	}
	var opts []SqliteOptionFunc
	for key := range values {
		d, err := time.ParseDuration(values.Get(key))
		if err != nil || d < 0 {
			return nil, fmt.Errorf("sqlite dsn: invalid %s %q", key, values.Get(key))
		}
		switch key {
		case "busy_timeout":
			opts = append(opts, WithBusyTimeout(d))
		case "vacuum_interval":
			opts = append(opts, WithVacuumInterval(d))
		default:
			return nil, fmt.Errorf("sqlite dsn: unknown option %q", key)
		}
	}
	return opts, nil
}
