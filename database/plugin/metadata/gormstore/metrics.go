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

package gormstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegisterMetrics exposes connection pool statistics for the store
func (s *Store) RegisterMetrics(promRegistry prometheus.Registerer, driver string) {
	if promRegistry == nil {
		return
	}
	sqlDb, err := s.db.DB()
	if err != nil {
		s.logger.Warn(
			"unable to register metadata store metrics",
			"component", "database",
			"error", err,
		)
		return
	}
	labels := prometheus.Labels{"driver": driver}
	promautoFactory := promauto.With(promRegistry)
	promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "glassdao_metadata_open_connections",
			Help:        "open connections to the metadata store",
			ConstLabels: labels,
		},
		func() float64 { return float64(sqlDb.Stats().OpenConnections) },
	)
	promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "glassdao_metadata_in_use_connections",
			Help:        "metadata store connections currently in use",
			ConstLabels: labels,
		},
		func() float64 { return float64(sqlDb.Stats().InUse) },
	)
}
