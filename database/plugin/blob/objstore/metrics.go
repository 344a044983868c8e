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

package objstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type storeMetrics struct {
	ops    *prometheus.CounterVec
	bytes  *prometheus.CounterVec
	errors prometheus.Counter
}

func (m *storeMetrics) init(promRegistry prometheus.Registerer, name string) {
	promautoFactory := promauto.With(promRegistry)
	constLabels := prometheus.Labels{"backend": name}
	m.ops = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "glassdao_blob_object_ops_total",
			Help:        "object storage operations by type",
			ConstLabels: constLabels,
		},
		[]string{"op"},
	)
	m.bytes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "glassdao_blob_object_bytes_total",
			Help:        "object storage bytes transferred by operation type",
			ConstLabels: constLabels,
		},
		[]string{"op"},
	)
	m.errors = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name:        "glassdao_blob_object_errors_total",
			Help:        "failed object storage operations",
			ConstLabels: constLabels,
		},
	)
}
