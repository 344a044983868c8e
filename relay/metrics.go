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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type relayMetrics struct {
	published prometheus.Counter
	errors    prometheus.Counter
	dropped   prometheus.Counter
}

func (m *relayMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.published = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "glassdao_relay_published_total",
		Help: "events published to NATS",
	})
	m.errors = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "glassdao_relay_errors_total",
		Help: "events that could not be encoded or published",
	})
	m.dropped = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "glassdao_relay_dropped_total",
		Help: "events dropped because the relay queue was full",
	})
}
