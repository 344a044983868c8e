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

package governance

import (
	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	members         prometheus.Gauge
	proposals       *prometheus.GaugeVec
	vaultBalance    prometheus.Gauge
	corruptionIndex prometheus.Gauge
	eventSeq        prometheus.Gauge
	votesTotal      prometheus.Counter
	penaltiesTotal  prometheus.Counter
	expulsionsTotal prometheus.Counter
	finalizeLatency prometheus.Histogram
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.members = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "glassdao_governance_members",
		Help: "current number of DAO members",
	})
	m.proposals = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "glassdao_governance_proposals",
			Help: "number of proposals by status",
		},
		[]string{"status"},
	)
	m.vaultBalance = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "glassdao_governance_vault_balance_ether",
		Help: "vault balance in ether",
	})
	m.corruptionIndex = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "glassdao_governance_corruption_index",
		Help: "last computed corruption index in basis points",
	})
	m.eventSeq = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "glassdao_governance_event_seq",
		Help: "sequence number of the last event in the log",
	})
	m.votesTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "glassdao_governance_votes_total",
		Help: "votes cast since start",
	})
	m.penaltiesTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "glassdao_governance_penalties_total",
		Help: "absent penalties applied since start",
	})
	m.expulsionsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "glassdao_governance_expulsions_total",
		Help: "members expelled since start",
	})
	m.finalizeLatency = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "glassdao_governance_finalize_duration_seconds",
			Help:    "time taken to finalize a proposal, including execution",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
	)
}

// observe updates the metrics for committed events. Gauges move by the
// transitions the events describe, so no stored state is re-read.
func (s *State) observe(dao *models.DaoState, events []Event) {
	for _, evt := range events {
		switch evt.Type {
		case event.MemberJoinedEventType:
			s.metrics.members.Inc()
		case event.MemberExpelledEventType:
			s.metrics.members.Dec()
			s.metrics.expulsionsTotal.Inc()
		case event.VoteCastEventType:
			s.metrics.votesTotal.Inc()
		case event.PenaltyAppliedEventType:
			s.metrics.penaltiesTotal.Inc()
		case event.ProposalCreatedEventType:
			s.metrics.proposals.WithLabelValues(StatusPending.String()).Inc()
		case event.ProposalFinalizedEventType:
			if evt.Status != nil {
				s.metrics.proposals.WithLabelValues(StatusPending.String()).Dec()
				s.metrics.proposals.WithLabelValues(evt.Status.String()).Inc()
			}
		case event.ProposalExecutedEventType:
			s.metrics.proposals.WithLabelValues(StatusPassed.String()).Dec()
			s.metrics.proposals.WithLabelValues(StatusExecuted.String()).Inc()
		case event.MetricsUpdatedEventType:
			if evt.Index != nil {
				s.metrics.corruptionIndex.Set(float64(*evt.Index))
			}
		}
	}
	if dao != nil {
		s.metrics.vaultBalance.Set(dao.VaultBalance.Ether())
		s.metrics.eventSeq.Set(float64(dao.EventSeq))
	}
}

// loadMetrics sets the gauges from stored state. It scans every proposal,
// so it only runs when the state is opened.
func (s *State) loadMetrics() error {
	daoState, err := s.db.GetDaoState(nil)
	if err != nil {
		return err
	}
	if daoState == nil {
		return nil
	}
	s.metrics.vaultBalance.Set(daoState.VaultBalance.Ether())
	s.metrics.eventSeq.Set(float64(daoState.EventSeq))
	memberCount, err := s.db.CountActiveMembers(nil)
	if err != nil {
		return err
	}
	s.metrics.members.Set(float64(memberCount))
	proposals, err := s.db.GetProposals(nil)
	if err != nil {
		return err
	}
	byStatus := map[Status]int{
		StatusPending:  0,
		StatusPassed:   0,
		StatusRejected: 0,
		StatusExecuted: 0,
	}
	for _, p := range proposals {
		byStatus[Status(p.Status)]++
	}
	for status, count := range byStatus {
		s.metrics.proposals.WithLabelValues(status.String()).Set(float64(count))
	}
	counters, err := s.db.GetCorruptionCounters(nil)
	if err != nil {
		return err
	}
	if counters != nil {
		s.metrics.corruptionIndex.Set(float64(counters.IndexValue))
	}
	return nil
}
