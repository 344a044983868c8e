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
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metricsSnapshot struct {
	members  float64
	vault    float64
	eventSeq float64
	statuses map[Status]float64
}

func (h *testHarness) metricsSnapshot() metricsSnapshot {
	m := h.state.metrics
	snap := metricsSnapshot{
		members:  testutil.ToFloat64(m.members),
		vault:    testutil.ToFloat64(m.vaultBalance),
		eventSeq: testutil.ToFloat64(m.eventSeq),
		statuses: map[Status]float64{},
	}
	for _, status := range []Status{StatusPending, StatusPassed, StatusRejected, StatusExecuted} {
		snap.statuses[status] = testutil.ToFloat64(m.proposals.WithLabelValues(status.String()))
	}
	return snap
}

func TestMetricsFollowCommittedEvents(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob, testCarol)

	passed := h.propose(t, testAlice, generalProposal("passes"))
	h.vote(t, passed, ChoiceFor, testAlice, testBob, testCarol)
	_, err := h.state.FinalizeProposal(ctx, testAlice, passed)
	require.NoError(t, err)

	rejected := h.propose(t, testBob, generalProposal("fails"))
	h.vote(t, rejected, ChoiceAgainst, testAlice, testBob, testCarol)
	_, err = h.state.FinalizeProposal(ctx, testBob, rejected)
	require.NoError(t, err)

	h.propose(t, testCarol, generalProposal("open"))

	details, err := h.state.GetDaoDetails()
	require.NoError(t, err)
	snap := h.metricsSnapshot()
	assert.Equal(t, float64(3), snap.members)
	assert.InDelta(t, details.VaultBalance.Ether(), snap.vault, 1e-12)
	assert.Equal(t, float64(details.EventCount), snap.eventSeq)
	assert.Equal(t, map[Status]float64{
		StatusPending:  1,
		StatusPassed:   0,
		StatusRejected: 1,
		StatusExecuted: 1,
	}, snap.statuses)
	assert.Equal(t, float64(6), testutil.ToFloat64(h.state.metrics.votesTotal))

	// A full reload from storage agrees with the incremental values
	require.NoError(t, h.state.loadMetrics())
	assert.Equal(t, snap, h.metricsSnapshot())
}

func TestMetricsTrackExpulsions(t *testing.T) {
	h := newTestHarness(t, "", testGenesis())
	ctx := context.Background()
	h.join(t, "0.05", testAlice, testBob)
	require.NoError(t, h.state.AdminSubGlassScore(ctx, testAdmin, testBob, 40))

	snap := h.metricsSnapshot()
	assert.Equal(t, float64(1), snap.members)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.state.metrics.expulsionsTotal))
	require.NoError(t, h.state.loadMetrics())
	assert.Equal(t, snap, h.metricsSnapshot())
}
