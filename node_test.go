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

package glassdao_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/glassdao"
	"github.com/blinklabs-io/glassdao/api"
	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/governance"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	closed   bool
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) snapshot() ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...), p.closed
}

func startNode(t *testing.T, opts ...glassdao.ConfigOptionFunc) *glassdao.Node {
	t.Helper()
	opts = append(
		[]glassdao.ConfigOptionFunc{
			glassdao.WithPrometheusRegistry(prometheus.NewRegistry()),
		},
		opts...,
	)
	n, err := glassdao.New(glassdao.NewConfig(opts...))
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(context.Background())
	}()
	select {
	case <-n.Ready():
	case err := <-errCh:
		t.Fatalf("node failed to start: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for node to start")
	}
	t.Cleanup(func() {
		_ = n.Stop()
		<-errCh
	})
	return n
}

func TestNodeRelaysEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	admin := common.HexToAddress("0x00000000000000000000000000000000000000ad")
	genesis := governance.DefaultGenesis()
	genesis.Admins = []common.Address{admin}
	n := startNode(
		t,
		glassdao.WithGenesis(genesis),
		glassdao.WithEventPublisher(publisher),
		glassdao.WithNatsSubjectPrefix("test.dao"),
	)
	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	require.NoError(
		t,
		n.State().JoinDAO(context.Background(), alice, types.MustParseWei("0.05 ether")),
	)
	require.NoError(t, n.Stop())
	subjects, closed := publisher.snapshot()
	assert.True(t, closed)
	assert.Contains(t, subjects, "test.dao.MemberJoined")
	assert.Contains(t, subjects, "test.dao.VaultDeposit")
	for _, subject := range subjects {
		assert.True(t, strings.HasPrefix(subject, "test.dao."), subject)
	}
}

func TestNodeApi(t *testing.T) {
	n := startNode(t, glassdao.WithApiListenAddress("127.0.0.1:0"))
	handler := n.Handler()
	require.NotNil(t, handler)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/members",
		strings.NewReader(`{"amount":"0.05 ether"}`),
	)
	req.Header.Set(api.CallerHeader, "0x00000000000000000000000000000000000000a1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestNodeApiDisabled(t *testing.T) {
	n := startNode(t)
	assert.Nil(t, n.Handler())
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := glassdao.New(glassdao.NewConfig(glassdao.WithNatsStream("DAO")))
	require.Error(t, err)

	genesis := governance.DefaultGenesis()
	genesis.Params.PassCriteria = 0
	_, err = glassdao.New(glassdao.NewConfig(glassdao.WithGenesis(genesis)))
	require.Error(t, err)
}
