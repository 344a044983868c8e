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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/glassdao/database/types"
	"github.com/blinklabs-io/glassdao/governance"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig(t *testing.T) {
	t.Helper()
	globalConfig = defaultConfig()
	// Keep a config file in the user's home from leaking into tests
	t.Setenv("HOME", t.TempDir())
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "glassdao.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoadDefaults(t *testing.T) {
	resetGlobalConfig(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, "0.0.0.0:8080", cfg.ApiListenAddress())
	timeout, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestLoadFile(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfigFile(t, `
databasePath: "/var/lib/glassdao"
metadataPlugin: "postgres"
metadataDsn: "host=localhost user=dao dbname=dao"
blobPlugin: "s3"
blobDsn: "s3://dao-events/prod?region=us-east-1"
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9001
natsUrl: "nats://localhost:4222"
natsStream: "GLASSDAO"
shutdownTimeout: "10s"
tracing: true
genesis:
  name: "council"
  admins:
    - "0x00000000000000000000000000000000000000ad"
  params:
    passCriteria: 66
    entryFee: "0.1 ether"
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/glassdao", cfg.DatabasePath)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, "s3", cfg.BlobPlugin)
	assert.Equal(t, "s3://dao-events/prod?region=us-east-1", cfg.BlobDsn)
	assert.Equal(t, "127.0.0.1:9000", cfg.ApiListenAddress())
	assert.Equal(t, uint(9001), cfg.MetricsPort)
	assert.Equal(t, "GLASSDAO", cfg.NatsStream)
	assert.True(t, cfg.Tracing)

	genesis, err := cfg.Genesis.ToGenesis()
	require.NoError(t, err)
	assert.Equal(t, "council", genesis.Name)
	assert.Equal(
		t,
		[]common.Address{common.HexToAddress("0xad")},
		genesis.Admins,
	)
	assert.Equal(t, uint32(66), genesis.Params.PassCriteria)
	assert.Equal(t, types.MustParseWei("0.1 ether"), genesis.Params.EntryFee)
	// Params not in the file keep their defaults
	assert.Equal(
		t,
		governance.DefaultRuleParams().VotingDuration,
		genesis.Params.VotingDuration,
	)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	resetGlobalConfig(t)
	tmpFile := writeConfigFile(t, `
apiPort: 9000
natsSubjectPrefix: "file.events"
`)
	t.Setenv("GLASSDAO_API_PORT", "9100")
	t.Setenv("GLASSDAO_NATS_URL", "nats://nats:4222")
	t.Setenv("GLASSDAO_GENESIS_ADMINS", "0x00000000000000000000000000000000000000a1,0x00000000000000000000000000000000000000b2")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, "nats://nats:4222", cfg.NatsUrl)
	assert.Equal(t, "file.events", cfg.NatsSubjectPrefix)
	assert.Len(t, cfg.Genesis.Admins, 2)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad yaml",
			content: "apiPort: [",
		},
		{
			name:    "bad shutdown timeout",
			content: `shutdownTimeout: "soon"`,
		},
		{
			name: "bad admin",
			content: `
genesis:
  admins: ["not-an-address"]
`,
		},
		{
			name: "bad params",
			content: `
genesis:
  params:
    passCriteria: 101
`,
		},
		{
			name:    "stream without url",
			content: `natsStream: "GLASSDAO"`,
		},
		{
			name:    "object store without location",
			content: `blobPlugin: "gcs"`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resetGlobalConfig(t)
			_, err := LoadConfig(writeConfigFile(t, test.content))
			require.Error(t, err)
		})
	}
}

func TestApiDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.ApiPort = 0
	assert.Empty(t, cfg.ApiListenAddress())
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
