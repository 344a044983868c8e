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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/glassdao/governance"
	"github.com/blinklabs-io/glassdao/relay"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "glassdao.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	DefaultApiPort         = 8080
	DefaultMetricsPort     = 12799
)

const (
	envPrefix        = "glassdao"
	userConfigDir    = ".glassdao"
	configFileName   = "glassdao.yaml"
	systemConfigPath = "/etc/glassdao/glassdao.yaml"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// GenesisConfig is the DAO created on first start. It is ignored once the
// database holds a DAO.
type GenesisConfig struct {
	Name   string                `yaml:"name"`
	Admins []string              `yaml:"admins"`
	Params governance.RuleParams `yaml:"params"`
}

type Config struct {
	DatabasePath      string        `yaml:"databasePath"      split_words:"true"`
	MetadataPlugin    string        `yaml:"metadataPlugin"    split_words:"true"`
	BlobPlugin        string        `yaml:"blobPlugin"        split_words:"true"`
	MetadataDsn       string        `yaml:"metadataDsn"       split_words:"true"`
	BlobDsn           string        `yaml:"blobDsn"           split_words:"true"`
	BindAddr          string        `yaml:"bindAddr"          split_words:"true"`
	ApiPort           uint          `yaml:"apiPort"           split_words:"true"`
	MetricsPort       uint          `yaml:"metricsPort"       split_words:"true"`
	NatsUrl           string        `yaml:"natsUrl"           split_words:"true"`
	NatsSubjectPrefix string        `yaml:"natsSubjectPrefix" split_words:"true"`
	NatsStream        string        `yaml:"natsStream"        split_words:"true"`
	ShutdownTimeout   string        `yaml:"shutdownTimeout"   split_words:"true"`
	Tracing           bool          `yaml:"tracing"`
	TracingStdout     bool          `yaml:"tracingStdout"     split_words:"true"`
	Genesis           GenesisConfig `yaml:"genesis"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:      ".glassdao",
		MetadataPlugin:    DefaultMetadataPlugin,
		BlobPlugin:        DefaultBlobPlugin,
		BindAddr:          "0.0.0.0",
		ApiPort:           DefaultApiPort,
		MetricsPort:       DefaultMetricsPort,
		NatsSubjectPrefix: relay.DefaultSubjectPrefix,
		ShutdownTimeout:   DefaultShutdownTimeout,
		Genesis: GenesisConfig{
			Name:   governance.DefaultGenesis().Name,
			Params: governance.DefaultRuleParams(),
		},
	}
}

var globalConfig = defaultConfig()

// LoadConfig loads the config from the given file, or from the first of
// ~/.glassdao/glassdao.yaml and /etc/glassdao/glassdao.yaml that exists,
// and then applies GLASSDAO_* environment variables
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, userConfigDir, configFileName)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			if _, err := os.Stat(systemConfigPath); err == nil {
				configFile = systemConfigPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks values that can't be checked by the YAML and
// environment decoders
func (c *Config) Validate() error {
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Genesis.ToGenesis(); err != nil {
		return err
	}
	if c.NatsStream != "" && c.NatsUrl == "" {
		return errors.New("natsStream requires natsUrl")
	}
	switch c.BlobPlugin {
	case "s3", "gcs":
		if c.BlobDsn == "" {
			return fmt.Errorf("blobPlugin %s requires blobDsn", c.BlobPlugin)
		}
	}
	return nil
}

// ShutdownTimeoutDuration parses the shutdown timeout
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return time.ParseDuration(DefaultShutdownTimeout)
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return d, nil
}

// ApiListenAddress returns the API listen address, or an empty string
// when the API is disabled
func (c *Config) ApiListenAddress() string {
	if c.ApiPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

// ToGenesis converts the genesis section into a governance genesis
func (g GenesisConfig) ToGenesis() (governance.Genesis, error) {
	ret := governance.Genesis{
		Name:   g.Name,
		Params: g.Params,
	}
	for _, admin := range g.Admins {
		if !common.IsHexAddress(admin) {
			return governance.Genesis{}, fmt.Errorf("invalid genesis admin address %q", admin)
		}
		ret.Admins = append(ret.Admins, common.HexToAddress(admin))
	}
	if err := ret.Params.Validate(); err != nil {
		return governance.Genesis{}, fmt.Errorf("invalid genesis params: %w", err)
	}
	return ret, nil
}
