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

package plugin_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/glassdao/database/plugin"
)

type mockPlugin struct {
	opts    plugin.PluginOptions
	started bool
}

func (m *mockPlugin) Start() error { m.started = true; return nil }
func (m *mockPlugin) Stop() error  { return nil }

func TestRegisterAndGetPlugins(t *testing.T) {
	blobName := "blob-test-" + t.Name()
	metaName := "meta-test-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeBlob,
		Name: blobName,
		NewFromOptionsFunc: func(opts plugin.PluginOptions) plugin.Plugin {
			return &mockPlugin{opts: opts}
		},
	})
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeMetadata,
		Name: metaName,
		NewFromOptionsFunc: func(opts plugin.PluginOptions) plugin.Plugin {
			return &mockPlugin{opts: opts}
		},
	})
	names := func(entries []plugin.PluginEntry) []string {
		ret := []string{}
		for _, e := range entries {
			ret = append(ret, e.Name)
		}
		return ret
	}
	assert.Contains(t, names(plugin.GetPlugins(plugin.PluginTypeBlob)), blobName)
	assert.NotContains(t, names(plugin.GetPlugins(plugin.PluginTypeBlob)), metaName)
	assert.Contains(t, names(plugin.GetPlugins(plugin.PluginTypeMetadata)), metaName)

	p := plugin.GetPlugin(
		plugin.PluginTypeBlob,
		blobName,
		plugin.PluginOptions{DataDir: "/tmp/x"},
	)
	require.NotNil(t, p)
	mp, ok := p.(*mockPlugin)
	require.True(t, ok)
	assert.Equal(t, "/tmp/x", mp.opts.DataDir)
	assert.Nil(
		t,
		plugin.GetPlugin(plugin.PluginTypeBlob, "missing-"+t.Name(), plugin.PluginOptions{}),
	)
}

func TestStartPlugin(t *testing.T) {
	name := "start-test-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeBlob,
		Name: name,
		NewFromOptionsFunc: func(opts plugin.PluginOptions) plugin.Plugin {
			return &mockPlugin{opts: opts}
		},
	})
	p, err := plugin.StartPlugin(plugin.PluginTypeBlob, name, plugin.PluginOptions{})
	require.NoError(t, err)
	assert.True(t, p.(*mockPlugin).started)

	_, err = plugin.StartPlugin(plugin.PluginTypeBlob, "missing-"+t.Name(), plugin.PluginOptions{})
	require.ErrorIs(t, err, plugin.ErrPluginNotFound)

	errName := "error-test-" + t.Name()
	startErr := errors.New("boom")
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeMetadata,
		Name: errName,
		NewFromOptionsFunc: func(plugin.PluginOptions) plugin.Plugin {
			return plugin.NewErrorPlugin(startErr)
		},
	})
	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, errName, plugin.PluginOptions{})
	require.ErrorIs(t, err, startErr)
}
