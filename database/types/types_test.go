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

package types_test

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/glassdao/database/types"
)

func TestTypesScanValue(t *testing.T) {
	testDefs := []struct {
		origValue     any
		expectedValue any
	}{
		{
			origValue: func(v types.Uint64) *types.Uint64 { return &v }(
				types.Uint64(123),
			),
			expectedValue: "123",
		},
		{
			origValue: func(v types.Wei) *types.Wei { return &v }(
				types.EtherToWei(2),
			),
			expectedValue: "2000000000000000000",
		},
	}
	for _, testDef := range testDefs {
		tmpValuer, ok := testDef.origValue.(driver.Valuer)
		require.True(t, ok, "test original value does not implement driver.Valuer")
		valueOut, err := tmpValuer.Value()
		require.NoError(t, err)
		assert.Equal(t, testDef.expectedValue, valueOut)
		tmpScanner, ok := testDef.origValue.(sql.Scanner)
		require.True(t, ok, "test original value does not implement sql.Scanner")
		require.NoError(t, tmpScanner.Scan(valueOut))
		assert.Equal(t, testDef.origValue, tmpScanner)
	}
}

func TestParseWei(t *testing.T) {
	testDefs := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "0", expected: "0"},
		{input: "10000000000000000", expected: "10000000000000000"},
		{input: "5 gwei", expected: "5000000000"},
		{input: "1ether", expected: "1000000000000000000"},
		{input: "0.05 ether", expected: "50000000000000000"},
		{input: "1.5gwei", expected: "1500000000"},
		{input: "0.000000000000000001ether", expected: "1"},
		{input: "0.0000000000000000001ether", wantErr: true},
		{input: "0.1", wantErr: true},
		{input: "1.ether", wantErr: true},
		{input: "1" + strings.Repeat("0", 78), wantErr: true},
		{input: "-1", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.input, func(t *testing.T) {
			w, err := types.ParseWei(testDef.input)
			if testDef.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, w.String())
		})
	}
}

func TestWeiArithmetic(t *testing.T) {
	a := types.NewWei(100)
	b := types.NewWei(30)
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "130", sum.String())
	diff, ok := a.Sub(b)
	require.True(t, ok)
	assert.Equal(t, "70", diff.String())
	_, ok = b.Sub(a)
	assert.False(t, ok, "subtraction below zero must fail")
	assert.Equal(t, b, a.Min(b))
	assert.True(t, b.Lt(a))
	assert.InDelta(t, 0.05, types.MustParseWei("50000000000000000").Ether(), 1e-12)
}

func TestWeiJSON(t *testing.T) {
	w := types.EtherToWei(3)
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `"3000000000000000000"`, string(data))
	var out types.Wei
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, w, out)
	require.Error(t, json.Unmarshal([]byte(`12`), &out))
}
