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

package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDsn(t *testing.T) {
	tests := []struct {
		name     string
		opts     []MysqlOptionFunc
		expected string
	}{
		{
			name:     "defaults",
			expected: "root:@tcp(localhost:3306)/glassdao?charset=utf8mb4&loc=UTC&parseTime=true",
		},
		{
			name: "fields",
			opts: []MysqlOptionFunc{
				WithHost("db"),
				WithPort(3307),
				WithUser("dao"),
				WithPassword("secret"),
				WithDatabase("treasury"),
				WithSSLMode("true"),
			},
			expected: "dao:secret@tcp(db:3307)/treasury?charset=utf8mb4&loc=UTC&parseTime=true&tls=true",
		},
		{
			name:     "explicit dsn",
			opts:     []MysqlOptionFunc{WithDSN("u:p@tcp(h:1)/d")},
			expected: "u:p@tcp(h:1)/d",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, New(test.opts...).Dsn())
		})
	}
}
