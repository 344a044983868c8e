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
	"fmt"
	"net/url"
	"strings"
)

// Location is a parsed object store DSN of the form
// scheme://bucket[/prefix][?option=value]
type Location struct {
	Bucket  string
	Prefix  string
	Options url.Values
}

// ParseLocation parses a DSN for the given scheme. A non-empty prefix always
// ends with a slash.
func ParseLocation(scheme string, dsn string) (Location, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Location{}, fmt.Errorf("parse %s location: %w", scheme, err)
	}
	if u.Scheme != scheme {
		return Location{}, fmt.Errorf(
			"%s blob: expected location '%s://<bucket>[/prefix]', got %q",
			scheme,
			scheme,
			dsn,
		)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("%s blob: bucket not set", scheme)
	}
	ret := Location{
		Bucket:  u.Host,
		Options: u.Query(),
	}
	if prefix := strings.Trim(u.Path, "/"); prefix != "" {
		ret.Prefix = prefix + "/"
	}
	return ret, nil
}
