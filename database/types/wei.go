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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

var ErrWeiOverflow = errors.New("wei amount overflow")

// Wei is a non-negative 256-bit amount of the smallest currency unit. It is
// stored as a decimal string so the full range survives every SQL driver.
//
//nolint:recvcheck
type Wei struct {
	v uint256.Int
}

func NewWei(val uint64) Wei {
	var w Wei
	w.v.SetUint64(val)
	return w
}

// EtherToWei returns the given number of whole ether as wei
func EtherToWei(ether uint64) Wei {
	var w Wei
	w.v.Mul(uint256.NewInt(ether), uint256.NewInt(params.Ether))
	return w
}

// ParseWei parses a decimal wei amount. An "ether" or "gwei" suffix is
// accepted, with a fractional part down to one wei, e.g. "0.05 ether".
func ParseWei(s string) (Wei, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Wei{}, errors.New("empty wei amount")
	}
	decimals := 0
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "gwei"):
		decimals = 9
		s = strings.TrimSpace(s[:len(s)-len("gwei")])
	case strings.HasSuffix(lower, "ether"):
		decimals = 18
		s = strings.TrimSpace(s[:len(s)-len("ether")])
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > decimals) {
		return Wei{}, fmt.Errorf("invalid wei amount %q: too many decimal places", s)
	}
	if whole == "" {
		whole = "0"
	}
	// Scale to an integer number of wei by shifting the decimal point
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	tmpInt, err := uint256.FromDecimal(strings.TrimLeft(digits, "0"))
	if err != nil {
		if strings.Trim(digits, "0") == "" {
			return Wei{}, nil
		}
		if errors.Is(err, uint256.ErrBig256Range) {
			return Wei{}, ErrWeiOverflow
		}
		return Wei{}, fmt.Errorf("invalid wei amount %q: %w", s, err)
	}
	return Wei{v: *tmpInt}, nil
}

// MustParseWei is like ParseWei but panics on error. Only use it for constants.
func MustParseWei(s string) Wei {
	w, err := ParseWei(s)
	if err != nil {
		panic(err)
	}
	return w
}

func (w Wei) String() string {
	return w.v.Dec()
}

func (w Wei) IsZero() bool {
	return w.v.IsZero()
}

func (w Wei) Cmp(other Wei) int {
	return w.v.Cmp(&other.v)
}

func (w Wei) Lt(other Wei) bool {
	return w.v.Lt(&other.v)
}

// Add returns w+other, failing on overflow
func (w Wei) Add(other Wei) (Wei, error) {
	var ret Wei
	if _, overflow := ret.v.AddOverflow(&w.v, &other.v); overflow {
		return Wei{}, ErrWeiOverflow
	}
	return ret, nil
}

// Sub returns w-other. The second return value is false when other is
// larger than w, since amounts cannot go negative.
func (w Wei) Sub(other Wei) (Wei, bool) {
	var ret Wei
	if _, underflow := ret.v.SubOverflow(&w.v, &other.v); underflow {
		return Wei{}, false
	}
	return ret, true
}

// Min returns the smaller of the two amounts
func (w Wei) Min(other Wei) Wei {
	if other.Lt(w) {
		return other
	}
	return w
}

func (w Wei) Big() *big.Int {
	return w.v.ToBig()
}

// Ether returns the amount in ether as a float, for display and metrics only
func (w Wei) Ether() float64 {
	f := new(big.Float).SetInt(w.v.ToBig())
	f.Quo(f, new(big.Float).SetInt64(params.Ether))
	ret, _ := f.Float64()
	return ret
}

func (w Wei) Value() (driver.Value, error) {
	return w.v.Dec(), nil
}

func (w *Wei) Scan(val any) error {
	var v string
	switch tmpVal := val.(type) {
	case string:
		v = tmpVal
	case []byte:
		v = string(tmpVal)
	case int64:
		if tmpVal < 0 {
			return fmt.Errorf("negative wei value: %d", tmpVal)
		}
		w.v.SetUint64(uint64(tmpVal))
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if v == "" {
		w.v.Clear()
		return nil
	}
	tmpInt, err := uint256.FromDecimal(v)
	if err != nil {
		return fmt.Errorf("failed to set wei value from string: %s", v)
	}
	w.v.Set(tmpInt)
	return nil
}

// GormDataType tells gorm to create a string column for this type
func (Wei) GormDataType() string {
	return "string"
}

func (w Wei) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.v.Dec())
}

func (w *Wei) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("wei must be a JSON string: %w", err)
	}
	tmpWei, err := ParseWei(s)
	if err != nil {
		return err
	}
	*w = tmpWei
	return nil
}

func (w Wei) MarshalYAML() (any, error) {
	return w.v.Dec(), nil
}

func (w *Wei) UnmarshalText(text []byte) error {
	tmpWei, err := ParseWei(string(text))
	if err != nil {
		return err
	}
	*w = tmpWei
	return nil
}
