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
	"sort"
	"strconv"

	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/database/types"
)

// RuleParams are the DAO rules that can only be changed by an executed
// rule-change proposal
type RuleParams struct {
	// Percent of the member set that must vote for a proposal
	PassCriteria uint32 `json:"passCriteria"   yaml:"passCriteria"`
	// Voting window in seconds
	VotingDuration   uint64    `json:"votingDuration"   yaml:"votingDuration"`
	EntryFee         types.Wei `json:"entryFee"         yaml:"entryFee"`
	AbsentPenalty    int64     `json:"absentPenalty"    yaml:"absentPenalty"`
	AbsentPenaltyFee types.Wei `json:"absentPenaltyFee" yaml:"absentPenaltyFee"`
	// Penalties that trigger expulsion. 0 disables the rule.
	CountToExpel uint32 `json:"countToExpel" yaml:"countToExpel"`
	ScoreToExpel int64  `json:"scoreToExpel" yaml:"scoreToExpel"`
}

// Rule parameter names
const (
	ParamPassCriteria     = "passCriteria"
	ParamVotingDuration   = "votingDuration"
	ParamEntryFee         = "entryFee"
	ParamAbsentPenalty    = "absentPenalty"
	ParamAbsentPenaltyFee = "absentPenaltyFee"
	ParamCountToExpel     = "countToExpel"
	ParamScoreToExpel     = "scoreToExpel"
)

// DefaultRuleParams returns the rules a new DAO starts with
func DefaultRuleParams() RuleParams {
	return RuleParams{
		PassCriteria:     50,
		VotingDuration:   3 * 24 * 60 * 60,
		EntryFee:         types.MustParseWei("0.05 ether"),
		AbsentPenalty:    5,
		AbsentPenaltyFee: types.MustParseWei("0.001 ether"),
		CountToExpel:     5,
		ScoreToExpel:     20,
	}
}

type ruleParam struct {
	get func(*RuleParams) string
	set func(*RuleParams, string) error
}

func uintParam(
	name string,
	minVal, maxVal uint64,
	get func(*RuleParams) uint64,
	set func(*RuleParams, uint64),
) ruleParam {
	return ruleParam{
		get: func(p *RuleParams) string {
			return strconv.FormatUint(get(p), 10)
		},
		set: func(p *RuleParams, value string) error {
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return ErrInvalidFields.withMessage("%s must be an integer", name)
			}
			if v < minVal || v > maxVal {
				return ErrInvalidFields.withMessage(
					"%s must be between %d and %d",
					name,
					minVal,
					maxVal,
				)
			}
			set(p, v)
			return nil
		},
	}
}

func weiParam(
	name string,
	maxVal types.Wei,
	get func(*RuleParams) *types.Wei,
) ruleParam {
	return ruleParam{
		get: func(p *RuleParams) string {
			return get(p).String()
		},
		set: func(p *RuleParams, value string) error {
			v, err := types.ParseWei(value)
			if err != nil {
				return ErrInvalidFields.withMessage("%s: %s", name, err)
			}
			if maxVal.Lt(v) {
				return ErrInvalidFields.withMessage(
					"%s must be at most %s wei",
					name,
					maxVal.String(),
				)
			}
			*get(p) = v
			return nil
		},
	}
}

var ruleParams = map[string]ruleParam{
	ParamPassCriteria: uintParam(
		ParamPassCriteria, 1, 100,
		func(p *RuleParams) uint64 { return uint64(p.PassCriteria) },
		func(p *RuleParams, v uint64) { p.PassCriteria = uint32(v) },
	),
	ParamVotingDuration: uintParam(
		ParamVotingDuration, 60, 30*24*60*60,
		func(p *RuleParams) uint64 { return p.VotingDuration },
		func(p *RuleParams, v uint64) { p.VotingDuration = v },
	),
	ParamEntryFee: weiParam(
		ParamEntryFee,
		types.EtherToWei(1000),
		func(p *RuleParams) *types.Wei { return &p.EntryFee },
	),
	ParamAbsentPenalty: uintParam(
		ParamAbsentPenalty, 0, 100,
		func(p *RuleParams) uint64 { return uint64(p.AbsentPenalty) }, //nolint:gosec
		func(p *RuleParams, v uint64) { p.AbsentPenalty = int64(v) },  //nolint:gosec
	),
	ParamAbsentPenaltyFee: weiParam(
		ParamAbsentPenaltyFee,
		types.EtherToWei(10),
		func(p *RuleParams) *types.Wei { return &p.AbsentPenaltyFee },
	),
	ParamCountToExpel: uintParam(
		ParamCountToExpel, 0, 100,
		func(p *RuleParams) uint64 { return uint64(p.CountToExpel) },
		func(p *RuleParams, v uint64) { p.CountToExpel = uint32(v) },
	),
	ParamScoreToExpel: uintParam(
		ParamScoreToExpel, 0, 100,
		func(p *RuleParams) uint64 { return uint64(p.ScoreToExpel) }, //nolint:gosec
		func(p *RuleParams, v uint64) { p.ScoreToExpel = int64(v) },  //nolint:gosec
	),
}

// RuleParamNames returns the names of all rule parameters
func RuleParamNames() []string {
	ret := make([]string, 0, len(ruleParams))
	for name := range ruleParams {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Get returns the named parameter as a decimal string
func (p RuleParams) Get(name string) (string, error) {
	param, ok := ruleParams[name]
	if !ok {
		return "", ErrInvalidFields.withMessage("unknown rule parameter %q", name)
	}
	return param.get(&p), nil
}

// With returns a copy of the params with the named parameter changed. The
// value is checked against the parameter's allowed range.
func (p RuleParams) With(name string, value string) (RuleParams, error) {
	param, ok := ruleParams[name]
	if !ok {
		return p, ErrInvalidFields.withMessage("unknown rule parameter %q", name)
	}
	if err := param.set(&p, value); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks every parameter against its allowed range
func (p RuleParams) Validate() error {
	for _, name := range RuleParamNames() {
		value, _ := p.Get(name)
		if _, err := p.With(name, value); err != nil {
			return err
		}
	}
	return nil
}

func ruleParamsFromModel(m models.RuleParams) RuleParams {
	return RuleParams{
		PassCriteria:     m.PassCriteria,
		VotingDuration:   m.VotingDuration,
		EntryFee:         m.EntryFee,
		AbsentPenalty:    m.AbsentPenalty,
		AbsentPenaltyFee: m.AbsentPenaltyFee,
		CountToExpel:     m.CountToExpel,
		ScoreToExpel:     m.ScoreToExpel,
	}
}

func (p RuleParams) toModel() models.RuleParams {
	return models.RuleParams{
		PassCriteria:     p.PassCriteria,
		VotingDuration:   p.VotingDuration,
		EntryFee:         p.EntryFee,
		AbsentPenalty:    p.AbsentPenalty,
		AbsentPenaltyFee: p.AbsentPenaltyFee,
		CountToExpel:     p.CountToExpel,
		ScoreToExpel:     p.ScoreToExpel,
	}
}
