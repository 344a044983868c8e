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

// Package governance implements the DAO state machine: membership and glass
// score accounting, the proposal lifecycle, vote finalization, execution of
// passed proposals against the vault, and the corruption index.
//
// Every mutating operation holds the state's write lock for its whole
// duration and runs in a single database transaction that also appends its
// events to the log. Either every effect of an operation commits or none
// does. Reads only take the read lock.
package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/glassdao/database"
	"github.com/blinklabs-io/glassdao/database/models"
	"github.com/blinklabs-io/glassdao/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/glassdao/governance"

var ErrNotInitialized = errors.New("DAO state not initialized")

// Genesis describes a DAO the first time it is started
type Genesis struct {
	Name   string
	Admins []common.Address
	Params RuleParams
}

// DefaultGenesis returns a genesis with the default rule parameters and no
// admins
func DefaultGenesis() Genesis {
	return Genesis{
		Name:   "glassdao",
		Params: DefaultRuleParams(),
	}
}

type StateConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Genesis      Genesis
	// Now returns the current time. Voting windows are evaluated against it.
	Now func() time.Time
}

type State struct {
	sync.RWMutex
	config  StateConfig
	db      *database.Database
	metrics stateMetrics
	tracer  trace.Tracer
}

// txnContext carries the state of one mutating operation
type txnContext struct {
	ctx    context.Context
	db     *database.Database
	txn    *database.Txn
	dao    *models.DaoState
	now    time.Time
	events []Event
}

// NewState loads the DAO from the database, initializing it from the
// genesis config if the database is empty
func NewState(cfg StateConfig) (*State, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "governance")
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &State{
		config: cfg,
		db:     cfg.Database,
		tracer: otel.Tracer(tracerName),
	}
	s.metrics.init(cfg.PromRegistry)
	daoState, err := s.db.GetDaoState(nil)
	if err != nil {
		return nil, fmt.Errorf("load DAO state: %w", err)
	}
	if daoState == nil {
		if err := s.initGenesis(); err != nil {
			return nil, err
		}
	} else {
		s.config.Logger.Info(
			"loaded DAO state",
			"name", daoState.Name,
			"events", daoState.EventSeq,
		)
		if cfg.Genesis.Name != "" && cfg.Genesis.Name != daoState.Name {
			s.config.Logger.Warn(
				"genesis config differs from stored DAO, ignoring genesis config",
				"genesis_name", cfg.Genesis.Name,
			)
		}
	}
	if err := s.loadMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *State) initGenesis() error {
	genesis := s.config.Genesis
	if genesis.Name == "" {
		genesis.Name = DefaultGenesis().Name
	}
	if err := genesis.Params.Validate(); err != nil {
		return fmt.Errorf("invalid genesis rule params: %w", err)
	}
	now := s.config.Now()
	var events []Event
	txn := s.db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		tc := &txnContext{
			ctx: context.Background(),
			db:  s.db,
			txn: txn,
			dao: &models.DaoState{
				ID:             models.DaoStateRowId,
				Name:           genesis.Name,
				Params:         genesis.Params.toModel(),
				NextProposalId: 1,
				GenesisTime:    now.Unix(),
			},
			now: now,
		}
		// The starting rules are part of the log so that it can be replayed
		// without the genesis config
		for _, name := range RuleParamNames() {
			value, _ := genesis.Params.Get(name)
			if err := tc.emit(Event{
				Type:     event.RuleChangedEventType,
				Rule:     name,
				NewValue: value,
				Reason:   "genesis",
			}); err != nil {
				return err
			}
		}
		for _, admin := range genesis.Admins {
			m, err := tc.getOrNewMember(admin)
			if err != nil {
				return err
			}
			m.Roles |= uint8(RoleAdmin)
			if err := tc.db.SetMember(m, txn); err != nil {
				return err
			}
			if err := tc.emit(Event{
				Type:    event.RoleChangedEventType,
				Address: ptr(admin),
				Roles:   ptr(Role(m.Roles)),
				Reason:  "genesis",
			}); err != nil {
				return err
			}
		}
		if err := tc.db.SetDaoState(tc.dao, txn); err != nil {
			return err
		}
		events = tc.events
		return nil
	})
	if err != nil {
		return fmt.Errorf("initialize DAO: %w", err)
	}
	s.config.Logger.Info(
		"initialized DAO from genesis",
		"name", genesis.Name,
		"admins", len(genesis.Admins),
	)
	s.publish(events)
	return nil
}

// mutate runs fn in a new transaction while holding the write lock. The
// DAO state row is saved and the events emitted by fn are published after
// a successful commit.
func (s *State) mutate(
	ctx context.Context,
	op string,
	caller common.Address,
	fn func(*txnContext) error,
) error {
	ctx, span := s.tracer.Start(
		ctx,
		"governance."+op,
		trace.WithAttributes(attribute.String("caller", caller.Hex())),
	)
	defer span.End()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	var tc *txnContext
	txn := s.db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		daoState, err := s.db.GetDaoState(txn)
		if err != nil {
			return err
		}
		if daoState == nil {
			return ErrNotInitialized
		}
		tc = &txnContext{
			ctx: ctx,
			db:  s.db,
			txn: txn,
			dao: daoState,
			now: s.config.Now(),
		}
		if err := fn(tc); err != nil {
			return err
		}
		return s.db.SetDaoState(tc.dao, txn)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.config.Logger.Debug(
			"operation rejected",
			"op", op,
			"caller", caller.Hex(),
			"error", err,
		)
		return err
	}
	span.SetAttributes(attribute.Int("events", len(tc.events)))
	s.config.Logger.Debug(
		"operation committed",
		"op", op,
		"caller", caller.Hex(),
		"events", len(tc.events),
	)
	s.observe(tc.dao, tc.events)
	s.publish(tc.events)
	return nil
}

func (tc *txnContext) params() RuleParams {
	return ruleParamsFromModel(tc.dao.Params)
}

// getActiveMember returns the member record for an address, failing with
// ErrNotMember if the address is not in the member set
func (tc *txnContext) getActiveMember(addr common.Address) (*models.Member, error) {
	m, err := tc.db.GetMember(addr.Hex(), false, tc.txn)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return nil, ErrNotMember.withMessage("%s", addr.Hex())
		}
		return nil, err
	}
	return m, nil
}

// getOrNewMember returns the record for an address, active or not, or a
// new unsaved inactive record
func (tc *txnContext) getOrNewMember(addr common.Address) (*models.Member, error) {
	m, err := tc.db.GetMember(addr.Hex(), true, tc.txn)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return &models.Member{Address: addr.Hex()}, nil
		}
		return nil, err
	}
	return m, nil
}

// requireAdmin fails with ErrNotAdmin unless the address holds the admin
// role
func (tc *txnContext) requireAdmin(addr common.Address) error {
	m, err := tc.db.GetMember(addr.Hex(), true, tc.txn)
	if err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return ErrNotAdmin.withMessage("%s", addr.Hex())
		}
		return err
	}
	if !Role(m.Roles).Has(RoleAdmin) {
		return ErrNotAdmin.withMessage("%s", addr.Hex())
	}
	return nil
}

// GetDaoDetails returns a summary of the DAO
func (s *State) GetDaoDetails() (*DaoDetails, error) {
	s.RLock()
	defer s.RUnlock()
	daoState, err := s.db.GetDaoState(nil)
	if err != nil {
		return nil, err
	}
	if daoState == nil {
		return nil, ErrNotInitialized
	}
	memberCount, err := s.db.CountActiveMembers(nil)
	if err != nil {
		return nil, err
	}
	counters, err := s.db.GetCorruptionCounters(nil)
	if err != nil {
		return nil, err
	}
	ret := &DaoDetails{
		Name:          daoState.Name,
		Params:        ruleParamsFromModel(daoState.Params),
		MemberCount:   uint64(memberCount), //nolint:gosec
		ProposalCount: daoState.NextProposalId - 1,
		VaultBalance:  daoState.VaultBalance,
		EventCount:    daoState.EventSeq,
		GenesisTime:   time.Unix(daoState.GenesisTime, 0).UTC(),
	}
	if counters != nil {
		ret.CorruptionIndex = counters.IndexValue
	}
	return ret, nil
}

// GetRuleParams returns the rule parameters currently in effect
func (s *State) GetRuleParams() (RuleParams, error) {
	details, err := s.GetDaoDetails()
	if err != nil {
		return RuleParams{}, err
	}
	return details.Params, nil
}
