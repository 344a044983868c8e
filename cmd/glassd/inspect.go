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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/glassdao/governance"
	"github.com/blinklabs-io/glassdao/internal/config"
	"github.com/blinklabs-io/glassdao/internal/node"
	"github.com/spf13/cobra"
)

const eventPageSize = 1000

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withState runs fn against the DAO state in the configured database
func withState(
	cfg *config.Config,
	fn func(*governance.State) error,
) (err error) {
	logger := commonRun(os.Stderr)
	state, closeFn, err := node.OpenState(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeFn())
	}()
	return fn(state)
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the DAO details",
		RunE: configRun(func(cmd *cobra.Command, _ []string, cfg *config.Config) error {
			return withState(cfg, func(state *governance.State) error {
				details, err := state.GetDaoDetails()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), details)
			})
		}),
	}
}

func eventsCommand() *cobra.Command {
	var after uint64
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the event log as JSON lines",
		RunE: configRun(func(cmd *cobra.Command, _ []string, cfg *config.Config) error {
			return withState(cfg, func(state *governance.State) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				printed := 0
				for limit <= 0 || printed < limit {
					pageSize := eventPageSize
					if limit > 0 {
						pageSize = min(pageSize, limit-printed)
					}
					events, err := state.GetEvents(after, pageSize)
					if err != nil {
						return err
					}
					if len(events) == 0 {
						return nil
					}
					for _, evt := range events {
						if err := enc.Encode(evt); err != nil {
							return err
						}
					}
					printed += len(events)
					after = events[len(events)-1].Seq
				}
				return nil
			})
		}),
	}
	cmd.Flags().Uint64Var(&after, "after", 0, "only print events after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events to print (0 for all)")
	return cmd
}

func replayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the DAO state from the event log and compare it with the stored state",
		RunE: configRun(func(cmd *cobra.Command, _ []string, cfg *config.Config) error {
			return withState(cfg, func(state *governance.State) error {
				snap, err := state.VerifyReplay()
				var mismatchErr *governance.ReplayMismatchError
				if errors.As(err, &mismatchErr) {
					for _, diff := range mismatchErr.Diffs {
						fmt.Fprintln(cmd.ErrOrStderr(), diff)
					}
					return err
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"replayed %d events: %d members, %d proposals, vault balance %s wei, corruption index %d\n",
					snap.LastSeq,
					len(snap.Members),
					len(snap.Proposals),
					snap.VaultBalance.String(),
					snap.CorruptionIndex,
				)
				return nil
			})
		}),
	}
}

func indexCommand() *cobra.Command {
	var derive bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Show the corruption index and its counters",
		RunE: configRun(func(cmd *cobra.Command, _ []string, cfg *config.Config) error {
			return withState(cfg, func(state *governance.State) error {
				index, counters, err := state.GetCorruptionIndex()
				if err != nil {
					return err
				}
				out := map[string]any{
					"index":    index,
					"counters": counters,
				}
				if derive {
					derived, err := state.DeriveCounters()
					if err != nil {
						return err
					}
					out["derivedCounters"] = derived
					out["derivedIndex"] = governance.ComputeIndex(derived)
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		}),
	}
	cmd.Flags().BoolVar(&derive, "derive", false, "also compute counters from the proposal history")
	return cmd
}
