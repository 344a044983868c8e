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

package node

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/glassdao/database"
	"github.com/blinklabs-io/glassdao/governance"
	"github.com/blinklabs-io/glassdao/internal/config"
)

// OpenState opens the database and DAO state for the offline commands.
// The returned function closes the database.
func OpenState(
	cfg *config.Config,
	logger *slog.Logger,
) (*governance.State, func() error, error) {
	genesis, err := cfg.Genesis.ToGenesis()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		Logger:         logger,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
		MetadataDsn:    cfg.MetadataDsn,
		BlobDsn:        cfg.BlobDsn,
	})
	if err != nil {
		if db == nil || !database.IsConsistencyError(err) {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		// The replay command reports whether the stores agree
		logger.Warn("database stores disagree", "error", err)
	}
	state, err := governance.NewState(governance.StateConfig{
		Logger:   logger,
		Database: db,
		Genesis:  genesis,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("loading DAO state: %w", err)
	}
	return state, db.Close, nil
}
