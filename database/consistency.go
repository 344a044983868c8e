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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/glassdao/database/types"
)

// CommitTimestampError reports that the two stores were last committed by
// different transactions
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (blob)",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

// EventLogMismatchError reports that the event log does not end at the
// sequence number recorded in the DAO state
type EventLogMismatchError struct {
	StateSeq uint64
	Missing  uint64
	Extra    uint64
}

func (e EventLogMismatchError) Error() string {
	if e.Extra != 0 {
		return fmt.Sprintf(
			"event log has record %d past state sequence %d",
			e.Extra,
			e.StateSeq,
		)
	}
	return fmt.Sprintf(
		"event log is missing record %d for state sequence %d",
		e.Missing,
		e.StateSeq,
	)
}

// checkConsistency verifies on open that the last commit reached both
// stores and that the event log ends where the DAO state says it does
func (d *Database) checkConsistency() error {
	metadataTs, err := d.metadata.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read metadata commit timestamp: %w", err)
	}
	// Nothing has been committed yet
	if metadataTs <= 0 {
		return nil
	}
	blobTs, err := d.blob.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read blob commit timestamp: %w", err)
	}
	if blobTs != metadataTs {
		return CommitTimestampError{
			MetadataTimestamp: metadataTs,
			BlobTimestamp:     blobTs,
		}
	}
	state, err := d.GetDaoState(nil)
	if err != nil {
		return err
	}
	if state == nil || state.EventSeq == 0 {
		return nil
	}
	if _, err := d.GetEventRecord(state.EventSeq, nil); err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return EventLogMismatchError{
				StateSeq: state.EventSeq,
				Missing:  state.EventSeq,
			}
		}
		return err
	}
	next, err := d.GetEventRecords(state.EventSeq, 1, nil)
	if err != nil {
		return err
	}
	if len(next) > 0 {
		return EventLogMismatchError{
			StateSeq: state.EventSeq,
			Extra:    next[0].Seq,
		}
	}
	return nil
}

// stampCommit writes the same commit timestamp into both halves of txn
func (d *Database) stampCommit(txn *Txn, timestamp int64) error {
	if err := d.metadata.SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := d.blob.SetCommitTimestamp(timestamp, txn.Blob()); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	return nil
}

// IsConsistencyError reports whether err came from the open-time
// consistency check. The database is still usable for recovery when it did.
func IsConsistencyError(err error) bool {
	var tsErr CommitTimestampError
	var logErr EventLogMismatchError
	return errors.As(err, &tsErr) || errors.As(err, &logErr)
}
