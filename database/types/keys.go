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

package types

import (
	"encoding/binary"
	"fmt"
)

const (
	EventBlobKeyPrefix = "evt"

	// CommitTimestampBlobKey holds the time of the last commit in a blob
	// store. It sorts before the event log keys.
	CommitTimestampBlobKey = "commit_ts"
)

func EventBlobKeyUint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// EventBlobKey returns the blob key for the event log record with the given
// sequence number. Keys sort in sequence order.
func EventBlobKey(seq uint64) []byte {
	key := []byte(EventBlobKeyPrefix)
	key = append(key, EventBlobKeyUint64ToBytes(seq)...)
	return key
}

// EventBlobKeySeq extracts the sequence number from an event blob key
func EventBlobKeySeq(key []byte) (uint64, bool) {
	if len(key) != len(EventBlobKeyPrefix)+8 {
		return 0, false
	}
	if string(key[:len(EventBlobKeyPrefix)]) != EventBlobKeyPrefix {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(EventBlobKeyPrefix):]), true
}

// EncodeCommitTimestamp encodes a commit timestamp for the blob store
func EncodeCommitTimestamp(timestamp int64) []byte {
	return EventBlobKeyUint64ToBytes(uint64(timestamp)) //nolint:gosec
}

// DecodeCommitTimestamp decodes a value written by EncodeCommitTimestamp
func DecodeCommitTimestamp(val []byte) (int64, error) {
	if len(val) != 8 {
		return 0, fmt.Errorf("commit timestamp has %d bytes, expected 8", len(val))
	}
	return int64(binary.BigEndian.Uint64(val)), nil //nolint:gosec
}
