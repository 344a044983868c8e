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
	"errors"
	"fmt"
)

// Kind classifies governance errors so callers can decide how to react
// without matching individual errors
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is bad input shape or range
	KindValidation
	// KindAuthorization is a caller lacking membership or a role
	KindAuthorization
	// KindStateConflict is an operation that is not allowed in the current
	// state of the DAO or proposal
	KindStateConflict
	// KindResource is a lack of funds. The operation can be retried once
	// funds are available.
	KindResource
	// KindNotFound is a reference to a record that does not exist
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindStateConflict:
		return "StateConflict"
	case KindResource:
		return "ResourceError"
	case KindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is returned by every governance operation that is rejected. No
// state has changed when an Error is returned.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code, so a detailed error matches its sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	// A finalized proposal is also no longer pending
	return e.Code == ErrAlreadyFinalized.Code && t.Code == ErrNotPending.Code
}

func (e *Error) withMessage(format string, args ...any) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, fmt.Sprintf(format, args...)),
	}
}

func newError(kind Kind, code string, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrInvalidFields = newError(KindValidation, "InvalidFields", "invalid fields")

	ErrNotMember = newError(KindAuthorization, "NotMember", "caller is not a member")
	ErrNotAdmin  = newError(KindAuthorization, "NotAdmin", "caller is not an admin")

	ErrAlreadyMember    = newError(KindStateConflict, "AlreadyMember", "address is already a member")
	ErrDoubleVote       = newError(KindStateConflict, "DoubleVote", "member already voted on this proposal")
	ErrDoubleConfirm    = newError(KindStateConflict, "DoubleConfirm", "member already confirmed this execution")
	ErrAlreadyFinalized = newError(KindStateConflict, "AlreadyFinalized", "proposal already finalized")
	ErrNotPending       = newError(KindStateConflict, "NotPending", "proposal is not pending")
	ErrVotingStillOpen  = newError(KindStateConflict, "VotingStillOpen", "voting is still open")
	ErrVotingClosed     = newError(KindStateConflict, "VotingClosed", "voting is closed")
	ErrNotPassed        = newError(KindStateConflict, "NotPassed", "proposal has not passed")
	ErrAlreadyExecuted  = newError(KindStateConflict, "AlreadyExecuted", "proposal already executed")
	ErrNotExecuted      = newError(KindStateConflict, "NotExecuted", "proposal has not been executed")

	ErrInsufficientFee      = newError(KindResource, "InsufficientFee", "payment is below the entry fee")
	ErrInsufficientTreasury = newError(KindResource, "InsufficientTreasury", "vault balance is too low")
	ErrInsufficientCredit   = newError(KindResource, "InsufficientCredit", "credit balance is too low")

	ErrProposalNotFound = newError(KindNotFound, "ProposalNotFound", "proposal not found")
	ErrMemberNotFound   = newError(KindNotFound, "MemberNotFound", "member not found")
)

// KindOf returns the kind of a governance error, or KindUnknown for any
// other error
func KindOf(err error) Kind {
	var govErr *Error
	if errors.As(err, &govErr) {
		return govErr.Kind
	}
	return KindUnknown
}
