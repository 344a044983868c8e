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

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blinklabs-io/glassdao/governance"
	"github.com/ethereum/go-ethereum/common"
)

const maxRequestBodySize = 1 << 20

var (
	errMissingCaller = errors.New("missing " + CallerHeader + " header")
	errInvalidCaller = errors.New("invalid " + CallerHeader + " header")
)

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// statusForError maps a governance error kind to an HTTP status
func statusForError(err error) int {
	if errors.Is(err, governance.ErrInsufficientFee) {
		return http.StatusPaymentRequired
	}
	switch governance.KindOf(err) {
	case governance.KindValidation:
		return http.StatusBadRequest
	case governance.KindAuthorization:
		return http.StatusForbidden
	case governance.KindStateConflict, governance.KindResource:
		return http.StatusConflict
	case governance.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeGovernanceError writes the response for an error returned by the
// governance state. Unexpected errors are logged and not exposed.
func (a *Api) writeGovernanceError(
	w http.ResponseWriter,
	op string,
	err error,
) {
	status := statusForError(err)
	var govErr *governance.Error
	if status == http.StatusInternalServerError || !errors.As(err, &govErr) {
		a.logger.Error(
			"request failed",
			"op", op,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to "+op,
		)
		return
	}
	writeError(w, status, govErr.Code, govErr.Error())
}

// caller returns the address in the caller header
func caller(r *http.Request) (common.Address, error) {
	value := r.Header.Get(CallerHeader)
	if value == "" {
		return common.Address{}, errMissingCaller
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, errInvalidCaller
	}
	return common.HexToAddress(value), nil
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields
func decodeBody(
	w http.ResponseWriter,
	r *http.Request,
	v any,
) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
