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
	"errors"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount = 100
	MaxPaginationCount     = 100
	DefaultPaginationPage  = 1
	PaginationOrderAsc     = "asc"
	PaginationOrderDesc    = "desc"

	DefaultEventLimit = 100
	MaxEventLimit     = 1000
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams contains parsed pagination query values
type PaginationParams struct {
	Count int
	Page  int
	Order string
}

// ParsePagination parses the count, page and order query parameters,
// applying defaults and clamping to bounds
func ParsePagination(r *http.Request) (PaginationParams, error) {
	params := PaginationParams{
		Count: DefaultPaginationCount,
		Page:  DefaultPaginationPage,
		Order: PaginationOrderAsc,
	}
	query := r.URL.Query()
	if countParam := query.Get("count"); countParam != "" {
		count, err := strconv.Atoi(countParam)
		if err != nil {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
		params.Count = min(max(count, 1), MaxPaginationCount)
	}
	if pageParam := query.Get("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
		params.Page = max(page, 1)
	}
	if orderParam := query.Get("order"); orderParam != "" {
		switch order := strings.ToLower(orderParam); order {
		case PaginationOrderAsc, PaginationOrderDesc:
			params.Order = order
		default:
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
	}
	return params, nil
}

// paginate returns the requested page of items and sets the total count
// headers
func paginate[T any](
	w http.ResponseWriter,
	items []T,
	params PaginationParams,
) []T {
	total := len(items)
	totalPages := (total + params.Count - 1) / params.Count
	w.Header().Set("X-Pagination-Count-Total", strconv.Itoa(total))
	w.Header().Set("X-Pagination-Page-Total", strconv.Itoa(totalPages))
	if params.Order == PaginationOrderDesc {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := (params.Page - 1) * params.Count
	if start >= total {
		return []T{}
	}
	end := min(start+params.Count, total)
	return items[start:end]
}

// parseEventRange parses the after and limit query parameters of the
// event log endpoint
func parseEventRange(r *http.Request) (uint64, int, error) {
	query := r.URL.Query()
	var after uint64
	if afterParam := query.Get("after"); afterParam != "" {
		tmpAfter, err := strconv.ParseUint(afterParam, 10, 64)
		// No event can follow the largest sequence number
		if err != nil || tmpAfter == math.MaxUint64 {
			return 0, 0, ErrInvalidPaginationParameters
		}
		after = tmpAfter
	}
	limit := DefaultEventLimit
	if limitParam := query.Get("limit"); limitParam != "" {
		tmpLimit, err := strconv.Atoi(limitParam)
		if err != nil {
			return 0, 0, ErrInvalidPaginationParameters
		}
		limit = min(max(tmpLimit, 1), MaxEventLimit)
	}
	return after, limit, nil
}
