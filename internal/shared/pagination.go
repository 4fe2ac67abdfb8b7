// Package shared holds helpers used by more than one domain package.
package shared

import (
	"net/url"
	"strconv"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"totalCount"`
}

// ParseLimitOffset reads limit/offset query parameters, applying the API
// defaults and capping the page size.
func ParseLimitOffset(q url.Values) (limit, offset int) {
	limit = defaultLimit
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}
