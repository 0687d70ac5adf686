package utils

import "strconv"

// PaginationParams carries the parsed limit / offset query parameters.
type PaginationParams struct {
	Limit  int
	Offset int
}

// GetPaginationParams parses limit and offset strings, falling back to
// defaultLimit and clamping limit to 500.
func GetPaginationParams(limitStr, offsetStr string, defaultLimit int) PaginationParams {
	params := PaginationParams{Limit: defaultLimit}

	if limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			params.Limit = v
		}
	}
	if params.Limit > 500 {
		params.Limit = 500
	}
	if offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
			params.Offset = v
		}
	}
	return params
}
