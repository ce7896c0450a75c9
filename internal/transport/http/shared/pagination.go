package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset, ignoring malformed values and
// clamping limit to maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	page := Pagination{
		Limit:  queryInt(q.Get("limit"), defaultLimit, 1),
		Offset: queryInt(q.Get("offset"), 0, 0),
	}
	if maxLimit > 0 {
		page.Limit = min(page.Limit, maxLimit)
	}
	return page
}

func queryInt(raw string, fallback, floor int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < floor {
		return fallback
	}
	return v
}
