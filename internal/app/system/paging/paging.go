// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// MaxPageSize caps a client-supplied "size".
const MaxPageSize = 200

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Parse extracts "page" and "size" from the query string. Missing or
// invalid values fall back to page 1 and PageSize.
func Parse(r *http.Request) Page {
	p := Page{Number: 1, Size: PageSize}
	if n, err := strconv.Atoi(query.Get(r, "page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(query.Get(r, "size")); err == nil && n > 0 {
		p.Size = min(n, MaxPageSize)
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int64 { return int64(p.Number-1) * int64(p.Size) }

// Limit is the number of rows to fetch.
func (p Page) Limit() int64 { return int64(p.Size) }

// Range holds computed display values for a paginated list.
type Range struct {
	Start   int  `json:"start"` // 1-based index of the first row (0 if no results)
	End     int  `json:"end"`   // 1-based index of the last row (0 if no results)
	HasPrev bool `json:"hasPrev"`
	HasNext bool `json:"hasNext"`
}

// ComputeRange calculates the display range for a page showing shown rows
// out of total.
func (p Page) ComputeRange(shown int, total int64) Range {
	if shown == 0 {
		return Range{HasPrev: p.Number > 1}
	}
	start := int(p.Offset()) + 1
	end := start + shown - 1
	return Range{
		Start:   start,
		End:     end,
		HasPrev: p.Number > 1,
		HasNext: int64(end) < total,
	}
}
