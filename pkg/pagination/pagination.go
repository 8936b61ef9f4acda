package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 100

// Params holds pagination parameters extracted from a request. A zero Limit
// means the caller did not paginate and the full result is returned.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit/offset (or page/pageSize) from the query string.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(c.QueryParam("pageSize"))
	}
	if limit <= 0 {
		return Params{}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset <= 0 {
		if page, _ := strconv.Atoi(c.QueryParam("page")); page > 1 {
			offset = (page - 1) * limit
		}
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Enabled reports whether the request asked for a page.
func (p Params) Enabled() bool {
	return p.Limit > 0
}

// Slice returns the page of items selected by p. Without a limit the whole
// slice is returned.
func Slice[T any](items []T, p Params) []T {
	if !p.Enabled() {
		return items
	}
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Enabled() && p.Offset+p.Limit < total
}
