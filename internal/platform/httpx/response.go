// Package httpx holds the JSON envelope written by every handler and the
// problem payload used for errors.
package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ampara/clinic/pkg/pagination"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
	Offset  *int   `json:"offset,omitempty"`
	HasMore *bool  `json:"hasMore,omitempty"`
}

func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func OKMessage(c echo.Context, data any, msg string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Message: msg})
}

func Created(c echo.Context, data any, msg string) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data, Message: msg})
}

func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg})
}

// List writes a page of items. The total always reflects the unpaginated
// count; limit, offset and hasMore are set only when the caller paginated.
func List[T any](c echo.Context, items []T, p pagination.Params) error {
	total := len(items)
	page := pagination.Slice(items, p)
	if page == nil {
		page = []T{}
	}
	env := Envelope{Success: true, Data: page, Total: &total}
	if p.Enabled() {
		limit, offset := p.Limit, p.Offset
		more := p.HasNext(total)
		env.Limit, env.Offset, env.HasMore = &limit, &offset, &more
	}
	return c.JSON(http.StatusOK, env)
}
