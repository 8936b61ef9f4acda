package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/ampara/clinic/internal/platform/apperr"
)

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) && apperr.KindOf(err) == apperr.KindInternal {
		return he.Code
	}
	return apperr.Status(apperr.KindOf(err))
}
