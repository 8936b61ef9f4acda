package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ampara/clinic/internal/platform/apperr"
)

const MIMEProblemJSON = "application/problem+json"

// Problem is the error body returned for every failed request.
type Problem struct {
	Success  bool   `json:"success"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance"`
}

var titles = map[apperr.Kind]string{
	apperr.KindValidation:   "Invalid request",
	apperr.KindNotFound:     "Resource not found",
	apperr.KindConflict:     "Conflict with current state",
	apperr.KindUnauthorized: "Authentication required",
	apperr.KindForbidden:    "Permission denied",
	apperr.KindInternal:     "Internal server error",
}

// ProblemFor converts any handler error into a Problem.
func ProblemFor(err error, instance string) Problem {
	var he *echo.HTTPError
	if errors.As(err, &he) && apperr.KindOf(err) == apperr.KindInternal {
		detail := fmt.Sprint(he.Message)
		if he.Code >= http.StatusInternalServerError {
			detail = "internal server error"
		}
		return Problem{
			Type:     strings.ReplaceAll(http.StatusText(he.Code), " ", ""),
			Title:    http.StatusText(he.Code),
			Status:   he.Code,
			Detail:   detail,
			Instance: instance,
		}
	}

	kind := apperr.KindOf(err)
	return Problem{
		Type:     kind.String(),
		Title:    titles[kind],
		Status:   apperr.Status(kind),
		Detail:   apperr.Message(err),
		Instance: instance,
	}
}

// ErrorHandler renders errors as problem payloads and logs server faults.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		p := ProblemFor(err, c.Request().URL.Path)

		if p.Status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(p.Status)
			return
		}
		body, mErr := json.Marshal(p)
		if mErr != nil {
			_ = c.NoContent(p.Status)
			return
		}
		_ = c.Blob(p.Status, MIMEProblemJSON, body)
	}
}
