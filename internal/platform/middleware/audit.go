package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ampara/clinic/internal/platform/auth"
)

// AuditEntry records who changed patient data, when, and with what outcome.
type AuditEntry struct {
	UserID     string
	Role       string
	Resource   string
	ResourceID string
	Action     string // create, update, delete
	IPAddress  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. Without one, entries are only logged.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// auditedResources are the /api/<resource> groups that hold patient data.
var auditedResources = map[string]bool{
	"patient":       true,
	"appointment":   true,
	"evolution":     true,
	"medicalreport": true,
}

// Audit logs every mutating request on patient-data routes after the handler
// has run.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			resource, resourceID := splitResource(req.URL.Path)
			action := methodToAction(req.Method)

			if !auditedResources[resource] || action == "" {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = statusOf(err)
			}
			id, _ := auth.IdentityFromContext(req.Context())
			rid, _ := c.Get("request_id").(string)

			entry := AuditEntry{
				UserID:     id.UserID,
				Role:       id.Role,
				Resource:   resource,
				ResourceID: resourceID,
				Action:     action,
				IPAddress:  c.RealIP(),
				Path:       req.URL.Path,
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				RequestID:  rid,
				StatusCode: status,
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("patient_data_change")

			return err
		}
	}
}

// methodToAction returns "" for read-only methods.
func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return ""
	}
}

// splitResource parses /api/<resource>/<id>/... into its resource and the
// following segment.
//
//	/api/patient          -> patient, ""
//	/api/patient/123      -> patient, 123
//	/api/appointment/9/cancel -> appointment, 9
func splitResource(path string) (string, string) {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return "", ""
	}
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	resource := segments[0]
	if len(segments) > 1 {
		return resource, segments[1]
	}
	return resource, ""
}
