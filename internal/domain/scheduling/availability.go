package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/ampara/clinic/internal/platform/apperr"
)

// clock is a wall-clock time in minutes since midnight.
type clock int

func parseClock(s string) (clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return clock(t.Hour()*60 + t.Minute()), nil
}

func parseRange(start, end string) (clock, clock, error) {
	s, err := parseClock(start)
	if err != nil {
		return 0, 0, apperr.Validation("startTime must be HH:mm")
	}
	e, err := parseClock(end)
	if err != nil {
		return 0, 0, apperr.Validation("endTime must be HH:mm")
	}
	if e <= s {
		return 0, 0, apperr.Validation("endTime must be after startTime")
	}
	return s, e, nil
}

// CheckAvailability reports whether the professional has no other
// non-cancelled appointment on date overlapping [startTime, endTime).
// excludeID, when set, skips that appointment.
func (s *Service) CheckAvailability(ctx context.Context, professionalID string, date time.Time, startTime, endTime, excludeID string) (bool, error) {
	candStart, candEnd, err := parseRange(startTime, endTime)
	if err != nil {
		return false, err
	}

	existing, err := s.appointments.ListByProfessional(ctx, professionalID)
	if err != nil {
		return false, err
	}
	for _, a := range existing {
		if a.Status == StatusCancelled || a.ID == excludeID || !a.sameDay(date) {
			continue
		}
		start, err := parseClock(a.StartTime)
		if err != nil {
			return false, apperr.Internal(err, "stored appointment has invalid startTime")
		}
		end, err := parseClock(a.EndTime)
		if err != nil {
			return false, apperr.Internal(err, "stored appointment has invalid endTime")
		}
		if candStart < end && candEnd > start {
			return false, nil
		}
	}
	return true, nil
}
