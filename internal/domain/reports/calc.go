package reports

import (
	"math"
	"strings"
	"time"
)

const notInformed = "Não informado"

// Age returns completed years between birth and now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// BMI is weight (kg) over height (m) squared; nil when either is missing or
// height is zero.
func BMI(weight, height *float64) *float64 {
	if weight == nil || height == nil || *height == 0 {
		return nil
	}
	v := *weight / (*height * *height)
	return &v
}

func ageGroup(age int) string {
	switch {
	case age < 18:
		return "0-17"
	case age < 30:
		return "18-29"
	case age < 40:
		return "30-39"
	case age < 50:
		return "40-49"
	case age < 60:
		return "50-59"
	case age < 70:
		return "60-69"
	default:
		return "70+"
	}
}

// splitList splits a comma separated free-text field.
func splitList(s string) []string {
	out := []string{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
