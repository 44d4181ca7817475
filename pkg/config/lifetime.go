package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseLifetime parses a token lifetime. It accepts Go duration syntax
// ("720h", "15m") and unit phrases of the form "<n> <unit>" with units
// days, hours, minutes, or seconds ("30 days", "1 hour").
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty lifetime")
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("lifetime must be positive, got %q", s)
		}
		return d, nil
	}

	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid lifetime %q", s)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid lifetime %q", s)
	}

	var unit time.Duration
	switch strings.TrimSuffix(strings.ToLower(fields[1]), "s") {
	case "day":
		unit = 24 * time.Hour
	case "hour":
		unit = time.Hour
	case "minute", "min":
		unit = time.Minute
	case "second", "sec":
		unit = time.Second
	default:
		return 0, fmt.Errorf("invalid lifetime unit %q", fields[1])
	}

	return time.Duration(n) * unit, nil
}
