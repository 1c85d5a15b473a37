package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses a duration string and falls back to defaultValue when empty.
func DurationOrDefault(value string, defaultValue string) (time.Duration, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = strings.TrimSpace(defaultValue)
	}
	if candidate == "" {
		return 0, fmt.Errorf("duration value is empty")
	}

	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", candidate)
	}
	return d, nil
}

// OffsetOrDefault parses a fixed UTC offset such as "+05:30" or "-08:00" into
// a time.Location named after the offset.
func OffsetOrDefault(value string, defaultValue string) (*time.Location, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = strings.TrimSpace(defaultValue)
	}
	if candidate == "" {
		return nil, fmt.Errorf("offset value is empty")
	}

	ref, err := time.Parse("-07:00", candidate)
	if err != nil {
		return nil, fmt.Errorf("parse offset %q: %w", candidate, err)
	}
	_, seconds := ref.Zone()
	return time.FixedZone("UTC"+candidate, seconds), nil
}
