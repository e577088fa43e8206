package sensor

import "time"

// Reading is a single sensor measurement from one location.
type Reading struct {
	Location    string  `json:"location" yaml:"location"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	SmokeLevel  float64 `json:"smoke_level" yaml:"smoke_level"`
	Timestamp   string  `json:"timestamp" yaml:"timestamp"`
}

// Time parses the reading's timestamp. Readings arrive with RFC3339
// timestamps, with or without the trailing Z; anything unparseable
// falls back to the given detection time.
func (r Reading) Time(fallback time.Time) time.Time {
	if r.Timestamp == "" {
		return fallback
	}
	if ts, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", r.Timestamp); err == nil {
		return ts
	}
	return fallback
}
