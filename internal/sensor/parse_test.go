package sensor

import (
	"testing"
	"time"
)

func TestParseEnvelope(t *testing.T) {
	payload := []byte(`{
		"sensor_data": [
			{"location": "Building A - Floor 3", "temperature": 25, "smoke_level": 15, "timestamp": "2025-01-11T10:30:00Z"},
			{"location": "Building B - Basement", "temperature": 45, "smoke_level": 55, "timestamp": "2025-01-11T10:31:00Z"}
		]
	}`)

	readings, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if readings[0].Location != "Building A - Floor 3" {
		t.Errorf("unexpected location: %s", readings[0].Location)
	}
	if readings[1].Temperature != 45 || readings[1].SmokeLevel != 55 {
		t.Errorf("unexpected reading values: %+v", readings[1])
	}
}

func TestParseBareArray(t *testing.T) {
	payload := []byte(`[{"location": "Server Room", "temperature": 75, "smoke_level": 85, "timestamp": "2025-01-11T10:32:00Z"}]`)

	readings, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	if readings[0].Temperature != 75 {
		t.Errorf("unexpected temperature: %v", readings[0].Temperature)
	}
}

func TestParseSingleReading(t *testing.T) {
	payload := []byte(`{"location": "Test Room", "temperature": 30, "smoke_level": 20, "timestamp": "2025-01-11T12:00:00Z"}`)

	readings, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(readings) != 1 || readings[0].Location != "Test Room" {
		t.Errorf("unexpected readings: %+v", readings)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse([]byte(`"just a string"`)); err == nil {
		t.Error("expected error for non-sensor payload")
	}
}

func TestReadingTime(t *testing.T) {
	fallback := time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		timestamp string
		want      time.Time
	}{
		{"rfc3339 with zone", "2025-01-11T10:30:00Z", time.Date(2025, 1, 11, 10, 30, 0, 0, time.UTC)},
		{"no zone", "2025-01-11T10:30:00", time.Date(2025, 1, 11, 10, 30, 0, 0, time.UTC)},
		{"empty", "", fallback},
		{"garbage", "not-a-time", fallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Reading{Timestamp: tc.timestamp}
			if got := r.Time(fallback); !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
