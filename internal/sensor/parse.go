package sensor

import (
	"encoding/json"
	"fmt"
)

// Parse decodes a sensor payload. Both accepted wire forms are handled:
// an envelope {"sensor_data": [...]} and a bare reading array. A single
// reading object is also accepted for convenience.
func Parse(data []byte) ([]Reading, error) {
	var envelope struct {
		SensorData []Reading `json:"sensor_data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.SensorData != nil {
		return envelope.SensorData, nil
	}

	var readings []Reading
	if err := json.Unmarshal(data, &readings); err == nil {
		return readings, nil
	}

	var single Reading
	if err := json.Unmarshal(data, &single); err == nil && single.Location != "" {
		return []Reading{single}, nil
	}

	return nil, fmt.Errorf("payload is neither a sensor_data envelope nor a reading array")
}
