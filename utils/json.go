package utils

import (
	"encoding/json"
)

// Marshal generic struct to JSON
func MarshalToJSON[T any](input T) (string, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// Unmarshal JSON to generic struct
func UnmarshalFromJSON[T any](data []byte, output *T) error {
	return json.Unmarshal(data, output)
}

// MarshalOrNull marshals for activity-log snapshots; failures become null so
// audit writes never block the owning transaction.
func MarshalOrNull(input any) []byte {
	if input == nil {
		return []byte("null")
	}
	jsonData, err := json.Marshal(input)
	if err != nil {
		return []byte("null")
	}
	return jsonData
}
