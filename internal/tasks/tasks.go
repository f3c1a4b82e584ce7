package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Satellite monitoring tasks
	TypeNDVISnapshot    = "field:ndvi_snapshot"
	TypeWeatherSnapshot = "field:weather_snapshot"
)

// FieldTaskPayload is the common payload for field monitoring tasks
type FieldTaskPayload struct {
	FieldID string `json:"field_id"`
}

// NewNDVISnapshotTask creates a task to fetch and store NDVI stats for a field
func NewNDVISnapshotTask(fieldID string) (*asynq.Task, error) {
	payload, err := json.Marshal(FieldTaskPayload{FieldID: fieldID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeNDVISnapshot, payload), nil
}

// NewWeatherSnapshotTask creates a task to log current weather for a field
func NewWeatherSnapshotTask(fieldID string) (*asynq.Task, error) {
	payload, err := json.Marshal(FieldTaskPayload{FieldID: fieldID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeWeatherSnapshot, payload), nil
}

// ParseFieldTaskPayload parses task payload from an Asynq task
func ParseFieldTaskPayload(task *asynq.Task) (FieldTaskPayload, error) {
	var payload FieldTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
