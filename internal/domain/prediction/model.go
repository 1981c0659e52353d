// Package prediction runs clinical assessment tasks asynchronously. Requests
// are accepted with 202 and a task id; a fixed worker pool computes the result
// and persists it for polling.
package prediction

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task types.
const (
	TypeComplication   = "COMPLICATION"
	TypeMortality      = "MORTALITY"
	TypeSOD2Assessment = "SOD2_ASSESSMENT"
)

// Task statuses.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Task is one queued assessment.
type Task struct {
	ID             uuid.UUID       `json:"-"`
	TaskID         uuid.UUID       `json:"task_id"`
	PatientID      uuid.UUID       `json:"patient_uuid"`
	Type           string          `json:"task_type"`
	Status         string          `json:"status"`
	InputData      json.RawMessage `json:"input_data,omitempty"`
	Predictions    json.RawMessage `json:"predictions,omitempty"`
	ProcessingTime *float64        `json:"processing_time,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// MortalityInput is the vitals/labs panel for the mortality assessment. The
// field set is fixed: clients populate what they have and zero values mean
// not measured.
type MortalityInput struct {
	PatientUUID          string  `json:"patient_uuid"`
	Gender               string  `json:"gender"`
	Age                  int     `json:"age"`
	HeartRate            float64 `json:"heart_rate"`
	SystolicBP           float64 `json:"systolic_bp"`
	DiastolicBP          float64 `json:"diastolic_bp"`
	Temperature          float64 `json:"temperature"`
	RespiratoryRate      float64 `json:"respiratory_rate"`
	OxygenSaturation     float64 `json:"oxygen_saturation"`
	WBC                  float64 `json:"wbc"`
	Hemoglobin           float64 `json:"hemoglobin"`
	Creatinine           float64 `json:"creatinine"`
	BUN                  float64 `json:"bun"`
	Glucose              float64 `json:"glucose"`
	Sodium               float64 `json:"sodium"`
	Potassium            float64 `json:"potassium"`
	StrokeType           string  `json:"stroke_type"`
	NIHSSScore           *int    `json:"nihss_score"`
	ReperfusionTreatment bool    `json:"reperfusion_treatment"`
	ReperfusionTime      float64 `json:"reperfusion_time"`
}

// SOD2Input drives the antioxidant capacity assessment. Unset fields fall
// back to the assessment defaults.
type SOD2Input struct {
	PatientUUID          string  `json:"patient_uuid"`
	Age                  int     `json:"age"`
	Gender               string  `json:"gender"`
	StrokeType           string  `json:"stroke_type"`
	StrokeDate           string  `json:"stroke_date"`
	NIHSSScore           *int    `json:"nihss_score"`
	ReperfusionTreatment bool    `json:"reperfusion_treatment"`
	ReperfusionTime      float64 `json:"reperfusion_time"`
	HoursAfterStroke     *int    `json:"hours_after_stroke"`
}

// ComplicationInput carries the free-form payload for the complication
// models. The payload is stored with the task; no model consumes it yet.
type ComplicationInput struct {
	PatientUUID string          `json:"patient_uuid"`
	PatientData json.RawMessage `json:"patient_data"`
}
