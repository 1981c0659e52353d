// Package stroke keeps the append-only stroke record history per patient.
// Records carry the NIHSS score and reperfusion details the assessment
// endpoints consume, and blank notes are synthesized from the history so the
// timeline stays readable without forcing clinicians to write one.
package stroke

import (
	"time"

	"github.com/google/uuid"
)

// Stroke types.
const (
	TypeIschemicReperfusion   = "ischemic_reperfusion"
	TypeIschemicNoReperfusion = "ischemic_no_reperfusion"
	TypeHemorrhagic           = "hemorrhagic"
)

// NIHSS score bounds.
const (
	NIHSSMin = 0
	NIHSSMax = 42
)

// ValidType reports whether t is a known stroke type.
func ValidType(t string) bool {
	switch t {
	case TypeIschemicReperfusion, TypeIschemicNoReperfusion, TypeHemorrhagic:
		return true
	}
	return false
}

type Record struct {
	ID                   uuid.UUID  `json:"id"`
	PatientID            uuid.UUID  `json:"patient_uuid"`
	StrokeType           string     `json:"stroke_type"`
	NIHSSScore           int        `json:"nihss_score"`
	ReperfusionTreatment bool       `json:"reperfusion_treatment"`
	ReperfusionTime      *float64   `json:"reperfusion_time,omitempty"`
	StrokeDate           *time.Time `json:"stroke_date,omitempty"`
	HoursAfterStroke     *float64   `json:"hours_after_stroke,omitempty"`
	Notes                string     `json:"notes"`
	RecordedAt           time.Time  `json:"recorded_at"`
	CreatedAt            time.Time  `json:"created_at"`
}

type CreateInput struct {
	PatientUUID          string   `json:"patient_uuid"`
	StrokeType           string   `json:"stroke_type"`
	NIHSSScore           *int     `json:"nihss_score"`
	ReperfusionTreatment bool     `json:"reperfusion_treatment"`
	ReperfusionTime      *float64 `json:"reperfusion_time"`
	StrokeDate           string   `json:"stroke_date"`
	HoursAfterStroke     *float64 `json:"hours_after_stroke"`
	Notes                string   `json:"notes"`
	RecordedAt           string   `json:"recorded_at"`
}

// History sort modes.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortNIHSSHigh = "nihss_high"
)
