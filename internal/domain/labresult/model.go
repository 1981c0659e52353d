// Package labresult stores laboratory measurements per patient and serves
// them both as flat lists and as per-test trend series.
package labresult

import (
	"time"

	"github.com/google/uuid"
)

type LabResult struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_uuid"`
	TestName   string    `json:"test_name"`
	TestValue  float64   `json:"test_value"`
	Unit       string    `json:"unit,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateInput is a new measurement. TestValue is a pointer so a missing value
// is distinguishable from an explicit zero.
type CreateInput struct {
	PatientUUID string   `json:"patient_uuid"`
	TestName    string   `json:"test_name"`
	TestValue   *float64 `json:"test_value"`
	Unit        string   `json:"unit"`
	Notes       string   `json:"notes"`
	RecordedAt  string   `json:"recorded_at"`
}

// TrendPoint is one measurement within a series.
type TrendPoint struct {
	Value      float64   `json:"value"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrendSeries is the chart-ready history of one test: points ascending by
// time, unit fixed by the earliest record.
type TrendSeries struct {
	TestName string       `json:"test_name"`
	Unit     string       `json:"unit,omitempty"`
	Points   []TrendPoint `json:"points"`
}

// knownTests maps catalog test names to their default units. Free-text test
// names outside the catalog are accepted; they just get no unit autofill.
var knownTests = map[string]string{
	"BUN_chart_mean":        "mg/dL",
	"CK_lab_mean":           "U/L",
	"CRP_chart_mean":        "mg/L",
	"CRP_lab_mean":          "mg/L",
	"Creatinine_chart_mean": "mg/dL",
	"Creatinine_lab_mean":   "mg/dL",
	"DBP_art_mean":          "mmHg",
	"GCS_mean":              "score",
	"NIBP_dias_mean":        "mmHg",
}

// UnitForTest returns the catalog unit for a known test name.
func UnitForTest(testName string) (string, bool) {
	unit, ok := knownTests[testName]
	return unit, ok
}
