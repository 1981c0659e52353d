package client

import (
	"encoding/json"
	"time"
)

// Staff is one staff directory entry.
type Staff struct {
	UUID        string `json:"uuid"`
	EmployeeID  string `json:"employee_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
}

// Session is the login response.
type Session struct {
	Token string `json:"token"`
	Staff Staff  `json:"staff"`
}

// RegisterStaffInput is a new account request.
type RegisterStaffInput struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email,omitempty"`
}

// PatientSummary is one entry of a patient listing.
type PatientSummary struct {
	UUID        string `json:"uuid"`
	Display     string `json:"display"`
	Identifiers []struct {
		Identifier string `json:"identifier"`
	} `json:"identifiers"`
	Person struct {
		Display   string `json:"display"`
		Gender    string `json:"gender"`
		BirthDate string `json:"birthdate"`
	} `json:"person"`
}

// PatientList is the patient search/sync response.
type PatientList struct {
	Results         []PatientSummary `json:"results"`
	TotalCount      int              `json:"totalCount"`
	SyncErrorDetail string           `json:"sync_error_detail,omitempty"`
}

// RegisterPatientInput is a new patient registration.
type RegisterPatientInput struct {
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	Gender      string `json:"gender"`
	BirthDate   string `json:"birthdate"`
	Identifier  string `json:"identifier"`
	Address1    string `json:"address1,omitempty"`
	CityVillage string `json:"cityVillage,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// LabResult is one stored lab measurement.
type LabResult struct {
	ID          string    `json:"id"`
	PatientUUID string    `json:"patient_uuid"`
	TestName    string    `json:"test_name"`
	TestValue   float64   `json:"test_value"`
	Unit        string    `json:"unit,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// CreateLabResultInput is a new lab measurement.
type CreateLabResultInput struct {
	PatientUUID string   `json:"patient_uuid"`
	TestName    string   `json:"test_name"`
	TestValue   *float64 `json:"test_value"`
	Unit        string   `json:"unit,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	RecordedAt  string   `json:"recorded_at,omitempty"`
}

// TrendPoint is one point of a lab trend series.
type TrendPoint struct {
	Value      float64   `json:"value"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrendSeries is one test's points, ascending by time.
type TrendSeries struct {
	TestName string       `json:"test_name"`
	Unit     string       `json:"unit,omitempty"`
	Points   []TrendPoint `json:"points"`
}

// StrokeRecord is one stroke assessment record.
type StrokeRecord struct {
	ID                   string     `json:"id"`
	PatientUUID          string     `json:"patient_uuid"`
	StrokeType           string     `json:"stroke_type"`
	NIHSSScore           int        `json:"nihss_score"`
	ReperfusionTreatment bool       `json:"reperfusion_treatment"`
	ReperfusionTime      *float64   `json:"reperfusion_time,omitempty"`
	StrokeDate           *time.Time `json:"stroke_date,omitempty"`
	HoursAfterStroke     *float64   `json:"hours_after_stroke,omitempty"`
	Notes                string     `json:"notes"`
	RecordedAt           time.Time  `json:"recorded_at"`
}

// CreateStrokeRecordInput is a new stroke assessment.
type CreateStrokeRecordInput struct {
	PatientUUID          string   `json:"patient_uuid"`
	StrokeType           string   `json:"stroke_type"`
	NIHSSScore           *int     `json:"nihss_score"`
	ReperfusionTreatment bool     `json:"reperfusion_treatment"`
	ReperfusionTime      *float64 `json:"reperfusion_time,omitempty"`
	StrokeDate           string   `json:"stroke_date,omitempty"`
	HoursAfterStroke     *float64 `json:"hours_after_stroke,omitempty"`
	Notes                string   `json:"notes,omitempty"`
	RecordedAt           string   `json:"recorded_at,omitempty"`
}

// ComplicationRecord is one complication/medication snapshot.
type ComplicationRecord struct {
	ID                       string    `json:"id"`
	PatientUUID              string    `json:"patient_uuid"`
	Sepsis                   bool      `json:"sepsis"`
	RespiratoryFailure       bool      `json:"respiratory_failure"`
	DeepVeinThrombosis       bool      `json:"deep_vein_thrombosis"`
	PulmonaryEmbolism        bool      `json:"pulmonary_embolism"`
	UrinaryTractInfection    bool      `json:"urinary_tract_infection"`
	GastrointestinalBleeding bool      `json:"gastrointestinal_bleeding"`
	AnticoagulantFlag        bool      `json:"anticoagulant_flag"`
	AntiplateletFlag         bool      `json:"antiplatelet_flag"`
	ThrombolyticFlag         bool      `json:"thrombolytic_flag"`
	AntihypertensiveFlag     bool      `json:"antihypertensive_flag"`
	StatinFlag               bool      `json:"statin_flag"`
	AntibioticFlag           bool      `json:"antibiotic_flag"`
	VasopressorFlag          bool      `json:"vasopressor_flag"`
	Notes                    string    `json:"notes"`
	RecordedAt               time.Time `json:"recorded_at"`
}

// CreateComplicationRecordInput mirrors ComplicationRecord for submission.
type CreateComplicationRecordInput struct {
	PatientUUID              string `json:"patient_uuid"`
	Sepsis                   bool   `json:"sepsis"`
	RespiratoryFailure       bool   `json:"respiratory_failure"`
	DeepVeinThrombosis       bool   `json:"deep_vein_thrombosis"`
	PulmonaryEmbolism        bool   `json:"pulmonary_embolism"`
	UrinaryTractInfection    bool   `json:"urinary_tract_infection"`
	GastrointestinalBleeding bool   `json:"gastrointestinal_bleeding"`
	AnticoagulantFlag        bool   `json:"anticoagulant_flag"`
	AntiplateletFlag         bool   `json:"antiplatelet_flag"`
	ThrombolyticFlag         bool   `json:"thrombolytic_flag"`
	AntihypertensiveFlag     bool   `json:"antihypertensive_flag"`
	StatinFlag               bool   `json:"statin_flag"`
	AntibioticFlag           bool   `json:"antibiotic_flag"`
	VasopressorFlag          bool   `json:"vasopressor_flag"`
	Notes                    string `json:"notes,omitempty"`
	RecordedAt               string `json:"recorded_at,omitempty"`
}

// ChatMessage is one direct message.
type ChatMessage struct {
	ID              string    `json:"id"`
	SenderUUID      string    `json:"sender_uuid"`
	ReceiverUUID    string    `json:"receiver_uuid"`
	SenderDisplay   string    `json:"sender_display"`
	ReceiverDisplay string    `json:"receiver_display"`
	Content         string    `json:"content"`
	IsRead          bool      `json:"is_read"`
	SentAt          time.Time `json:"sent_at"`
}

// Series is one imaging series.
type Series struct {
	Description   string `json:"description"`
	InstanceCount int    `json:"instance_count"`
}

// Study is one imaging study with its series.
type Study struct {
	StudyInstanceUID string   `json:"study_instance_uid"`
	StudyDate        string   `json:"study_date"`
	StudyDescription string   `json:"study_description"`
	Series           []Series `json:"series"`
}

// UploadResult is the PACS answer to an instance upload.
type UploadResult struct {
	ID           string `json:"ID"`
	ParentStudy  string `json:"ParentStudy"`
	ParentSeries string `json:"ParentSeries"`
	Status       string `json:"Status"`
}

// PredictionTask is one queued assessment.
type PredictionTask struct {
	TaskID         string          `json:"task_id"`
	PatientUUID    string          `json:"patient_uuid"`
	Type           string          `json:"task_type"`
	Status         string          `json:"status"`
	InputData      json.RawMessage `json:"input_data,omitempty"`
	Predictions    json.RawMessage `json:"predictions,omitempty"`
	ProcessingTime *float64        `json:"processing_time,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}
