// Package complications keeps the append-only complication and medication
// status history per patient. Each record is a full snapshot of thirteen
// boolean flags; blank notes are synthesized as a diff against the previous
// snapshot so the timeline reads as events, not states.
package complications

import (
	"time"

	"github.com/google/uuid"
)

type Record struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_uuid"`

	Sepsis                   bool `json:"sepsis"`
	RespiratoryFailure       bool `json:"respiratory_failure"`
	DeepVeinThrombosis       bool `json:"deep_vein_thrombosis"`
	PulmonaryEmbolism        bool `json:"pulmonary_embolism"`
	UrinaryTractInfection    bool `json:"urinary_tract_infection"`
	GastrointestinalBleeding bool `json:"gastrointestinal_bleeding"`

	AnticoagulantFlag    bool `json:"anticoagulant_flag"`
	AntiplateletFlag     bool `json:"antiplatelet_flag"`
	ThrombolyticFlag     bool `json:"thrombolytic_flag"`
	AntihypertensiveFlag bool `json:"antihypertensive_flag"`
	StatinFlag           bool `json:"statin_flag"`
	AntibioticFlag       bool `json:"antibiotic_flag"`
	VasopressorFlag      bool `json:"vasopressor_flag"`

	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateInput struct {
	PatientUUID string `json:"patient_uuid"`

	Sepsis                   bool `json:"sepsis"`
	RespiratoryFailure       bool `json:"respiratory_failure"`
	DeepVeinThrombosis       bool `json:"deep_vein_thrombosis"`
	PulmonaryEmbolism        bool `json:"pulmonary_embolism"`
	UrinaryTractInfection    bool `json:"urinary_tract_infection"`
	GastrointestinalBleeding bool `json:"gastrointestinal_bleeding"`

	AnticoagulantFlag    bool `json:"anticoagulant_flag"`
	AntiplateletFlag     bool `json:"antiplatelet_flag"`
	ThrombolyticFlag     bool `json:"thrombolytic_flag"`
	AntihypertensiveFlag bool `json:"antihypertensive_flag"`
	StatinFlag           bool `json:"statin_flag"`
	AntibioticFlag       bool `json:"antibiotic_flag"`
	VasopressorFlag      bool `json:"vasopressor_flag"`

	Notes      string `json:"notes"`
	RecordedAt string `json:"recorded_at"`
}

// History sort modes.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// flag pairs a display label with an accessor, in the fixed order note
// synthesis walks: complications first, then medications.
type flag struct {
	label      string
	medication bool
	value      func(*Record) bool
}

var flags = []flag{
	{"Sepsis", false, func(r *Record) bool { return r.Sepsis }},
	{"Respiratory failure", false, func(r *Record) bool { return r.RespiratoryFailure }},
	{"Deep vein thrombosis", false, func(r *Record) bool { return r.DeepVeinThrombosis }},
	{"Pulmonary embolism", false, func(r *Record) bool { return r.PulmonaryEmbolism }},
	{"Urinary tract infection", false, func(r *Record) bool { return r.UrinaryTractInfection }},
	{"Gastrointestinal bleeding", false, func(r *Record) bool { return r.GastrointestinalBleeding }},
	{"Anticoagulant", true, func(r *Record) bool { return r.AnticoagulantFlag }},
	{"Antiplatelet", true, func(r *Record) bool { return r.AntiplateletFlag }},
	{"Thrombolytic", true, func(r *Record) bool { return r.ThrombolyticFlag }},
	{"Antihypertensive", true, func(r *Record) bool { return r.AntihypertensiveFlag }},
	{"Statin", true, func(r *Record) bool { return r.StatinFlag }},
	{"Antibiotic", true, func(r *Record) bool { return r.AntibioticFlag }},
	{"Vasopressor", true, func(r *Record) bool { return r.VasopressorFlag }},
}
