package prediction

import (
	"math"
	"time"

	"github.com/medcdss/cdss/internal/domain/stroke"
)

// SOD2 assessment defaults applied when the input leaves a field unset.
const (
	defaultSOD2Age              = 65
	defaultSOD2NIHSS            = 8
	defaultSOD2ReperfusionHours = 2.5
	defaultSOD2HoursAfterStroke = 96
	defaultSOD2CurrentLevel     = 0.75
)

// sod2BasePoint is one point of the recovery reference curve: SOD2 activity
// relative to baseline over the week after stroke onset.
type sod2BasePoint struct {
	Hour       int
	Predicted  float64
	Confidence float64
}

var sod2BaseCurve = []sod2BasePoint{
	{0, 1.0, 0.95},
	{3, 0.75, 0.90},
	{6, 0.6, 0.85},
	{12, 0.7, 0.88},
	{24, 0.8, 0.90},
	{48, 0.9, 0.92},
	{72, 0.95, 0.94},
	{96, 0.98, 0.95},
	{120, 1.0, 0.96},
	{144, 1.0, 0.97},
	{168, 1.0, 0.98},
}

// sod2Point is one adjusted prediction point.
type sod2Point struct {
	Time       int      `json:"time"`
	Predicted  float64  `json:"predicted"`
	Confidence float64  `json:"confidence"`
	RiskLevel  string   `json:"risk_level"`
	Actual     *float64 `json:"actual,omitempty"`
}

type sod2ExerciseRec struct {
	CanStart              bool     `json:"can_start"`
	Intensity             int      `json:"intensity"`
	TimeUntilStart        int      `json:"time_until_start"`
	SOD2Target            float64  `json:"sod2_target"`
	RecommendedActivities []string `json:"recommended_activities"`
	MonitoringSchedule    string   `json:"monitoring_schedule"`
}

type sod2PatientInfo struct {
	Age                  int     `json:"age"`
	Gender               string  `json:"gender"`
	StrokeType           string  `json:"stroke_type"`
	NIHSSScore           int     `json:"nihss_score"`
	ReperfusionTreatment bool    `json:"reperfusion_treatment"`
	ReperfusionTime      float64 `json:"reperfusion_time"`
	HoursAfterStroke     int     `json:"hours_after_stroke"`
}

type sod2Status struct {
	CurrentLevel         float64 `json:"current_level"`
	OxidativeStressRisk  string  `json:"oxidative_stress_risk"`
	PredictionConfidence float64 `json:"prediction_confidence"`
	OverallStatus        string  `json:"overall_status"`
}

type sod2Factors struct {
	AgeAdjustment         float64 `json:"age_adjustment"`
	StrokeTypeAdjustment  float64 `json:"stroke_type_adjustment"`
	NIHSSAdjustment       float64 `json:"nihss_adjustment"`
	ReperfusionAdjustment float64 `json:"reperfusion_timing_adjustment"`
}

// SOD2Result is the full assessment payload stored in the task.
type SOD2Result struct {
	PatientInfo             sod2PatientInfo `json:"patient_info"`
	Status                  sod2Status      `json:"sod2_status"`
	PredictionData          []sod2Point     `json:"sod2_prediction_data"`
	ExerciseRecommendations sod2ExerciseRec `json:"exercise_recommendations"`
	ClinicalRecommendations []string        `json:"clinical_recommendations"`
	PersonalizationFactors  sod2Factors     `json:"personalization_factors"`
}

func sod2RiskLevel(level float64) string {
	switch {
	case level < 0.7:
		return "high"
	case level < 0.85:
		return "medium"
	default:
		return "low"
	}
}

func sod2OverallStatus(level float64) string {
	switch {
	case level >= 0.95:
		return "excellent"
	case level >= 0.85:
		return "good"
	case level >= 0.7:
		return "fair"
	case level >= 0.5:
		return "caution"
	default:
		return "critical"
	}
}

// exerciseBaseline returns the earliest exercise start hour and the SOD2
// level considered safe for that stroke type.
func exerciseBaseline(strokeType string) (startHour int, safeLevel float64) {
	switch strokeType {
	case stroke.TypeIschemicNoReperfusion:
		return 96, 0.85
	case stroke.TypeHemorrhagic:
		return 120, 0.8
	default:
		return 72, 0.85
	}
}

func exerciseActivities(intensity int, canStart bool) []string {
	if !canStart {
		return []string{"Bed rest", "Passive range-of-motion exercises", "Breathing exercises"}
	}
	switch {
	case intensity < 30:
		return []string{"In-bed joint exercises", "Breathing exercises", "Light stretching"}
	case intensity < 60:
		return []string{"Seated exercises", "Short assisted walks", "Low-intensity rehabilitation"}
	case intensity < 80:
		return []string{"Gait training", "Balance exercises", "Moderate-intensity rehabilitation"}
	default:
		return []string{"Independent walking", "Stair climbing", "Activities of daily living training"}
	}
}

func sod2ClinicalRecommendations(level float64, strokeType string) []string {
	var recs []string
	switch {
	case level < 0.7:
		recs = []string{
			"Consider antioxidant therapy",
			"Intensify oxidative stress monitoring",
			"Restrict exercise and maintain bed rest",
		}
	case level < 0.85:
		recs = []string{
			"Increase activity gradually",
			"Recommend antioxidant-rich diet",
			"Check SOD2 level regularly",
		}
	default:
		recs = []string{
			"Staged rehabilitation exercise can begin",
			"Prepare return to normal daily activity",
			"Continue preventive antioxidant management",
		}
	}
	if strokeType == stroke.TypeHemorrhagic {
		recs = append(recs, "Conservative progression required after hemorrhagic stroke")
	}
	return recs
}

// assessSOD2 computes the full antioxidant assessment from the reference
// curve and the per-patient adjustment factors. The result is deterministic.
func assessSOD2(in SOD2Input, now time.Time) SOD2Result {
	age := in.Age
	if age == 0 {
		age = defaultSOD2Age
	}
	strokeType := in.StrokeType
	if !stroke.ValidType(strokeType) {
		strokeType = stroke.TypeIschemicReperfusion
	}
	nihss := defaultSOD2NIHSS
	if in.NIHSSScore != nil {
		nihss = *in.NIHSSScore
	}
	reperfusionTime := in.ReperfusionTime
	if reperfusionTime == 0 {
		reperfusionTime = defaultSOD2ReperfusionHours
	}

	hoursAfterStroke := defaultSOD2HoursAfterStroke
	if in.StrokeDate != "" {
		if d, err := time.Parse("2006-01-02", in.StrokeDate); err == nil {
			hoursAfterStroke = int(now.Sub(d).Hours()/24) * 24
		}
	} else if in.HoursAfterStroke != nil {
		hoursAfterStroke = *in.HoursAfterStroke
	}

	factors := sod2Factors{
		AgeAdjustment:         1.0,
		StrokeTypeAdjustment:  1.0,
		NIHSSAdjustment:       1.0,
		ReperfusionAdjustment: 0.95,
	}
	if age > 70 {
		factors.AgeAdjustment = 0.9
	} else if age < 50 {
		factors.AgeAdjustment = 1.1
	}
	switch strokeType {
	case stroke.TypeHemorrhagic:
		factors.StrokeTypeAdjustment = 0.8
	case stroke.TypeIschemicNoReperfusion:
		factors.StrokeTypeAdjustment = 0.9
	}
	if nihss > 15 {
		factors.NIHSSAdjustment = 0.85
	} else if nihss < 5 {
		factors.NIHSSAdjustment = 1.1
	}
	if reperfusionTime <= 3 {
		factors.ReperfusionAdjustment = 1.1
	} else if reperfusionTime <= 4.5 {
		factors.ReperfusionAdjustment = 1.05
	}

	total := factors.AgeAdjustment * factors.StrokeTypeAdjustment *
		factors.NIHSSAdjustment * factors.ReperfusionAdjustment

	currentLevel := defaultSOD2CurrentLevel
	points := make([]sod2Point, 0, len(sod2BaseCurve))
	for _, base := range sod2BaseCurve {
		adjusted := math.Min(1.0, base.Predicted*total)
		point := sod2Point{
			Time:       base.Hour,
			Predicted:  adjusted,
			Confidence: base.Confidence,
			RiskLevel:  sod2RiskLevel(adjusted),
		}
		if base.Hour == hoursAfterStroke {
			currentLevel = adjusted
			point.Actual = &adjusted
		}
		points = append(points, point)
	}

	startHour, safeLevel := exerciseBaseline(strokeType)
	canStart := hoursAfterStroke >= startHour && currentLevel >= safeLevel
	intensity := 0
	if canStart {
		intensity = int(math.Round(math.Min(100, (currentLevel-safeLevel)/(1-safeLevel)*100)))
	}
	timeUntilStart := startHour - hoursAfterStroke
	if timeUntilStart < 0 {
		timeUntilStart = 0
	}
	monitoring := "Reassess in 24 hours"
	if canStart {
		monitoring = "Check SOD2 level daily"
	}

	return SOD2Result{
		PatientInfo: sod2PatientInfo{
			Age:                  age,
			Gender:               in.Gender,
			StrokeType:           strokeType,
			NIHSSScore:           nihss,
			ReperfusionTreatment: in.ReperfusionTreatment,
			ReperfusionTime:      reperfusionTime,
			HoursAfterStroke:     hoursAfterStroke,
		},
		Status: sod2Status{
			CurrentLevel:         currentLevel,
			OxidativeStressRisk:  sod2RiskLevel(currentLevel),
			PredictionConfidence: 0.95,
			OverallStatus:        sod2OverallStatus(currentLevel),
		},
		PredictionData: points,
		ExerciseRecommendations: sod2ExerciseRec{
			CanStart:              canStart,
			Intensity:             intensity,
			TimeUntilStart:        timeUntilStart,
			SOD2Target:            safeLevel,
			RecommendedActivities: exerciseActivities(intensity, canStart),
			MonitoringSchedule:    monitoring,
		},
		ClinicalRecommendations: sod2ClinicalRecommendations(currentLevel, strokeType),
		PersonalizationFactors:  factors,
	}
}
