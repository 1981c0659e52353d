package prediction

import "fmt"

// MortalityResult is the deterministic risk-factor analysis stored for a
// mortality task. No probability is reported: the trained 30-day model is not
// deployed, so the analysis sticks to what the inputs directly support.
type MortalityResult struct {
	StrokeType              string   `json:"stroke_type"`
	NIHSSScore              *int     `json:"nihss_score,omitempty"`
	ReperfusionTreatment    bool     `json:"reperfusion_treatment"`
	ReperfusionTime         float64  `json:"reperfusion_time,omitempty"`
	RiskFactors             []string `json:"risk_factors"`
	ProtectiveFactors       []string `json:"protective_factors"`
	ClinicalRecommendations []string `json:"clinical_recommendations"`
}

// analyzeMortality derives risk and protective factors from age, stroke
// severity and reperfusion timing.
func analyzeMortality(in MortalityInput) MortalityResult {
	result := MortalityResult{
		StrokeType:           in.StrokeType,
		NIHSSScore:           in.NIHSSScore,
		ReperfusionTreatment: in.ReperfusionTreatment,
		ReperfusionTime:      in.ReperfusionTime,
		RiskFactors:          []string{},
		ProtectiveFactors:    []string{},
	}
	if result.StrokeType == "" {
		result.StrokeType = "unknown"
	}

	if in.Age > 75 {
		result.RiskFactors = append(result.RiskFactors, fmt.Sprintf("Advanced age (%d years)", in.Age))
	} else if in.Age > 0 && in.Age < 50 {
		result.ProtectiveFactors = append(result.ProtectiveFactors, fmt.Sprintf("Younger age (%d years)", in.Age))
	}

	if in.NIHSSScore != nil {
		if *in.NIHSSScore > 15 {
			result.RiskFactors = append(result.RiskFactors, fmt.Sprintf("Severe stroke (NIHSS: %d)", *in.NIHSSScore))
		} else if *in.NIHSSScore < 5 {
			result.ProtectiveFactors = append(result.ProtectiveFactors, fmt.Sprintf("Mild stroke (NIHSS: %d)", *in.NIHSSScore))
		}
	}

	if in.ReperfusionTreatment {
		if in.ReperfusionTime <= 3 {
			result.ProtectiveFactors = append(result.ProtectiveFactors, "Early reperfusion therapy")
		} else if in.ReperfusionTime > 4.5 {
			result.RiskFactors = append(result.RiskFactors, "Delayed reperfusion therapy")
		}
	} else {
		result.RiskFactors = append(result.RiskFactors, "No reperfusion therapy")
	}

	switch {
	case len(result.RiskFactors) >= 2:
		result.ClinicalRecommendations = []string{
			"Intensive monitoring required",
			"Consider family counseling",
			"Establish escalation plan",
		}
	case len(result.RiskFactors) == 1:
		result.ClinicalRecommendations = []string{
			"Continue active treatment",
			"Focus on complication prevention",
			"Regular neurological assessment",
		}
	default:
		result.ClinicalRecommendations = []string{
			"Apply standard treatment protocol",
			"Plan rehabilitation therapy",
			"Prepare discharge planning",
		}
	}
	return result
}
