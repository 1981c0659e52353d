package prediction

import (
	"reflect"
	"testing"
)

func TestAnalyzeMortality_HighRiskProfile(t *testing.T) {
	result := analyzeMortality(MortalityInput{
		Age:                  82,
		NIHSSScore:           intPtr(20),
		ReperfusionTreatment: false,
	})

	wantRisk := []string{
		"Advanced age (82 years)",
		"Severe stroke (NIHSS: 20)",
		"No reperfusion therapy",
	}
	if !reflect.DeepEqual(result.RiskFactors, wantRisk) {
		t.Errorf("expected risk factors %v, got %v", wantRisk, result.RiskFactors)
	}
	if len(result.ProtectiveFactors) != 0 {
		t.Errorf("expected no protective factors, got %v", result.ProtectiveFactors)
	}
	if result.ClinicalRecommendations[0] != "Intensive monitoring required" {
		t.Errorf("expected intensive recommendations, got %v", result.ClinicalRecommendations)
	}
}

func TestAnalyzeMortality_ProtectiveProfile(t *testing.T) {
	result := analyzeMortality(MortalityInput{
		Age:                  42,
		NIHSSScore:           intPtr(3),
		ReperfusionTreatment: true,
		ReperfusionTime:      2.0,
	})

	wantProtective := []string{
		"Younger age (42 years)",
		"Mild stroke (NIHSS: 3)",
		"Early reperfusion therapy",
	}
	if !reflect.DeepEqual(result.ProtectiveFactors, wantProtective) {
		t.Errorf("expected protective factors %v, got %v", wantProtective, result.ProtectiveFactors)
	}
	if len(result.RiskFactors) != 0 {
		t.Errorf("expected no risk factors, got %v", result.RiskFactors)
	}
	if result.ClinicalRecommendations[0] != "Apply standard treatment protocol" {
		t.Errorf("expected standard protocol, got %v", result.ClinicalRecommendations)
	}
}

func TestAnalyzeMortality_DelayedReperfusion(t *testing.T) {
	result := analyzeMortality(MortalityInput{
		Age:                  60,
		ReperfusionTreatment: true,
		ReperfusionTime:      6.0,
	})
	if len(result.RiskFactors) != 1 || result.RiskFactors[0] != "Delayed reperfusion therapy" {
		t.Errorf("expected delayed reperfusion risk, got %v", result.RiskFactors)
	}
	if result.ClinicalRecommendations[0] != "Continue active treatment" {
		t.Errorf("expected active treatment recommendations, got %v", result.ClinicalRecommendations)
	}
}

func TestAnalyzeMortality_MissingFieldsStayNeutral(t *testing.T) {
	result := analyzeMortality(MortalityInput{ReperfusionTreatment: true, ReperfusionTime: 3.5})
	if len(result.RiskFactors) != 0 || len(result.ProtectiveFactors) != 0 {
		t.Errorf("zero age and nil NIHSS must not produce factors: %+v", result)
	}
	if result.StrokeType != "unknown" {
		t.Errorf("expected unknown stroke type, got %s", result.StrokeType)
	}
}
