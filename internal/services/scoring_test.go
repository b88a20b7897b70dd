package services

import (
	"testing"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
)

func TestCalculatePoints(t *testing.T) {
	tests := []struct {
		name       string
		template   constants.TaskTemplate
		target     int
		multiplier float64
		want       int
		wantKind   common.ErrorKind
	}{
		{"time-boxed hour at 1.5x", constants.TemplateTimeBoxed, 60, 1.5, 195, ""},
		{"time-boxed lower bound", constants.TemplateTimeBoxed, 15, 1, 40, ""},
		{"time-boxed below bound", constants.TemplateTimeBoxed, 14, 1, 0, common.KindInvalidInput},
		{"time-boxed above bound", constants.TemplateTimeBoxed, 481, 1, 0, common.KindInvalidInput},
		{"quantitative", constants.TemplateQuantitative, 100, 1, 105, ""},
		{"milestone floors", constants.TemplateMilestone, 3, 1.25, 100, ""},
		{"milestone upper bound", constants.TemplateMilestone, 21, 1, 0, common.KindInvalidInput},
		{"qualitative ignores target", constants.TemplateQualitative, 9999, 2, 50, ""},
		{"fractional floor", constants.TemplateQualitative, 0, 1.03, 25, ""},
		{"zero multiplier", constants.TemplateQualitative, 0, 0, 0, common.KindInvalidInput},
		{"negative multiplier", constants.TemplateQualitative, 0, -1, 0, common.KindInvalidInput},
		{"huge multiplier", constants.TemplateTimeBoxed, 60, 1e300, 0, common.KindInvalidInput},
		{"just over cap", constants.TemplateQualitative, 0, float64(MaxTaskPoints)/25 + 1, 0, common.KindInvalidInput},
		{"near cap", constants.TemplateQualitative, 0, 85899345, 2147483625, ""},
		{"unknown template", constants.TaskTemplate("marathon"), 10, 1, 0, common.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculatePoints(tt.template, tt.target, tt.multiplier)
			if tt.wantKind != "" {
				if !common.IsKind(err, tt.wantKind) {
					t.Fatalf("Expected %s error, got %v", tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %d points, got %d", tt.want, got)
			}
		})
	}
}

func TestQuorumRules(t *testing.T) {
	if got := QuorumSize(5); got != 3 {
		t.Errorf("QuorumSize(5) = %d, want 3", got)
	}
	if got := QuorumSize(4); got != 3 {
		t.Errorf("QuorumSize(4) = %d, want 3", got)
	}
	if got := QuorumSize(1); got != 1 {
		t.Errorf("QuorumSize(1) = %d, want 1", got)
	}

	if !Overturned(3, 3) {
		t.Error("3 invalid of 3 should overturn")
	}
	if !Overturned(2, 3) {
		t.Error("2 invalid of 3 should overturn")
	}
	if Overturned(2, 4) {
		t.Error("2 invalid of 4 is not a strict majority")
	}
}
