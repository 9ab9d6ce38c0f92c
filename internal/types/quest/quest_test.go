package quest

import "testing"

func TestStepCount(t *testing.T) {
	stepped := &Quest{
		Kind: KindStepped,
		Steps: []Step{
			{Index: 0, Title: "Log breakfast"},
			{Index: 1, Title: "Log lunch"},
			{Index: 2, Title: "Log dinner"},
		},
	}
	if got := stepped.StepCount(); got != 3 {
		t.Errorf("stepped quest StepCount = %d, want 3", got)
	}

	simple := &Quest{Kind: KindSimple}
	if got := simple.StepCount(); got != 1 {
		t.Errorf("simple quest StepCount = %d, want 1", got)
	}

	// A simple quest with stray step rows still counts as one.
	simple.Steps = []Step{{Index: 0, Title: "Drink water"}}
	if got := simple.StepCount(); got != 1 {
		t.Errorf("simple quest with steps StepCount = %d, want 1", got)
	}
}

func TestProgressFor(t *testing.T) {
	tests := []struct {
		name        string
		currentStep int
		stepCount   int
		wantPct     float64
	}{
		{"not started", 0, 4, 0},
		{"halfway", 2, 4, 50},
		{"complete", 4, 4, 100},
		{"single step done", 1, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProgressFor(tt.currentStep, tt.stepCount)
			if p.Current != tt.currentStep || p.Target != tt.stepCount {
				t.Errorf("ProgressFor(%d, %d) = {%d, %d}, want {%d, %d}",
					tt.currentStep, tt.stepCount, p.Current, p.Target, tt.currentStep, tt.stepCount)
			}
			if p.Percentage != tt.wantPct {
				t.Errorf("Percentage = %v, want %v", p.Percentage, tt.wantPct)
			}
		})
	}
}

func TestProgressForZeroTarget(t *testing.T) {
	p := ProgressFor(0, 0)
	if p.Target != 1 {
		t.Errorf("zero step count should clamp Target to 1, got %d", p.Target)
	}
	if p.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0", p.Percentage)
	}
}
