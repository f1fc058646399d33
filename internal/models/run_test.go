package models

import (
	"testing"
	"time"
)

func TestRunResultFilename(t *testing.T) {
	tests := []struct {
		name string
		run  RunResult
		want string
	}{
		{
			name: "afternoon cycle",
			run:  RunResult{Station: "KXMR", Date: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), Hour: 12, Version: "NBM4.1"},
			want: "KXMR_2026101812_NBM4.1.csv",
		},
		{
			name: "midnight cycle pads hour",
			run:  RunResult{Station: "X1K", Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Hour: 0, Version: "NBM4.2"},
			want: "X1K_2026010200_NBM4.2.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.run.Filename(); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunResultLabel(t *testing.T) {
	run := RunResult{Station: "KTTS", Date: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), Hour: 7, Version: "NBM4.0"}
	if got, want := run.Label(), "2026-10-19 07Z (NBM4.0)"; got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}

func TestProbeOutcomeFound(t *testing.T) {
	if !ProbeExists.Found() {
		t.Error("ProbeExists should be found")
	}
	if ProbeAbsent.Found() {
		t.Error("ProbeAbsent should not be found")
	}
	if ProbeFailed.Found() {
		t.Error("ProbeFailed should not be found")
	}
}
