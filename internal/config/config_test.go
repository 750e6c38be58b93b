package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRun() *Run {
	return &Run{
		Input:     "shots",
		Quality:   QualityMedium,
		StartFrom: StepFirst,
		StopAt:    StepLast,
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(r *Run)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(r *Run) {},
		},
		{
			name:   "single step",
			mutate: func(r *Run) { r.Step = 4 },
		},
		{
			name:   "explicit range",
			mutate: func(r *Run) { r.StartFrom = 3; r.StopAt = 5 },
		},
		{
			name:    "step with start-from",
			mutate:  func(r *Run) { r.Step = 4; r.StartFrom = 2 },
			wantErr: "cannot use --step with --start-from or --stop-at",
		},
		{
			name:    "step with stop-at",
			mutate:  func(r *Run) { r.Step = 2; r.StopAt = 5 },
			wantErr: "cannot use --step with --start-from or --stop-at",
		},
		{
			name:    "inverted range",
			mutate:  func(r *Run) { r.StartFrom = 5; r.StopAt = 3 },
			wantErr: "--start-from cannot be greater than --stop-at",
		},
		{
			name:    "step out of range",
			mutate:  func(r *Run) { r.Step = 8 },
			wantErr: "--step must be between 1 and 7",
		},
		{
			name:    "start-from out of range",
			mutate:  func(r *Run) { r.StartFrom = 0 },
			wantErr: "--start-from must be between 1 and 7",
		},
		{
			name:    "stop-at out of range",
			mutate:  func(r *Run) { r.StopAt = 9 },
			wantErr: "--stop-at must be between 1 and 7",
		},
		{
			name:    "unknown quality tier",
			mutate:  func(r *Run) { r.Quality = "ultra" },
			wantErr: `invalid --video-quality "ultra", must be one of: high, medium, low`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRun()
			tc.mutate(r)
			err := r.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.wantErr)
			}
		})
	}
}

func TestParseStep(t *testing.T) {
	testCases := []struct {
		name    string
		set     bool
		value   int
		want    int
		wantErr bool
	}{
		{name: "not set", set: false, value: 0, want: 0},
		{name: "valid step", set: true, value: 4, want: 4},
		{name: "explicit zero rejected", set: true, value: 0, wantErr: true},
		{name: "above range rejected", set: true, value: 8, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStep(tc.set, tc.value)
			if tc.wantErr {
				assert.EqualError(t, err, "--step must be between 1 and 7")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SCANREEL_DOCKER_IMAGE", "custom/colmap:dev")
	t.Setenv("SCANREEL_FFMPEG", "ffmpeg6")

	e, err := LoadEnv()
	assert.NoError(t, err)
	assert.Equal(t, "custom/colmap:dev", e.DockerImage)
	assert.Equal(t, "ffmpeg6", e.FFmpegBin)
}
