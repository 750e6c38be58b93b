package config

import (
	env "github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const (
	DefaultDockerImage  = "roboticsmicrofarms/colmap:3.8"
	DefaultMaxImageSize = 2000
	DefaultFPS          = 2.0

	// Artifact names, relative to the working (parent) directory.
	// The working directory is bind-mounted into the container, so the
	// same relative paths are valid inside and outside of it.
	DatabaseFile    = "database.db"
	SparseDir       = "sparse"
	DenseDir        = "dense"
	FusedFile       = "fused.ply"
	MeshedFile      = "meshed-poisson.ply"
	FramesDirSuffix = "_frames"
	FramePattern    = "frame_%06d.jpg"

	// database.db larger than this is taken as "matching ran". Rough
	// proxy: extraction alone can cross it, matching can stay under it.
	MatchedDBMinSize = 1000

	StepFirst = 1
	StepLast  = 7

	// Advisory bands for video frame extraction.
	MinFPS    = 1.0
	MaxFPS    = 5.0
	MinFrames = 20
	MaxFrames = 500
)

// Frame quality tiers, mapped to ffmpeg -q:v values in internal/video.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// Env carries defaults that can be set once in the environment instead
// of on every invocation. Flag values take precedence.
type Env struct {
	DockerImage string `env:"SCANREEL_DOCKER_IMAGE" envDefault:"roboticsmicrofarms/colmap:3.8"`
	FFmpegBin   string `env:"SCANREEL_FFMPEG"       envDefault:"ffmpeg"`
}

func LoadEnv() (*Env, error) {
	e := &Env{}
	if err := env.Parse(e); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	return e, nil
}

// Run is the full configuration of one pipeline run. Built once from
// the CLI in cmd/app and immutable afterwards.
type Run struct {
	Input        string
	DockerImage  string
	FFmpegBin    string
	MaxImageSize int
	SkipDense    bool
	SkipMesh     bool
	Verbose      bool
	FPS          float64
	Quality      string
	ForceExtract bool
	Clean        bool
	CleanOnly    bool
	Step         int // 0 means not set
	StartFrom    int
	StopAt       int
}

// ParseStep validates an explicitly supplied --step value. Zero is the
// "not set" sentinel in Run, so an explicit --step 0 has to be caught
// here, while it is still known whether the flag was given at all.
func ParseStep(set bool, value int) (int, error) {
	if !set {
		return 0, nil
	}
	if value < StepFirst || value > StepLast {
		return 0, errors.Errorf("--step must be between %d and %d", StepFirst, StepLast)
	}
	return value, nil
}

// Validate rejects conflicting or out-of-range option combinations
// before any filesystem or process side effect happens.
func (r *Run) Validate() error {
	if r.Quality != QualityHigh && r.Quality != QualityMedium && r.Quality != QualityLow {
		return errors.Errorf("invalid --video-quality %q, must be one of: high, medium, low", r.Quality)
	}
	if r.Step != 0 && (r.Step < StepFirst || r.Step > StepLast) {
		return errors.Errorf("--step must be between %d and %d", StepFirst, StepLast)
	}
	if r.StartFrom < StepFirst || r.StartFrom > StepLast {
		return errors.Errorf("--start-from must be between %d and %d", StepFirst, StepLast)
	}
	if r.StopAt < StepFirst || r.StopAt > StepLast {
		return errors.Errorf("--stop-at must be between %d and %d", StepFirst, StepLast)
	}
	if r.Step != 0 && (r.StartFrom != StepFirst || r.StopAt != StepLast) {
		return errors.New("cannot use --step with --start-from or --stop-at")
	}
	if r.StartFrom > r.StopAt {
		return errors.New("--start-from cannot be greater than --stop-at")
	}
	return nil
}
