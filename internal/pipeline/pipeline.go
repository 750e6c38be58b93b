// Sequencing of the COLMAP container invocations.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/v3dk/go-scanreel/internal/config"
	"github.com/v3dk/go-scanreel/internal/logger"
	"github.com/v3dk/go-scanreel/internal/report"
	"github.com/v3dk/go-scanreel/internal/runner"
	"github.com/v3dk/go-scanreel/internal/storage"
)

var ErrModelMissing = errors.New("sparse reconstruction failed, no model created")

// RunFunc launches one external command and waits for it. Swappable in
// tests.
type RunFunc func(ctx context.Context, verbose bool, label string, argv []string) (runner.Result, error)

type Pipeline struct {
	ctx          context.Context
	cfg          *config.Run
	workDir      string // parent of the image directory, bind-mount root
	imageDirName string
	run          RunFunc
}

func New(ctx context.Context, cfg *config.Run, workDir, imageDirName string) *Pipeline {
	return &Pipeline{
		ctx:          ctx,
		cfg:          cfg,
		workDir:      workDir,
		imageDirName: imageDirName,
		run:          runner.Run,
	}
}

// Selected returns the steps this run will execute, in order.
func (p *Pipeline) Selected() []Step {
	start, stop := p.cfg.StartFrom, p.cfg.StopAt
	if p.cfg.Step != 0 {
		start, stop = p.cfg.Step, p.cfg.Step
	}
	all := Steps(p.workDir, p.imageDirName, p.cfg.DockerImage, p.cfg.MaxImageSize)
	return selectSteps(all, start, stop, p.cfg.SkipDense, p.cfg.SkipMesh)
}

// Run executes the selected steps sequentially, aborting on the first
// failure. The process working directory must already be workDir so
// the relative paths in the commands line up with the bind mount.
func (p *Pipeline) Run() error {
	log := logger.Log.WithField("scope", "pipeline")

	steps := p.Selected()
	if len(steps) == 0 {
		report.Warnf("No steps selected, nothing to do")
		return nil
	}

	// The mapper expects its output directory to exist already.
	if err := storage.EnsureDir(filepath.Join(p.workDir, p.imageDirName, config.SparseDir)); err != nil {
		return err
	}

	start := time.Now()
	for _, step := range steps {
		report.Stepf("Running: %s", step.Label())
		if p.cfg.Verbose {
			report.Infof("Command: %v", step.Command)
		}
		log.Debugf("step %d argv: %v", step.Number, step.Command)

		res, err := p.run(p.ctx, p.cfg.Verbose, step.Label()+" ", step.Command)
		if err != nil {
			report.Errorf("%s failed after %.1fs", step.Label(), res.Elapsed.Seconds())
			if res.Output != "" {
				report.Errorf("Output: %s", res.Output)
			}
			return errors.Wrapf(err, "pipeline failed at step %s", step.Label())
		}
		report.Okf("%s completed in %.1fs", step.Label(), res.Elapsed.Seconds())
		if res.Output != "" {
			log.Debug(res.Output)
		}

		// The mapper exits zero even when it could not register enough
		// images to build a model. Catch that here instead of failing
		// obscurely at undistortion.
		if step.Number == 3 {
			modelDir := filepath.Join(p.workDir, p.imageDirName, config.SparseDir, "0")
			if _, err := os.Stat(modelDir); err != nil {
				return ErrModelMissing
			}
		}
	}

	p.summary(time.Since(start))
	return nil
}

func (p *Pipeline) summary(elapsed time.Duration) {
	report.Banner()
	report.Okf("COLMAP pipeline completed successfully")
	report.Okf("Total processing time: %.1f minutes", elapsed.Minutes())
	report.Banner()
	report.Infof("Output files:")
	report.Infof("  sparse reconstruction: %s/%s/", p.imageDirName, config.SparseDir)
	if !p.cfg.SkipDense {
		report.Infof("  dense point cloud:     %s/%s/%s", p.imageDirName, config.DenseDir, config.FusedFile)
		if !p.cfg.SkipMesh {
			report.Infof("  mesh:                  %s/%s/%s", p.imageDirName, config.DenseDir, config.MeshedFile)
		}
	}
	report.Infof("  database:              %s", config.DatabaseFile)
	report.Warnf("You can view the results in MeshLab, Blender, or CloudCompare")
}
