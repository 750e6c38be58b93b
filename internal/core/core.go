// Run orchestration: resolve input, validate, clean, execute.
package core

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/v3dk/go-scanreel/internal/config"
	"github.com/v3dk/go-scanreel/internal/logger"
	"github.com/v3dk/go-scanreel/internal/pipeline"
	"github.com/v3dk/go-scanreel/internal/report"
	"github.com/v3dk/go-scanreel/internal/storage"
	"github.com/v3dk/go-scanreel/internal/video"
)

type Core struct {
	ctx context.Context
	cfg *config.Run
}

func New(ctx context.Context, cfg *config.Run) *Core {
	return &Core{ctx: ctx, cfg: cfg}
}

// Run drives one full pipeline run end to end. The process working
// directory is changed to the image directory's parent for the
// duration of the run and restored on every exit path.
func (c *Core) Run() error {
	log := logger.Log.WithField("scope", "core")

	if c.cfg.Clean || c.cfg.CleanOnly {
		if err := c.clean(); err != nil {
			return err
		}
		if c.cfg.CleanOnly {
			report.Infof("Clean-only mode: exiting after cleanup")
			return nil
		}
	}

	imageDir, err := c.resolveImageDir()
	if err != nil {
		return err
	}
	imageDirName := filepath.Base(imageDir)
	parentDir := filepath.Dir(imageDir)

	count, err := storage.CountImages(imageDir)
	if err != nil {
		return err
	}
	report.Okf("Found %d images in %q", count, imageDir)

	origWD, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting working directory")
	}
	if err := os.Chdir(parentDir); err != nil {
		return errors.Wrapf(err, "changing to %q", parentDir)
	}
	defer func() {
		if err := os.Chdir(origWD); err != nil {
			log.Warnf("could not restore working directory: %v", err)
		}
	}()

	if c.cfg.Verbose || c.cfg.Step != 0 || c.cfg.StartFrom > config.StepFirst {
		pipeline.PrintStatus(parentDir, imageDirName)
	}

	report.Okf("Starting COLMAP pipeline for %q", imageDirName)
	report.Infof("Working directory: %s", parentDir)
	report.Infof("Docker image: %s", c.cfg.DockerImage)
	c.reportPlan()

	return pipeline.New(c.ctx, c.cfg, parentDir, imageDirName).Run()
}

// resolveImageDir classifies the input as a video file or an image
// directory, extracting frames in the video case.
func (c *Core) resolveImageDir() (string, error) {
	abs, err := filepath.Abs(c.cfg.Input)
	if err != nil {
		return "", errors.Wrap(err, "resolving input path")
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil && !info.IsDir() && storage.IsVideoFile(abs):
		report.Infof("Input is a video file: %s", filepath.Base(abs))
		dir := storage.FramesDirFor(abs)
		if err := video.NewExtractor(c.ctx, c.cfg).Extract(abs, dir); err != nil {
			return "", err
		}
		return dir, nil

	case err == nil && info.IsDir():
		report.Infof("Input is a directory: %s", filepath.Base(abs))
		return abs, nil

	default:
		return "", errors.Wrapf(storage.ErrBadInput, "%q", abs)
	}
}

func (c *Core) clean() error {
	report.Stepf("Cleaning generated files...")
	cleaned, err := storage.Clean(c.cfg.Input)
	if err != nil {
		return err
	}
	if len(cleaned) == 0 {
		report.Infof("No files to clean")
		return nil
	}
	if c.cfg.Verbose {
		report.Infof("Cleaned files:")
		for _, item := range cleaned {
			report.Infof("  - %s", item)
		}
	}
	report.Okf("Clean completed")
	return nil
}

func (c *Core) reportPlan() {
	switch {
	case c.cfg.Step != 0:
		report.Infof("Running only step %d/%d", c.cfg.Step, config.StepLast)
	case c.cfg.StartFrom > config.StepFirst || c.cfg.StopAt < config.StepLast:
		report.Infof("Running steps %d-%d", c.cfg.StartFrom, c.cfg.StopAt)
	}
	if c.cfg.SkipDense {
		report.Warnf("Dense reconstruction will be skipped")
	} else if c.cfg.SkipMesh {
		report.Warnf("Mesh generation will be skipped")
	}
}
