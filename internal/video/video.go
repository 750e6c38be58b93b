// Frame extraction from video files via ffmpeg.
package video

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/v3dk/go-scanreel/internal/config"
	"github.com/v3dk/go-scanreel/internal/logger"
	"github.com/v3dk/go-scanreel/internal/report"
	"github.com/v3dk/go-scanreel/internal/runner"
	"github.com/v3dk/go-scanreel/internal/storage"
)

var (
	ErrNoFrames    = errors.New("no frames were extracted from the video")
	ErrToolMissing = errors.New("ffmpeg not found")
)

type Extractor struct {
	ctx     context.Context
	bin     string
	fps     float64
	quality string
	force   bool
	verbose bool
}

func NewExtractor(ctx context.Context, cfg *config.Run) *Extractor {
	return &Extractor{
		ctx:     ctx,
		bin:     cfg.FFmpegBin,
		fps:     cfg.FPS,
		quality: cfg.Quality,
		force:   cfg.ForceExtract,
		verbose: cfg.Verbose,
	}
}

// Extract samples frames from the video into dir as numbered jpg
// files. When the directory already holds images and re-extraction was
// not forced, the existing frames are reused and ffmpeg is not run.
func (e *Extractor) Extract(videoPath, dir string) error {
	log := logger.Log.WithField("scope", "video extract")

	if !e.force {
		if n := countFrames(dir); n > 0 {
			report.Okf("Found %d existing images in %s", n, dir)
			report.Infof("Skipping frame extraction. Use --force-extract to re-extract frames.")
			return nil
		}
	}

	if _, err := exec.LookPath(e.bin); err != nil {
		report.Errorf("FFmpeg not found. Please install ffmpeg:")
		report.Infof("  Ubuntu/Debian: sudo apt install ffmpeg")
		report.Infof("  macOS: brew install ffmpeg")
		report.Infof("  Windows: download from https://ffmpeg.org/")
		return errors.Wrapf(ErrToolMissing, "%q not in PATH", e.bin)
	}

	if err := storage.EnsureDir(dir); err != nil {
		return err
	}

	argv := e.command(videoPath, dir)

	report.Stepf("Extracting frames from video: %s", filepath.Base(videoPath))
	report.Infof("Output directory: %s", dir)
	report.Infof("Frame rate: %g fps, Quality: %s", e.fps, e.quality)
	warnRate(e.fps)

	if e.verbose {
		report.Infof("FFmpeg command: %v", argv)
	}
	log.Debugf("ffmpeg argv: %v", argv)

	res, err := runner.Run(e.ctx, e.verbose, "Extracting frames... ", argv)
	if err != nil {
		report.Errorf("Frame extraction failed after %.1fs", res.Elapsed.Seconds())
		if res.Output != "" {
			report.Errorf("FFmpeg output: %s", res.Output)
		}
		return errors.Wrap(err, "frame extraction")
	}

	n := extractedFrames(dir)
	if n == 0 {
		// ffmpeg can exit zero without writing a single frame, e.g. on
		// an audio-only input.
		return errors.Wrapf(ErrNoFrames, "in %s", dir)
	}
	report.Okf("Extracted %d frames in %.1fs", n, res.Elapsed.Seconds())
	warnCount(n)

	return nil
}

func (e *Extractor) command(videoPath, dir string) []string {
	argv := []string{e.bin, "-i", videoPath, "-vf", fmt.Sprintf("fps=%g", e.fps)}
	argv = append(argv, qualityArgs(e.quality)...)
	argv = append(argv, "-y", filepath.Join(dir, config.FramePattern))
	return argv
}

// qualityArgs maps a quality tier to ffmpeg's -q:v scale.
func qualityArgs(quality string) []string {
	switch quality {
	case config.QualityHigh:
		return []string{"-q:v", "2"}
	case config.QualityLow:
		return []string{"-q:v", "10"}
	default:
		return []string{"-q:v", "5"}
	}
}

// countFrames counts any reusable images in the directory, for the
// skip-extraction check.
func countFrames(dir string) int {
	count := 0
	for _, pattern := range []string{"*.jpg", "*.png"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		count += len(matches)
	}
	return count
}

// extractedFrames counts only files matching the pattern ffmpeg writes,
// so images that were already in the directory before a forced
// extraction cannot mask an empty run.
func extractedFrames(dir string) int {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return 0
	}
	return len(matches)
}

type band int

const (
	bandOK band = iota
	bandLow
	bandHigh
)

func rateBand(fps float64) band {
	switch {
	case fps < config.MinFPS:
		return bandLow
	case fps > config.MaxFPS:
		return bandHigh
	}
	return bandOK
}

func countBand(n int) band {
	switch {
	case n < config.MinFrames:
		return bandLow
	case n > config.MaxFrames:
		return bandHigh
	}
	return bandOK
}

func warnRate(fps float64) {
	switch rateBand(fps) {
	case bandLow:
		report.Warnf("Low frame rate (%g fps) may result in poor 3D reconstruction", fps)
		report.Infof("Recommendation: use 1.5-3.0 fps for better results")
	case bandHigh:
		report.Warnf("High frame rate (%g fps) will create many frames and slow processing", fps)
		report.Infof("Recommendation: use 1.5-3.0 fps unless you need high temporal resolution")
	}
}

func warnCount(n int) {
	switch countBand(n) {
	case bandLow:
		report.Warnf("Very few frames extracted, may not be sufficient for 3D reconstruction")
		report.Infof("Consider increasing --fps or using a longer video")
	case bandHigh:
		report.Warnf("Many frames extracted (%d), processing will be slow", n)
		report.Infof("Consider reducing --fps for faster processing")
	}
}
