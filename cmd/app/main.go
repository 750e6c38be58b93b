package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/v3dk/go-scanreel/internal/config"
	"github.com/v3dk/go-scanreel/internal/core"
	"github.com/v3dk/go-scanreel/internal/logger"
	"github.com/v3dk/go-scanreel/internal/report"
)

var app = cli.NewApp()
var log = logger.Log

func init() {
	app.Name = "scanreel"
	app.Usage = "Run the COLMAP 3D reconstruction pipeline on images or video"
	app.UsageText = "scanreel [options] <images directory | video file>"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "docker-image",
			Usage: "Docker image to use",
			Value: config.DefaultDockerImage,
		},
		cli.IntFlag{
			Name:  "max-image-size",
			Usage: "Maximum image size for processing",
			Value: config.DefaultMaxImageSize,
		},
		cli.BoolFlag{
			Name:  "skip-dense",
			Usage: "Skip dense reconstruction (only run sparse reconstruction)",
		},
		cli.BoolFlag{
			Name:  "skip-mesh",
			Usage: "Skip mesh generation (run up to dense point cloud)",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "Stream output of external commands",
		},
		cli.Float64Flag{
			Name:  "fps",
			Usage: "Frames per second to extract from video",
			Value: config.DefaultFPS,
		},
		cli.StringFlag{
			Name:  "video-quality",
			Usage: "Quality of extracted frames: high, medium or low",
			Value: config.QualityMedium,
		},
		cli.BoolFlag{
			Name:  "force-extract",
			Usage: "Re-extract frames even if images already exist",
		},
		cli.BoolFlag{
			Name:  "clean",
			Usage: "Remove generated files before processing (database, sparse, dense, frames)",
		},
		cli.BoolFlag{
			Name:  "clean-only",
			Usage: "Only remove generated files and exit",
		},
		cli.IntFlag{
			Name:  "step",
			Usage: "Run only a specific step (1-7)",
		},
		cli.IntFlag{
			Name:  "start-from",
			Usage: "Start processing from a specific step (1-7)",
			Value: config.StepFirst,
		},
		cli.IntFlag{
			Name:  "stop-at",
			Usage: "Stop processing at a specific step (1-7)",
			Value: config.StepLast,
		},
	}
	app.Action = run
}

func run(c *cli.Context) error {
	input := c.Args().Get(0)
	if input == "" {
		return cli.NewExitError("input path is required", 1)
	}

	env, err := config.LoadEnv()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	step, err := config.ParseStep(c.IsSet("step"), c.Int("step"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	cfg := &config.Run{
		Input:        input,
		DockerImage:  env.DockerImage,
		FFmpegBin:    env.FFmpegBin,
		MaxImageSize: c.Int("max-image-size"),
		SkipDense:    c.Bool("skip-dense"),
		SkipMesh:     c.Bool("skip-mesh"),
		Verbose:      c.Bool("verbose"),
		FPS:          c.Float64("fps"),
		Quality:      c.String("video-quality"),
		ForceExtract: c.Bool("force-extract"),
		Clean:        c.Bool("clean"),
		CleanOnly:    c.Bool("clean-only"),
		Step:         step,
		StartFrom:    c.Int("start-from"),
		StopAt:       c.Int("stop-at"),
	}
	if c.IsSet("docker-image") {
		cfg.DockerImage = c.String("docker-image")
	}
	if err := cfg.Validate(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := core.New(ctx, cfg).Run(); err != nil {
		if ctx.Err() != nil {
			report.Warnf("Pipeline interrupted by user")
		} else {
			report.Errorf("%v", err)
		}
		return cli.NewExitError("", 1)
	}
	return nil
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		if msg := err.Error(); msg != "" {
			log.Error(msg)
		}
		os.Exit(1)
	}
}
