// Synchronous external process execution with captured output and a
// spinner while the child runs.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/v3dk/go-scanreel/internal/logger"
)

// Result of one external invocation.
type Result struct {
	Output  string // combined stdout+stderr, empty in verbose mode
	Elapsed time.Duration
}

// Run launches argv[0] with the remaining args and waits for it to
// finish. In verbose mode the child's output streams straight to the
// terminal; otherwise it is captured into the result and a spinner
// animates until the child exits. Cancelling ctx kills the child.
func Run(ctx context.Context, verbose bool, label string, argv []string) (Result, error) {
	log := logger.Log.WithField("scope", "runner")
	log.Debugf("running command: %s", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	start := time.Now()

	if verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		err := cmd.Run()
		res := Result{Elapsed: time.Since(start)}
		if err != nil {
			return res, wrapExit(ctx, err, label)
		}
		return res, nil
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	done := make(chan struct{})
	go spin(label, done)

	err := cmd.Run()
	close(done)

	res := Result{
		Output:  buf.String(),
		Elapsed: time.Since(start),
	}
	if err != nil {
		return res, wrapExit(ctx, err, label)
	}
	return res, nil
}

func wrapExit(ctx context.Context, err error, label string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Wrap(err, label)
}

func spin(label string, done <-chan struct{}) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(time.Millisecond * 300)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = bar.Add(1)
		case <-done:
			_ = bar.Finish()
			return
		}
	}
}
