package pipeline

import (
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/v3dk/go-scanreel/internal/config"
)

// StepDone infers completion of a step purely from artifact presence
// on disk. Advisory only: it drives the status table and lets an
// operator pick --start-from, it never gates execution.
func StepDone(parentDir, imageDirName string, number int) bool {
	imageDir := filepath.Join(parentDir, imageDirName)

	switch number {
	case 1:
		return fileExists(filepath.Join(parentDir, config.DatabaseFile))
	case 2:
		// Size threshold as a proxy for "matches were written". Known
		// to be imprecise in both directions; good enough for a status
		// table.
		info, err := os.Stat(filepath.Join(parentDir, config.DatabaseFile))
		return err == nil && info.Size() > config.MatchedDBMinSize
	case 3:
		return dirExists(filepath.Join(imageDir, config.SparseDir, "0"))
	case 4:
		return globMatches(filepath.Join(imageDir, config.DenseDir, "images", "*.jpg"))
	case 5:
		return globMatches(filepath.Join(imageDir, config.DenseDir, "stereo", "depth_maps", "*.geometric.bin"))
	case 6:
		return fileExists(filepath.Join(imageDir, config.DenseDir, config.FusedFile))
	case 7:
		return fileExists(filepath.Join(imageDir, config.DenseDir, config.MeshedFile))
	}
	return false
}

// PrintStatus renders the per-step completion table.
func PrintStatus(parentDir, imageDirName string) {
	done := color.New(color.FgGreen).Sprint("done")
	pending := color.New(color.FgRed).Sprint("not done")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Step", "Status"})
	for i, name := range stepNames {
		status := pending
		if StepDone(parentDir, imageDirName, i+1) {
			status = done
		}
		t.AppendRow(table.Row{i + 1, name, status})
	}
	t.Render()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func globMatches(pattern string) bool {
	matches, err := filepath.Glob(pattern)
	return err == nil && len(matches) > 0
}
