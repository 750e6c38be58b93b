// All filesystem related functions: input classification, image
// scanning and cleanup of generated artifacts.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/v3dk/go-scanreel/internal/config"
	"github.com/v3dk/go-scanreel/internal/logger"
)

var (
	ErrBadInput = errors.New("input is neither a video file nor a directory")
	ErrNoImages = errors.New("no image files found")
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".avi":  {},
	".mov":  {},
	".mkv":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".m4v":  {},
	".3gp":  {},
	".ogv":  {},
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".tiff": {},
	".tif":  {},
}

// IsVideoFile reports whether the path has a recognized video
// extension. Matching is case-insensitive.
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := videoExtensions[ext]
	return ok
}

// IsImageFile reports whether the path has a recognized image
// extension, case-insensitive.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := imageExtensions[ext]
	return ok
}

// FramesDirFor returns the sibling directory frames extracted from the
// video are written to: <parent>/<stem>_frames.
func FramesDirFor(videoPath string) string {
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(videoPath), stem+config.FramesDirSuffix)
}

// CountImages walks dir recursively and counts files with a recognized
// image extension. Returns ErrNoImages when none are found.
func CountImages(dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return 0, errors.Errorf("directory %q does not exist", dir)
	}

	count := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImageFile(path) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "scanning %q", dir)
	}
	if count == 0 {
		return 0, errors.Wrapf(ErrNoImages, "in %q", dir)
	}
	return count, nil
}

// EnsureDir creates the directory and any missing parents.
func EnsureDir(path string) error {
	return errors.Wrapf(os.MkdirAll(path, os.ModePerm), "creating %q", path)
}

// Clean removes generated artifacts for the given input path: the
// feature database, extracted frames (only inside a *_frames directory,
// so a user-supplied image directory is never touched), and the sparse
// and dense output subtrees. Returns a description of everything
// removed; absence of any artifact is not an error.
func Clean(input string) ([]string, error) {
	log := logger.Log.WithField("scope", "storage clean")

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, errors.Wrap(err, "resolving input path")
	}
	info, err := os.Stat(abs)
	if err != nil {
		// A typo'd input must not clean a sibling of the wrong parent.
		return nil, errors.Wrapf(ErrBadInput, "%q", abs)
	}

	// Recompute what the image directory would be, same as a run would.
	imageDir := abs
	if !info.IsDir() && IsVideoFile(abs) {
		imageDir = FramesDirFor(abs)
	}
	parentDir := filepath.Dir(imageDir)
	imageDirName := filepath.Base(imageDir)

	var cleaned []string

	dbPath := filepath.Join(parentDir, config.DatabaseFile)
	if info, err := os.Stat(dbPath); err == nil && !info.IsDir() {
		if err := os.Remove(dbPath); err != nil {
			return cleaned, errors.Wrap(err, "removing database")
		}
		cleaned = append(cleaned, config.DatabaseFile)
	}

	// Extracted frames, only when the directory looks like one we made.
	if strings.HasSuffix(imageDirName, config.FramesDirSuffix) {
		if _, err := os.Stat(imageDir); err == nil {
			n, err := removeFrames(imageDir)
			if err != nil {
				return cleaned, err
			}
			if n > 0 {
				cleaned = append(cleaned, fmt.Sprintf("%d extracted frames", n))
			}
			// Drop the directory itself if nothing else is left in it.
			if entries, err := os.ReadDir(imageDir); err == nil && len(entries) == 0 {
				if err := os.Remove(imageDir); err == nil {
					cleaned = append(cleaned, fmt.Sprintf("empty %s directory", imageDirName))
				}
			}
		}
	}

	for _, sub := range []string{config.SparseDir, config.DenseDir} {
		path := filepath.Join(imageDir, sub)
		if _, err := os.Stat(path); err == nil {
			if err := os.RemoveAll(path); err != nil {
				return cleaned, errors.Wrapf(err, "removing %s", sub)
			}
			cleaned = append(cleaned, fmt.Sprintf("%s/%s/", imageDirName, sub))
		}
	}

	log.Debugf("cleaned %d items", len(cleaned))
	return cleaned, nil
}

func removeFrames(dir string) (int, error) {
	var frames []string
	for _, pattern := range []string{"frame_*.jpg", "frame_*.png"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return 0, errors.Wrap(err, "globbing frames")
		}
		frames = append(frames, matches...)
	}
	for _, frame := range frames {
		if err := os.Remove(frame); err != nil {
			return 0, errors.Wrapf(err, "removing frame %q", frame)
		}
	}
	return len(frames), nil
}
