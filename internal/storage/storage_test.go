package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestIsVideoFile(t *testing.T) {
	testCases := []struct {
		path string
		want bool
	}{
		{"clip.mp4", true},
		{"CLIP.MP4", true},
		{"clip.MoV", true},
		{"clip.webm", true},
		{"clip.3gp", true},
		{"clip.jpg", false},
		{"clip.txt", false},
		{"clip", false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, IsVideoFile(tc.path))
		})
	}
}

func TestFramesDirFor(t *testing.T) {
	got := FramesDirFor(filepath.Join("some", "place", "garden.mp4"))
	assert.Equal(t, filepath.Join("some", "place", "garden_frames"), got)
}

func TestCountImages(t *testing.T) {
	t.Run("mixed case extensions counted recursively", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "a.jpg"))
		touch(t, filepath.Join(dir, "b.JPG"))
		touch(t, filepath.Join(dir, "c.Tiff"))
		touch(t, filepath.Join(dir, "nested", "d.png"))
		touch(t, filepath.Join(dir, "notes.txt"))

		n, err := CountImages(dir)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("no images", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "notes.txt"))

		_, err := CountImages(dir)
		assert.True(t, errors.Is(err, ErrNoImages))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := CountImages(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

func TestClean(t *testing.T) {
	t.Run("nothing to clean", func(t *testing.T) {
		parent := t.TempDir()
		imageDir := filepath.Join(parent, "shots")
		require.NoError(t, os.MkdirAll(imageDir, os.ModePerm))

		cleaned, err := Clean(imageDir)
		require.NoError(t, err)
		assert.Empty(t, cleaned)
	})

	t.Run("missing input cleans nothing", func(t *testing.T) {
		parent := t.TempDir()
		touch(t, filepath.Join(parent, "database.db"))

		cleaned, err := Clean(filepath.Join(parent, "does-not-exist"))
		assert.True(t, errors.Is(err, ErrBadInput))
		assert.Empty(t, cleaned)
		assert.FileExists(t, filepath.Join(parent, "database.db"))
	})

	t.Run("database and sparse tree removed", func(t *testing.T) {
		parent := t.TempDir()
		imageDir := filepath.Join(parent, "shots")
		touch(t, filepath.Join(parent, "database.db"))
		touch(t, filepath.Join(imageDir, "sparse", "0", "cameras.bin"))

		cleaned, err := Clean(imageDir)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"database.db", "shots/sparse/"}, cleaned)
		assert.NoFileExists(t, filepath.Join(parent, "database.db"))
		assert.NoDirExists(t, filepath.Join(imageDir, "sparse"))
	})

	t.Run("frames removed only from a _frames directory", func(t *testing.T) {
		parent := t.TempDir()
		imageDir := filepath.Join(parent, "garden")
		touch(t, filepath.Join(imageDir, "frame_000001.jpg"))

		cleaned, err := Clean(imageDir)
		require.NoError(t, err)
		assert.Empty(t, cleaned)
		assert.FileExists(t, filepath.Join(imageDir, "frame_000001.jpg"))
	})

	t.Run("video input cleans the derived frames directory", func(t *testing.T) {
		parent := t.TempDir()
		videoPath := filepath.Join(parent, "garden.mp4")
		touch(t, videoPath)
		framesDir := filepath.Join(parent, "garden_frames")
		touch(t, filepath.Join(framesDir, "frame_000001.jpg"))
		touch(t, filepath.Join(framesDir, "frame_000002.png"))

		cleaned, err := Clean(videoPath)
		require.NoError(t, err)
		assert.Contains(t, cleaned, "2 extracted frames")
		assert.Contains(t, cleaned, "empty garden_frames directory")
		assert.NoDirExists(t, framesDir)
		assert.FileExists(t, videoPath)
	})

	t.Run("non frame files keep the directory alive", func(t *testing.T) {
		parent := t.TempDir()
		videoPath := filepath.Join(parent, "garden.mkv")
		touch(t, videoPath)
		framesDir := filepath.Join(parent, "garden_frames")
		touch(t, filepath.Join(framesDir, "frame_000001.jpg"))
		touch(t, filepath.Join(framesDir, "keep.me"))

		cleaned, err := Clean(videoPath)
		require.NoError(t, err)
		assert.Contains(t, cleaned, "1 extracted frames")
		assert.DirExists(t, framesDir)
		assert.FileExists(t, filepath.Join(framesDir, "keep.me"))
	})
}
