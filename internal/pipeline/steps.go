package pipeline

import (
	"fmt"
	"strconv"
)

type Category string

const (
	CategorySparse Category = "sparse"
	CategoryDense  Category = "dense"
	CategoryMesh   Category = "mesh"
)

// Step is one stage of the reconstruction pipeline: a fixed colmap
// invocation inside the container, bind-mounted on the working
// directory.
type Step struct {
	Number   int
	Name     string
	Category Category
	Command  []string
}

// Label is the step name as shown to the user, e.g. "3/7 - Sparse
// Reconstruction".
func (s Step) Label() string {
	return fmt.Sprintf("%d/7 - %s", s.Number, s.Name)
}

var stepNames = [7]string{
	"Feature Extraction",
	"Feature Matching",
	"Sparse Reconstruction",
	"Image Undistortion",
	"Patch Match Stereo",
	"Stereo Fusion",
	"Poisson Meshing",
}

// Steps builds the full ordered step table. workDir is the parent of
// the image directory and becomes /workspace inside the container; all
// other paths are relative to it.
func Steps(workDir, imageDirName, dockerImage string, maxImageSize int) []Step {
	docker := func(tool ...string) []string {
		argv := []string{
			"docker", "run", "--rm", "--gpus", "all",
			"-v", workDir + ":/workspace",
			"-w", "/workspace",
			dockerImage,
			"colmap",
		}
		return append(argv, tool...)
	}

	return []Step{
		{
			Number:   1,
			Name:     stepNames[0],
			Category: CategorySparse,
			Command: docker("feature_extractor",
				"--database_path", "database.db",
				"--image_path", imageDirName,
			),
		},
		{
			Number:   2,
			Name:     stepNames[1],
			Category: CategorySparse,
			Command: docker("exhaustive_matcher",
				"--database_path", "database.db",
			),
		},
		{
			Number:   3,
			Name:     stepNames[2],
			Category: CategorySparse,
			Command: docker("mapper",
				"--database_path", "database.db",
				"--image_path", imageDirName+"/",
				"--output_path", imageDirName+"/sparse/",
			),
		},
		{
			Number:   4,
			Name:     stepNames[3],
			Category: CategoryDense,
			Command: docker("image_undistorter",
				"--image_path", imageDirName+"/",
				"--input_path", imageDirName+"/sparse/0",
				"--output_path", imageDirName+"/dense",
				"--output_type", "COLMAP",
				"--max_image_size", strconv.Itoa(maxImageSize),
			),
		},
		{
			Number:   5,
			Name:     stepNames[4],
			Category: CategoryDense,
			Command: docker("patch_match_stereo",
				"--workspace_path", imageDirName+"/dense",
				"--workspace_format", "COLMAP",
				"--PatchMatchStereo.geom_consistency", "true",
			),
		},
		{
			Number:   6,
			Name:     stepNames[5],
			Category: CategoryDense,
			Command: docker("stereo_fusion",
				"--workspace_path", imageDirName+"/dense",
				"--workspace_format", "COLMAP",
				"--input_type", "geometric",
				"--output_path", imageDirName+"/dense/fused.ply",
			),
		},
		{
			Number:   7,
			Name:     stepNames[6],
			Category: CategoryMesh,
			Command: docker("poisson_mesher",
				"--input_path", imageDirName+"/dense/fused.ply",
				"--output_path", imageDirName+"/dense/meshed-poisson.ply",
			),
		},
	}
}

// selectSteps filters the table to the requested range and category
// skips. Dense steps are dropped when dense reconstruction is skipped;
// meshing is dropped when either dense or mesh is skipped.
func selectSteps(all []Step, start, stop int, skipDense, skipMesh bool) []Step {
	var out []Step
	for _, s := range all {
		if s.Number < start || s.Number > stop {
			continue
		}
		switch s.Category {
		case CategorySparse:
			out = append(out, s)
		case CategoryDense:
			if !skipDense {
				out = append(out, s)
			}
		case CategoryMesh:
			if !skipDense && !skipMesh {
				out = append(out, s)
			}
		}
	}
	return out
}
