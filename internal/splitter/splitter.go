// Package splitter partitions a class-folder dataset into train,
// validation and test sets.
//
// Expected input layout:
//
//	input_dir/
//	    class_a/
//	        sample1.jpg
//	        sample2.jpg
//	    class_b/
//	        ...
//
// Output layout mirrors the classes under train/, val/ and test/.
package splitter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
)

// ErrInvalidRatios indicates split ratios that do not sum to 1.
var ErrInvalidRatios = errors.New("split ratios must sum to 1")

// ratioEpsilon tolerates float rounding in user-supplied ratios.
const ratioEpsilon = 1e-6

// Config controls a split run.
type Config struct {
	InputDir  string
	OutputDir string

	TrainRatio float64
	ValRatio   float64
	TestRatio  float64

	Seed int64
}

// ApplyDefaults sets the standard 0.7/0.2/0.1 split and a fixed seed
// when all ratios are zero.
func (c *Config) ApplyDefaults() {
	if c.TrainRatio == 0 && c.ValRatio == 0 && c.TestRatio == 0 {
		c.TrainRatio = 0.7
		c.ValRatio = 0.2
		c.TestRatio = 0.1
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Validate checks directories and ratio consistency.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input dir is required")
	}
	if c.OutputDir == "" {
		return errors.New("output dir is required")
	}
	if c.TrainRatio < 0 || c.ValRatio < 0 || c.TestRatio < 0 {
		return fmt.Errorf("%w: ratios cannot be negative", ErrInvalidRatios)
	}
	sum := c.TrainRatio + c.ValRatio + c.TestRatio
	if math.Abs(sum-1) > ratioEpsilon {
		return fmt.Errorf("%w: got %v", ErrInvalidRatios, sum)
	}
	return nil
}

// Result reports per-split file counts.
type Result struct {
	Train   int `json:"train"`
	Val     int `json:"val"`
	Test    int `json:"test"`
	Classes int `json:"classes"`
}

// Split copies each class folder's files into train/val/test
// partitions. The shuffle is seeded, so runs with the same seed produce
// the same partition.
func Split(cfg Config) (*Result, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input dir %s is not a directory", cfg.InputDir)
	}

	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	result := &Result{}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		result.Classes++

		if err := splitClass(cfg, rng, entry.Name(), result); err != nil {
			return nil, fmt.Errorf("splitting class %s: %w", entry.Name(), err)
		}
	}

	return result, nil
}

func splitClass(cfg Config, rng *rand.Rand, class string, result *Result) error {
	classDir := filepath.Join(cfg.InputDir, class)

	entries, err := os.ReadDir(classDir)
	if err != nil {
		return fmt.Errorf("reading class dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	// Deterministic order before the seeded shuffle.
	sort.Strings(files)
	rng.Shuffle(len(files), func(i, j int) {
		files[i], files[j] = files[j], files[i]
	})

	n := len(files)
	trainEnd := int(cfg.TrainRatio * float64(n))
	valEnd := trainEnd + int(cfg.ValRatio*float64(n))

	partitions := []struct {
		name  string
		files []string
		count *int
	}{
		{"train", files[:trainEnd], &result.Train},
		{"val", files[trainEnd:valEnd], &result.Val},
		{"test", files[valEnd:], &result.Test},
	}

	for _, part := range partitions {
		targetDir := filepath.Join(cfg.OutputDir, part.name, class)
		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", targetDir, err)
		}

		for _, name := range part.files {
			src := filepath.Join(classDir, name)
			dst := filepath.Join(targetDir, name)
			if err := copyFile(src, dst); err != nil {
				return fmt.Errorf("copying %s: %w", name, err)
			}
			*part.count++
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
