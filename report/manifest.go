package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/landcover/datasets"
)

// ManifestFile is the default manifest file name.
const ManifestFile = "manifest.yaml"

// Subset summarises one side of a split.
type Subset struct {
	Samples int `yaml:"samples"`
	Batches int `yaml:"batches"`
}

// Manifest records what a generated split contains.
type Manifest struct {
	Country     string         `yaml:"country"`
	CreatedAt   time.Time      `yaml:"created_at"`
	ImageDir    string         `yaml:"image_dir"`
	ImageSize   int            `yaml:"image_size"`
	BatchSize   int            `yaml:"batch_size"`
	Seed        int64          `yaml:"seed"`
	Mask        string         `yaml:"mask"`
	Grayscale   bool           `yaml:"grayscale"`
	Pretrained  string         `yaml:"pretrained,omitempty"`
	Categories  []string       `yaml:"categories"`
	ClassCounts map[string]int `yaml:"class_counts"`
	Train       Subset         `yaml:"train"`
	Validation  Subset         `yaml:"validation"`

	ClassWeights []float64 `yaml:"class_weights,omitempty"`
}

// BuildManifest summarises split as produced by m. weights may be nil.
func BuildManifest(m *datasets.Manager, split *datasets.Split, weights []float64) Manifest {
	cfg := m.Config()
	man := Manifest{
		Country:     split.Country.String(),
		CreatedAt:   time.Now().UTC(),
		ImageDir:    m.ImageDir(split.Country),
		ImageSize:   cfg.ImageSize,
		BatchSize:   cfg.BatchSize,
		Seed:        cfg.Seed,
		Mask:        string(cfg.Mask),
		Grayscale:   cfg.UseGrayscale,
		Categories:  split.Train.Classes(),
		ClassCounts: ClassCounts(split.Rows),
		Train: Subset{
			Samples: split.Train.Samples(),
			Batches: split.Train.Len(),
		},
		Validation: Subset{
			Samples: split.Validation.Samples(),
			Batches: split.Validation.Len(),
		},
		ClassWeights: weights,
	}
	if cfg.Pretrained != nil {
		man.Pretrained = cfg.Pretrained.Type
	}
	return man
}

// WriteManifest writes man as YAML to path, creating parent directories.
func WriteManifest(fs afero.Fs, path string, man Manifest) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest dir: %w", err)
	}
	raw, err := yaml.Marshal(man)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := afero.WriteFile(fs, path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(fs afero.Fs, path string) (Manifest, error) {
	var man Manifest
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return man, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &man); err != nil {
		return man, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return man, nil
}
