package datasets

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/Noofbiz/landcover/preprocess"
)

// Subset selects one side of the validation split.
type Subset int

const (
	Training Subset = iota
	Validation
)

func (s Subset) String() string {
	if s == Validation {
		return "validation"
	}
	return "training"
}

// FlowOptions configures an ImageGenerator.
type FlowOptions struct {
	ImageSize       int
	BatchSize       int
	Seed            int64
	ValidationSplit float64
	Subset          Subset

	// Shuffle reorders rows at the start of every epoch.
	Shuffle bool

	// Preprocess runs on every image after loading. Nil leaves raw 0..255
	// pixels.
	Preprocess preprocess.Func
}

// ImageGenerator yields batches of images and one-hot labels from a flow
// frame. Categories are the sorted class keys of the whole frame, the
// validation subset is the first int(split*n) rows and the training subset
// is the rest.
//
// Next never runs out: after the last batch of an epoch the next call starts
// a new epoch. An ImageGenerator is not safe for concurrent use.
type ImageGenerator struct {
	fs   afero.Fs
	dir  string
	rows []Row
	opts FlowOptions

	classes    []string
	classIndex map[string]int

	order       []int
	pos         int
	batchesSeen int
}

// NewImageGenerator creates a generator over the subset of rows selected by
// opts. Image files are read from dir.
func NewImageGenerator(fs afero.Fs, rows []Row, dir string, opts FlowOptions) (*ImageGenerator, error) {
	if opts.ImageSize <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", opts.ImageSize)
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.ValidationSplit < 0 || opts.ValidationSplit >= 1 {
		return nil, fmt.Errorf("validation split must be in [0, 1), got %v", opts.ValidationSplit)
	}

	classes := Categories(rows)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	return &ImageGenerator{
		fs:         fs,
		dir:        dir,
		rows:       SplitRows(rows, opts.ValidationSplit, opts.Subset),
		opts:       opts,
		classes:    classes,
		classIndex: classIndex,
	}, nil
}

// Categories returns the sorted distinct class keys of rows.
func Categories(rows []Row) []string {
	seen := make(map[string]bool)
	var classes []string
	for _, r := range rows {
		if !seen[r.Class] {
			seen[r.Class] = true
			classes = append(classes, r.Class)
		}
	}
	sort.Strings(classes)
	return classes
}

// SplitRows returns the rows of one subset of the validation split.
func SplitRows(rows []Row, split float64, subset Subset) []Row {
	cut := int(split * float64(len(rows)))
	if subset == Validation {
		return rows[:cut]
	}
	return rows[cut:]
}

// Len returns the number of batches per epoch.
func (g *ImageGenerator) Len() int {
	return (len(g.rows) + g.opts.BatchSize - 1) / g.opts.BatchSize
}

// Samples returns the number of rows in the subset.
func (g *ImageGenerator) Samples() int { return len(g.rows) }

// Classes returns the category names in one-hot order.
func (g *ImageGenerator) Classes() []string { return g.classes }

// Rows returns the rows of the subset in frame order.
func (g *ImageGenerator) Rows() []Row { return g.rows }

// Reset restarts from the first epoch.
func (g *ImageGenerator) Reset() {
	g.order = nil
	g.pos = 0
	g.batchesSeen = 0
}

// nextIndices advances to the next batch and returns its row positions.
func (g *ImageGenerator) nextIndices() ([]int, error) {
	n := len(g.rows)
	if n == 0 {
		return nil, ErrEmptyGenerator
	}
	if g.order == nil || g.pos >= n {
		g.startEpoch()
	}
	end := min(g.pos+g.opts.BatchSize, n)
	idx := g.order[g.pos:end]
	g.pos = end
	g.batchesSeen++
	return idx, nil
}

func (g *ImageGenerator) startEpoch() {
	n := len(g.rows)
	if g.opts.Shuffle {
		r := rand.New(rand.NewSource(g.opts.Seed + int64(g.batchesSeen)))
		g.order = r.Perm(n)
	} else {
		g.order = make([]int, n)
		for i := range g.order {
			g.order[i] = i
		}
	}
	g.pos = 0
}

// Next loads the next batch.
func (g *ImageGenerator) Next() (*Batch, error) {
	idx, err := g.nextIndices()
	if err != nil {
		return nil, err
	}
	return g.load(idx)
}

func (g *ImageGenerator) load(idx []int) (*Batch, error) {
	size := g.opts.ImageSize
	b := newBatch(len(idx), size, size, Channels, len(g.classes))

	stride := size * size * Channels
	for i, pos := range idx {
		row := g.rows[pos]
		pix, err := LoadImage(g.fs, filepath.Join(g.dir, row.Filename), size)
		if err != nil {
			return nil, err
		}
		if g.opts.Preprocess != nil {
			g.opts.Preprocess(pix)
		}
		copy(b.Images[i*stride:], pix)

		cls, ok := g.classIndex[row.Class]
		if !ok {
			return nil, fmt.Errorf("row %s has unknown class %q", row.Filename, row.Class)
		}
		b.Labels[i*len(g.classes)+cls] = 1
		b.Filenames[i] = row.Filename
		b.Indices[i] = row.Index
	}
	return b, nil
}
