package datasets

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/Noofbiz/landcover/geodata"
	"github.com/Noofbiz/landcover/preprocess"
)

// Manager owns the per-country datasets and builds generators from them.
// Country datasets are set up once, either eagerly by NewManager for the
// countries enabled in the config or lazily on first use, and are read-only
// afterwards.
type Manager struct {
	cfg    Config
	fs     afero.Fs
	source geodata.Source

	dataframes map[Country][]Sample
	shapefiles map[Country]*geodata.Shapefile
}

// Option customises a Manager.
type Option func(*Manager)

// WithFs sets the filesystem images and cloud lists are read from.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithSource sets the geodata and shapefile source.
func WithSource(src geodata.Source) Option {
	return func(m *Manager) { m.source = src }
}

// NewManager validates cfg and sets up every country it enables.
func NewManager(ctx context.Context, cfg Config, opts ...Option) (*Manager, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:        cfg,
		dataframes: make(map[Country][]Sample),
		shapefiles: make(map[Country]*geodata.Shapefile),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.source == nil {
		m.source = geodata.Sources{
			Geo:    geodata.NewCSVSource(m.fs, cfg.Root),
			Shapes: geodata.NewShapefileSource(cfg.Root),
		}
	}

	if cfg.UseKenyaImages {
		if err := m.setup(ctx, Kenya); err != nil {
			return nil, err
		}
	}
	if cfg.UsePeruImages {
		if err := m.setup(ctx, Peru); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// ImageDir returns the image directory of a country.
func (m *Manager) ImageDir(c Country) string {
	return ImageDir(m.cfg.Root, c, m.cfg.ImageSize, m.cfg.Resizing)
}

// Setup loads the dataset of the named country if it is not loaded yet.
func (m *Manager) Setup(ctx context.Context, country string) error {
	c, err := ParseCountry(country)
	if err != nil {
		return err
	}
	return m.setup(ctx, c)
}

func (m *Manager) setup(ctx context.Context, c Country) error {
	if _, ok := m.dataframes[c]; ok {
		return nil
	}

	records, err := m.source.LoadGeodata(ctx, string(c))
	if err != nil {
		return fmt.Errorf("failed to load %s geodata: %w", c, err)
	}
	sf, err := m.source.LoadShapefile(ctx, string(c))
	if err != nil {
		return fmt.Errorf("failed to load %s shapefile: %w", c, err)
	}

	joined := c.join(records, sf.Shapes)
	samples := make([]Sample, len(joined))
	for i, j := range joined {
		label, ok := m.cfg.ClassEnum[j.Class]
		if !ok {
			return fmt.Errorf("%s sample %d: %w: %q", c, j.Index, ErrUnknownClass, j.Class)
		}
		samples[i] = Sample{
			Index: j.Index,
			ID:    j.ID,
			Class: j.Class,
			Label: label,
			Lat:   j.Lat,
			Lon:   j.Lon,
		}
	}

	samples, err = m.keepExisting(c, samples)
	if err != nil {
		return err
	}

	m.shapefiles[c] = sf
	m.dataframes[c] = samples

	log.Info().
		Str("country", c.String()).
		Int("joined", len(joined)).
		Int("with_images", len(samples)).
		Msg("dataset set up")
	return nil
}

// keepExisting drops samples without an image file and records the file
// name of the others. Kenya files must be named {index}_{id}.jpg exactly;
// Peru files are matched on the {id}.jpg tail whatever their prefix.
func (m *Manager) keepExisting(c Country, samples []Sample) ([]Sample, error) {
	dir := m.ImageDir(c)
	kept := make([]Sample, 0, len(samples))

	if c == Peru {
		names, err := resolveByTail(m.fs, samples, dir)
		if err != nil {
			return nil, err
		}
		for i, s := range samples {
			if names[i] == "" {
				continue
			}
			s.Filename = names[i]
			kept = append(kept, s)
		}
		return kept, nil
	}

	valid, err := FilesValid(m.fs, samples, dir)
	if err != nil {
		return nil, err
	}
	for i, s := range samples {
		if !valid[i] {
			continue
		}
		s.Filename = FormatFilename(s.Index, s.ID, "", "")
		kept = append(kept, s)
	}
	return kept, nil
}

// Dataframe returns the set-up samples of a country, or nil.
func (m *Manager) Dataframe(c Country) []Sample {
	return m.dataframes[c]
}

// Shapefile returns the shapefile of a set-up country, or nil.
func (m *Manager) Shapefile(c Country) *geodata.Shapefile {
	return m.shapefiles[c]
}

// ClassWeight returns balanced class weights for a set-up country, or nil
// when weight_classes is off.
func (m *Manager) ClassWeight(c Country) ([]float64, error) {
	if !m.cfg.WeightClasses {
		return nil, nil
	}
	samples, ok := m.dataframes[c]
	if !ok {
		return nil, fmt.Errorf("%s is not set up", c)
	}
	labels := make([]int, len(samples))
	for i, s := range samples {
		labels[i] = s.Label
	}
	return BalancedClassWeights(labels, m.cfg.NClasses)
}

// FlowRows returns the flow frame of a set-up country.
func (m *Manager) FlowRows(c Country) []Row {
	samples := m.dataframes[c]
	rows := make([]Row, len(samples))
	for i, s := range samples {
		rows[i] = Row{Filename: s.Filename, Class: c.classKey(s), Index: s.Index}
	}
	return rows
}

// Split is the result of Generate.
type Split struct {
	Country    Country
	Train      Generator
	Validation Generator

	// Rows is the flow frame after cloud removal and sampling, before the
	// validation split.
	Rows []Row
}

// GenerateKenya is Generate for Kenya.
func (m *Manager) GenerateKenya(ctx context.Context) (*Split, error) {
	return m.generate(ctx, Kenya)
}

// GeneratePeru is Generate for Peru.
func (m *Manager) GeneratePeru(ctx context.Context) (*Split, error) {
	return m.generate(ctx, Peru)
}

// Generate builds the training and validation generators of the named
// country, setting the country up first if needed.
func (m *Manager) Generate(ctx context.Context, country string) (*Split, error) {
	c, err := ParseCountry(country)
	if err != nil {
		return nil, err
	}
	return m.generate(ctx, c)
}

func (m *Manager) generate(ctx context.Context, c Country) (*Split, error) {
	if err := m.setup(ctx, c); err != nil {
		return nil, err
	}

	rows := m.FlowRows(c)

	if m.cfg.RemoveClouds {
		clouds, err := LoadCloudList(m.fs, CloudListPath(m.cfg.Root, c))
		if err != nil {
			return nil, err
		}
		rows = RemoveClouds(rows, clouds)
		log.Info().Str("country", c.String()).Int("rows", len(rows)).Msg("declouded dataframe")
	}

	rows, err := m.sample(c, rows)
	if err != nil {
		return nil, err
	}

	fn, err := m.preprocessing(c)
	if err != nil {
		return nil, err
	}

	opts := FlowOptions{
		ImageSize:       m.cfg.ImageSize,
		BatchSize:       m.cfg.BatchSize,
		Seed:            m.cfg.Seed,
		ValidationSplit: m.cfg.ValidationSplit,
		Preprocess:      fn,
	}
	trainOpts := opts
	trainOpts.Subset = Training
	trainOpts.Shuffle = true
	valOpts := opts
	valOpts.Subset = Validation

	split := &Split{Country: c, Rows: rows}
	dir := m.ImageDir(c)

	if m.cfg.Mask == MaskNone {
		train, err := NewImageGenerator(m.fs, rows, dir, trainOpts)
		if err != nil {
			return nil, err
		}
		val, err := NewImageGenerator(m.fs, rows, dir, valOpts)
		if err != nil {
			return nil, err
		}
		split.Train, split.Validation = train, val
	} else {
		if c != Kenya {
			return nil, fmt.Errorf("%w: masking for %s", ErrNotImplemented, c)
		}
		maskDir := MaskDir(m.cfg.Root)
		train, err := NewMaskGenerator(m.fs, rows, dir, maskDir, trainOpts, m.cfg.Mask, m.cfg.MaskInverted)
		if err != nil {
			return nil, err
		}
		val, err := NewMaskGenerator(m.fs, rows, dir, maskDir, valOpts, m.cfg.Mask, m.cfg.MaskInverted)
		if err != nil {
			return nil, err
		}
		split.Train, split.Validation = train, val
	}

	log.Info().
		Str("country", c.String()).
		Str("mask", string(m.cfg.Mask)).
		Int("train", split.Train.Samples()).
		Int("validation", split.Validation.Samples()).
		Int("classes", len(split.Train.Classes())).
		Msg("generators ready")
	return split, nil
}

// sample applies the sampling policy of the config.
func (m *Manager) sample(c Country, rows []Row) ([]Row, error) {
	policy := m.cfg.Sample
	if policy == nil {
		return rows, nil
	}
	if !policy.Balanced {
		return SampleRows(rows, policy.Size, m.cfg.Seed)
	}

	var classes []string
	perClass := 0
	if c == Kenya {
		for _, l := range m.cfg.Labels() {
			classes = append(classes, strconv.Itoa(l))
		}
		if len(classes) == 0 {
			return nil, fmt.Errorf("%w: balanced sampling needs a non-negative label in class_enum", ErrInvalidConfig)
		}
		perClass = policy.Size / len(classes)
	} else {
		for cls := range m.cfg.ClassEnum {
			classes = append(classes, cls)
		}
		sort.Strings(classes)
		perClass = policy.Size / m.cfg.NClasses
	}
	return SampleBalanced(rows, classes, perClass, m.cfg.Seed)
}

// preprocessing returns the preprocessing of the configured pretrained
// model. Kenya images are converted to grayscale first when enabled; Peru
// images always stay RGB.
func (m *Manager) preprocessing(c Country) (preprocess.Func, error) {
	if m.cfg.Pretrained == nil {
		return nil, fmt.Errorf("%w: custom model and preprocessing pipeline not yet defined", ErrNotImplemented)
	}
	fn, err := preprocess.ForModel(m.cfg.Pretrained.Type)
	if err != nil {
		return nil, err
	}
	if m.cfg.UseGrayscale && c == Kenya {
		fn = preprocess.Grayscale(fn)
	}
	return fn, nil
}
