// Command prepare sets up the land cover datasets of one country, draws a
// few batches from the generators and writes reports about the split.
//
// Usage:
//
//	prepare --config config.yaml --country kenya --plots out/plots --manifest out/manifest.yaml
//
// Geodata is read from {root}/{country}/geodata.csv unless --geodata-dsn
// points at a PostGIS database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/landcover/datasets"
	"github.com/Noofbiz/landcover/geodata"
	"github.com/Noofbiz/landcover/report"
)

var (
	configPath   string
	country      string
	plotsDir     string
	manifestPath string
	batches      int
	geodataDSN   string
	geodataTable string
)

var rootCmd = &cobra.Command{
	Use:   "prepare",
	Short: "prepare land cover training datasets",
	Long: `Set up the Kenya or Peru land cover dataset described by a config file,
build its training and validation generators and summarise the result.

Images are read from {root}/{country}/{image_size}/{resizing}. Reports are
only written when --plots or --manifest is given.`,
	Example: `  # Generate the Kenya split and draw two batches
  $ prepare --config config.yaml --country kenya --batches 2

  # Write plots and a manifest
  $ prepare -c config.yaml --country peru --plots out/plots --manifest out/peru.yaml`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPrepare,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config")
	rootCmd.Flags().StringVar(&country, "country", "kenya", "country to generate (kenya or peru)")
	rootCmd.Flags().StringVar(&plotsDir, "plots", "", "directory for distribution and location plots")
	rootCmd.Flags().StringVar(&manifestPath, "manifest", "", "path of the YAML manifest to write")
	rootCmd.Flags().IntVar(&batches, "batches", 1, "number of training batches to draw")
	rootCmd.Flags().StringVar(&geodataDSN, "geodata-dsn", "", "PostGIS connection string to read geodata from")
	rootCmd.Flags().StringVar(&geodataTable, "geodata-table", "geodata", "PostGIS table holding geodata")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPrepare(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := datasets.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := datasets.SetupLogging(cfg.Log); err != nil {
		return err
	}

	fs := afero.NewOsFs()
	opts := []datasets.Option{datasets.WithFs(fs)}
	if geodataDSN != "" {
		pg, err := geodata.NewPostGISSource(ctx, geodataDSN, geodataTable)
		if err != nil {
			return err
		}
		defer pg.Close()
		opts = append(opts, datasets.WithSource(geodata.Sources{
			Geo:    pg,
			Shapes: geodata.NewShapefileSource(cfg.Root),
		}))
	}

	start := time.Now()
	m, err := datasets.NewManager(ctx, *cfg, opts...)
	if err != nil {
		return err
	}
	split, err := m.Generate(ctx, country)
	if err != nil {
		return err
	}
	log.Info().
		Str("country", split.Country.String()).
		Int("rows", len(split.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("split generated")

	if err := drawBatches(split.Train, batches); err != nil {
		return err
	}

	weights, err := m.ClassWeight(split.Country)
	if err != nil {
		return err
	}
	if weights != nil {
		log.Info().Floats64("weights", weights).Msg("class weights")
	}

	if plotsDir != "" {
		if err := writePlots(m, split); err != nil {
			return err
		}
	}
	if manifestPath != "" {
		man := report.BuildManifest(m, split, weights)
		if err := report.WriteManifest(fs, manifestPath, man); err != nil {
			return err
		}
		log.Info().Str("path", manifestPath).Msg("manifest written")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d training and %d validation samples in %d classes\n",
		split.Country, split.Train.Samples(), split.Validation.Samples(), len(split.Train.Classes()))
	return nil
}

// drawBatches pulls n batches from gen and converts each to gomlx tensors.
func drawBatches(gen datasets.Generator, n int) error {
	if gen.Len() == 0 {
		log.Warn().Msg("training generator is empty")
		return nil
	}
	for i := range n {
		b, err := gen.Next()
		if err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
		images, labels, err := b.ToGomlxTensors()
		if err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
		log.Debug().
			Int("batch", i).
			Str("images", images.Shape().String()).
			Str("labels", labels.Shape().String()).
			Msg("batch drawn")
	}
	return nil
}

func writePlots(m *datasets.Manager, split *datasets.Split) error {
	dir := filepath.Join(plotsDir, split.Country.String())
	classes, err := report.PlotClassDistribution(dir, split.Country.String()+" class distribution", report.ClassCounts(split.Rows))
	if err != nil {
		return err
	}
	locations, err := report.PlotLocations(dir, split.Country.String()+" sample locations", m.Dataframe(split.Country))
	if err != nil {
		return err
	}
	log.Info().Str("classes", classes).Str("locations", locations).Msg("plots written")
	return nil
}
