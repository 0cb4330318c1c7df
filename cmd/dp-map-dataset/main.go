package main

import (
	"os"
	"time"

	"github.com/ONSdigital/dp-map-dataset/config"
	"github.com/ONSdigital/dp-map-dataset/metrics"
	"github.com/ONSdigital/dp-map-dataset/pipeline"
	"github.com/ONSdigital/dp-map-dataset/preview"
	"github.com/ONSdigital/go-ns/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Namespace = "dp-map-dataset"

	cfg, err := config.Get()
	if err != nil {
		log.Error(err, nil)
		os.Exit(1)
	}

	if err := newRootCommand(cfg).Execute(); err != nil {
		log.Error(err, nil)
		os.Exit(1)
	}
}

// newRootCommand creates the command tree. Flags override the matching config values.
func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "dp-map-dataset",
		Short:         "Build region polygons and city points for world maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Log()
			return cfg.Validate()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.BoundariesFile, "boundaries", cfg.BoundariesFile, "country boundary layer (GeoJSON)")
	flags.StringVar(&cfg.RegionCodesFile, "region-codes", cfg.RegionCodesFile, "region code table (csv)")
	flags.StringVar(&cfg.GazetteerFile, "gazetteer", cfg.GazetteerFile, "GeoNames gazetteer (.txt, .zip, .gz or .bz2)")
	flags.StringVarP(&cfg.OutputDir, "out", "o", cfg.OutputDir, "output directory")
	flags.StringVar(&cfg.TargetCRS, "crs", cfg.TargetCRS, "target coordinate reference system")
	flags.Var(&cfg.BoundingBox, "bbox", "city bounding box as minLon,minLat,maxLon,maxLat")
	flags.StringVar(&cfg.MetricsTextfile, "metrics", cfg.MetricsTextfile, "write run counters to this prometheus textfile")

	root.AddCommand(
		buildCommand(cfg, "polygons", "Build the region polygon artifacts", func(p *pipeline.Pipeline) error {
			_, err := p.Polygons()
			return err
		}),
		buildCommand(cfg, "cities", "Build the city point artifact", func(p *pipeline.Pipeline) error {
			_, err := p.Cities()
			return err
		}),
		buildCommand(cfg, "all", "Build the region and city artifacts concurrently", func(p *pipeline.Pipeline) error {
			return p.All()
		}),
		previewCommand(cfg),
	)
	return root
}

func buildCommand(cfg *config.Config, use, short string, run func(p *pipeline.Pipeline) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer metrics.TrackTime(time.Now(), use)

			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}
			if err := run(p); err != nil {
				return err
			}
			return metrics.WriteTextfile(cfg.MetricsTextfile)
		},
	}
}

func previewCommand(cfg *config.Config) *cobra.Command {
	var png bool
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Draw the artifacts in the output directory as svg and html",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := preview.Options{
				Width:       cfg.PreviewWidth,
				Padding:     preview.Padding{Top: 10, Right: 10, Bottom: 10, Left: 10},
				RegionsFile: pipeline.RegionsGeoJSONFile,
				CitiesFile:  pipeline.CitiesFile,
			}
			if png {
				opts.PNGConverter = preview.NewPNGConverter(cfg.SVG2PNGExecutable, cfg.SVG2PNGArguments)
			}
			_, err := preview.Build(cfg.OutputDir, opts)
			return err
		},
	}
	cmd.Flags().BoolVar(&png, "png", false, "also write a png, using SVG2PNG_EXECUTABLE")
	cmd.Flags().Float64Var(&cfg.PreviewWidth, "width", cfg.PreviewWidth, "preview width")
	return cmd
}
