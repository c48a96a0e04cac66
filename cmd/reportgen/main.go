package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/openshelf/reportgen/internal/config"
	"github.com/openshelf/reportgen/internal/images"
	"github.com/openshelf/reportgen/internal/jobs"
	"github.com/openshelf/reportgen/internal/report"
	"github.com/openshelf/reportgen/internal/service"
	"github.com/openshelf/reportgen/internal/storage"
	"github.com/openshelf/reportgen/pkg/logger"
)

func generateAction(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	runCfg, err := report.NewRunConfig(c.String("project"))
	if err != nil {
		return err
	}
	runCfg.AOIMode = c.Bool("aoi")
	runCfg.Interim = c.Bool("interim")
	if cfg.Report.LargeDatasetThreshold > 0 {
		runCfg.LargeDatasetThreshold = cfg.Report.LargeDatasetThreshold
	}
	if cfg.Report.PriceDetectionThreshold > 0 {
		runCfg.PriceDetectionThreshold = cfg.Report.PriceDetectionThreshold
	}
	if c.Int("threshold") > 0 {
		runCfg.LargeDatasetThreshold = c.Int("threshold")
	}
	switch c.String("pricing") {
	case "auto", "":
	case "on":
		v := true
		runCfg.PricingOverride = &v
	case "off":
		v := false
		runCfg.PricingOverride = &v
	default:
		return fmt.Errorf("invalid --pricing value %q (want auto, on, or off)", c.String("pricing"))
	}

	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	newThumbs := func(runID string) (report.ThumbnailSource, error) {
		return images.NewFetcher(cfg.Images, runID)
	}
	if cfg.Images.BaseURL == "" {
		newThumbs = nil
	}

	gen := report.NewGenerator(store, cfg.Storage, cfg.Images, newThumbs)
	// The CLI runs synchronously; job tracking and history are server concerns.
	svc := service.NewReportService(gen, jobs.NewNoopTracker(), nil, cfg.Report)

	progress := func(percent float64, step string, extra map[string]any) error {
		fmt.Printf("%6.1f%%  %s\n", percent, step)
		return nil
	}

	manifest, err := svc.Generate(c.Context, runCfg, progress)
	if err != nil {
		return err
	}

	fmt.Printf("report ready: %s\n", manifest.Filename)
	fmt.Printf("  users=%d products=%d pricing=%t mode=%s duration=%.1fs\n",
		manifest.Counts.UserCount, manifest.Counts.ProductCount,
		manifest.PricingIncluded, manifest.DatasetSizeMode, manifest.DurationSeconds)
	if manifest.DownloadURL != "" {
		fmt.Printf("  download: %s\n", manifest.DownloadURL)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "reportgen",
		Usage: "Generate a project report workbook from stored analytics data",
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Fetch project inputs, build the workbook, and upload it",
				Action: generateAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Usage:    "Project identifier",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "aoi",
						Usage: "Areas-of-interest mode (skip sales event columns)",
					},
					&cli.BoolFlag{
						Name:  "interim",
						Usage: "Mark the output as an interim data set",
					},
					&cli.StringFlag{
						Name:  "pricing",
						Usage: "Pricing columns: auto, on, or off",
						Value: "auto",
					},
					&cli.IntFlag{
						Name:  "threshold",
						Usage: "Override the large-dataset cell threshold",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
