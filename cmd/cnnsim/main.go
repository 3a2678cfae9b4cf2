// Package main provides the entry point for cnnsim.
// cnnsim is a cycle-level simulator of a streaming fixed-point CNN
// classifier accelerator.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/emu"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/accel"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/pipeline"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

var (
	timing     = flag.Bool("timing", false, "Enable cycle-level timing simulation mode")
	akitaMode  = flag.Bool("akita", false, "Run the timing model inside the event-driven engine")
	configPath = flag.String("config", "", "Path to datapath configuration JSON file")
	weightsDir = flag.String("weights", "", "Directory holding the hex weight files")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cnnsim [options] <image.raw> [image.raw ...]\n")
		fmt.Fprintf(os.Stderr, "\nEach image file holds %d raw grayscale bytes in raster order.\n",
			config.ImagePixels)
		fmt.Fprintf(os.Stderr, "Pass '-' for an all-zero demo image.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	if *verbose {
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		slog.SetDefault(slog.New(handler))
	}

	cfg := loadDatapathConfig()
	set := loadWeights()
	images := loadImages(flag.Args())

	switch {
	case *akitaMode:
		runAkita(cfg, set, images)
	case *timing:
		runTiming(cfg, set, images)
	default:
		runEmulation(cfg, set, images)
	}

	atexit.Exit(0)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	atexit.Exit(1)
}

func loadDatapathConfig() *config.Config {
	if *configPath == "" {
		return config.DefaultConfig()
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("Invalid config: %v", err)
	}

	return cfg
}

func loadWeights() *weights.Set {
	if *weightsDir == "" {
		slog.Debug("no weight directory given, using the built-in test pattern")
		return weights.TestSet()
	}

	set, err := weights.Load(*weightsDir)
	if err != nil {
		fatal("Error loading weights: %v", err)
	}

	return set
}

func loadImages(paths []string) [][]uint8 {
	images := make([][]uint8, 0, len(paths))
	for _, path := range paths {
		if path == "-" {
			images = append(images, make([]uint8, config.ImagePixels))
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fatal("Error reading image: %v", err)
		}
		if len(data) != config.ImagePixels {
			fatal("Image %s holds %d bytes, want %d", path, len(data), config.ImagePixels)
		}
		images = append(images, data)
	}

	return images
}

// runEmulation classifies every image with the functional model.
func runEmulation(cfg *config.Config, set *weights.Set, images [][]uint8) {
	net, err := emu.NewNetwork(cfg, set)
	if err != nil {
		fatal("Error building network: %v", err)
	}

	for i, image := range images {
		scores, err := net.Scores(image)
		if err != nil {
			fatal("Error classifying image %d: %v", i, err)
		}
		fmt.Printf("Image %d: class %d\n", i, emu.Argmax(scores))

		if *verbose {
			fmt.Printf("  Scores: %v\n", scores)
		}
	}
}

// runTiming classifies every image with the cycle-level datapath and prints
// a timing report.
func runTiming(cfg *config.Config, set *weights.Set, images [][]uint8) {
	pipe, err := pipeline.NewPipeline(cfg, set)
	if err != nil {
		fatal("Error building pipeline: %v", err)
	}

	for i, image := range images {
		class, err := pipe.Classify(image)
		if err != nil {
			fatal("Error classifying image %d: %v", i, err)
		}
		fmt.Printf("Image %d: class %d\n", i, class)
	}

	reportStats(pipe.Stats())
}

// runAkita runs the same datapath as a component of the event-driven
// simulator, with image delivery and result collection as messages.
func runAkita(cfg *config.Config, set *weights.Set, images [][]uint8) {
	platform := accel.MakePlatformBuilder().
		WithConfig(cfg).
		WithWeights(set).
		Build("CNNSim")

	classes, err := platform.Classify(images)
	if err != nil {
		fatal("Error running simulation: %v", err)
	}

	for i, class := range classes {
		fmt.Printf("Image %d: class %d\n", i, class)
	}

	fmt.Printf("Simulated time: %.9f s\n", float64(platform.Engine.CurrentTime()))
	reportStats(platform.Accel.PipelineStats())
}

func reportStats(stats pipeline.Statistics) {
	fmt.Printf("\n")
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	fmt.Printf("Pixels In: %d\n", stats.Pixels)
	fmt.Printf("Images Out: %d\n", stats.Images)
	fmt.Printf("Cycles/Image: %.2f\n", stats.CyclesPerImage())
	fmt.Printf("\n")
	fmt.Printf("Backpressure stalls:\n")
	for _, link := range []string{
		"pixels", "conv1.pool1", "pool1.conv2",
		"conv2.pool2", "pool2.fc", "fc.argmax", "classes",
	} {
		fmt.Printf("  %-12s %d\n", link, stats.Stalls[link])
	}
}
