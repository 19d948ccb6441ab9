// Package main measures how many true within-radius pairs the ring probe
// finds, across a range of kernel radii.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/twintank/config"
	"github.com/pthm-cable/twintank/engine"
	"github.com/pthm-cable/twintank/systems"
)

func parseRadii(s string) ([]float64, error) {
	var radii []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		h, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing radius %q: %w", field, err)
		}
		if h <= 0 {
			return nil, fmt.Errorf("radius %v must be positive", h)
		}
		radii = append(radii, h)
	}
	if len(radii) == 0 {
		return nil, fmt.Errorf("no radii given")
	}
	return radii, nil
}

// measure runs ticks steps at radius h and reports recall on the final state.
func measure(configPath string, h float64, ticks int) (systems.RecallReport, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return systems.RecallReport{}, err
	}
	cfg.Kernel.Radius = h

	e, err := engine.New(cfg, engine.Options{})
	if err != nil {
		return systems.RecallReport{}, err
	}
	defer e.Close()

	e.Setup()
	for range ticks {
		e.Step(cfg.Physics.DT)
	}
	return e.Recall(), nil
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	ticks := flag.Int("ticks", 200, "Steps to run before measuring")
	radiiFlag := flag.String("radii", "0.05,0.1,0.15,0.2,0.3", "Comma-separated kernel radii")
	output := flag.String("output", "", "CSV file for the results (empty = log only)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	radii, err := parseRadii(*radiiFlag)
	if err != nil {
		slog.Error("invalid -radii", "error", err)
		os.Exit(1)
	}

	reports := make([]systems.RecallReport, 0, len(radii))
	for _, h := range radii {
		rep, err := measure(*configPath, h, *ticks)
		if err != nil {
			slog.Error("measurement failed", "radius", h, "error", err)
			os.Exit(1)
		}
		slog.Info("recall", "report", rep)
		reports = append(reports, rep)
	}

	if *output == "" {
		return
	}

	f, err := os.Create(*output)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&reports, f); err != nil {
		slog.Error("failed to write output", "error", err)
		os.Exit(1)
	}
	slog.Info("results saved", "path", *output, "radii", len(radii))
}
