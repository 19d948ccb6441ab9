// Package main provides CMA-ES tuning of kernel radius and grid resolution
// against a target neighbor count.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/twintank/config"
)

// evalRow is one line of tune_log.csv.
type evalRow struct {
	Eval       int     `csv:"eval"`
	Fitness    float64 `csv:"fitness"`
	Radius     float64 `csv:"kernel_radius"`
	Resolution int     `csv:"grid_resolution"`
	Expected   int     `csv:"expected"`
	Recall     float64 `csv:"recall"`
	Candidates int     `csv:"candidates"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 100, "Steps to run before each measurement")
	target := flag.Float64("target", 30, "Target mean true neighbors per particle")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		slog.Error("-output is required")
		os.Exit(1)
	}
	if *target <= 0 {
		slog.Error("-target must be positive")
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, *ticks, *target, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logFile, err := os.Create(filepath.Join(*outputDir, "tune_log.csv"))
	if err != nil {
		slog.Error("failed to create log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		report := evaluator.LastReport()
		row := []evalRow{{
			Eval:       evalCount,
			Fitness:    fitness,
			Radius:     clamped[0],
			Resolution: int(clamped[1]),
			Expected:   report.Expected,
			Recall:     report.Recall,
			Candidates: report.Candidates,
		}}
		if evalCount == 1 {
			err = gocsv.Marshal(&row, logFile)
		} else {
			err = gocsv.MarshalWithoutHeaders(&row, logFile)
		}
		if err != nil {
			slog.Warn("failed to log evaluation", "error", err)
		}

		elapsed := time.Since(startTime)
		remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
		slog.Info("eval",
			"n", evalCount,
			"fitness", fitness,
			"best", bestFitness,
			"radius", clamped[0],
			"resolution", int(clamped[1]),
			"recall", report.Recall,
			"elapsed", formatDuration(elapsed),
			"eta", formatDuration(remaining),
		)

		return fitness
	}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", *maxEvals,
		"ticks", *ticks,
		"target", *target,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Info("optimization ended", "reason", err)
	}

	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		slog.Error("no evaluations completed")
		os.Exit(1)
	}

	slog.Info("tuning complete",
		"evals", evalCount,
		"elapsed", formatDuration(time.Since(startTime)),
		"best_fitness", bestFitness,
		"kernel_radius", bestParams[0],
		"grid_resolution", int(bestParams[1]),
	)

	bestCfg := baseCfg.Clone()
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		slog.Error("best parameters rejected", "error", err)
		os.Exit(1)
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		slog.Error("failed to write best config", "error", err)
		os.Exit(1)
	}
	slog.Info("best config saved", "path", configOutPath)
}
