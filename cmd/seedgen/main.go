package main

import (
	"flag"
	"fmt"
	"matchbook/cmd/seedgen/gen"
	"os"
	"time"
)

func main() {
	scenario := flag.String("scenario", "baseline", "Scenario to generate: baseline, graph, feedback")
	outDir := flag.String("out", "./data", "Output directory for seed files")
	count := flag.Int("count", 40, "Number of personas to generate")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	cfg := gen.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Count: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Count, cfg.Seed, *outDir)

	state, users := gen.Generate(cfg)

	if err := gen.Save(*outDir, state, users); err != nil {
		fmt.Printf("Failed to save seed data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
