package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"decipher/internal/anneal"
	"decipher/internal/config"
	"decipher/internal/corpus"
	"decipher/internal/lm"
	"decipher/internal/logging"
)

func main() {
	var configPath string
	var ciphertextPath string
	var seed int64
	flag.StringVar(&configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&ciphertextPath, "ciphertext", "", "Encrypted message file (overrides config)")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = time-based)")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if ciphertextPath != "" {
		cfg.Solver.CiphertextPath = ciphertextPath
	}
	if seed != 0 {
		cfg.Solver.RandomSeed = seed
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alphabet := corpus.Default()
	reader := corpus.NewReader(alphabet)
	reader.FallbackPath = cfg.Corpus.FallbackPath

	logger.Info("Loading corpus", map[string]interface{}{"url": cfg.Corpus.URL})
	text, err := reader.Load(ctx, cfg.Corpus.URL)
	if err != nil {
		logger.Fatal("Failed to load corpus", map[string]interface{}{"error": err.Error()})
	}

	model := lm.New(text, alphabet)
	stats := model.Stats()
	logger.Info("Language model trained", map[string]interface{}{
		"corpus_size":      stats.CorpusSize,
		"vocabulary_size":  stats.VocabularySize,
		"distinct_bigrams": stats.DistinctBigram,
	})

	encrypted, err := os.ReadFile(cfg.Solver.CiphertextPath)
	if err != nil {
		logger.Fatal("Cannot read encrypted message", map[string]interface{}{
			"path":  cfg.Solver.CiphertextPath,
			"error": err.Error(),
		})
	}
	ciphertext := string(encrypted)
	if len(ciphertext) == 0 {
		logger.Fatal("Encrypted message is empty", map[string]interface{}{
			"path": cfg.Solver.CiphertextPath,
		})
	}

	annealer, err := anneal.New(anneal.Config{
		InitialTemperature: cfg.Solver.InitialTemperature,
		CoolingRate:        cfg.Solver.CoolingRate,
		Threshold:          cfg.Solver.Threshold,
		RandomSeed:         cfg.Solver.RandomSeed,
	})
	if err != nil {
		logger.Fatal("Invalid annealing schedule", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Starting search", map[string]interface{}{
		"initial_temperature": cfg.Solver.InitialTemperature,
		"cooling_rate":        cfg.Solver.CoolingRate,
		"threshold":           cfg.Solver.Threshold,
		"planned_iterations":  annealer.PlannedIterations(),
	})

	initial := anneal.NewIdentity(alphabet)
	result, err := annealer.Run(ctx, initial, ciphertext, model)
	if err != nil {
		logger.Fatal("Search failed", map[string]interface{}{"error": err.Error()})
	}

	decrypted := result.Best.Translate(ciphertext)
	printResults(cfg, result, ciphertext, decrypted)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printResults(cfg *config.Config, result *anneal.Result, encrypted, decrypted string) {
	fmt.Println("######################################################################################")
	fmt.Println("### RESULTS ###")
	fmt.Println()
	fmt.Printf("The winning permutation is:\n%s\n\n", result.Best)
	fmt.Println("The parameters used in the simulated annealing were:")
	fmt.Printf("    Initial temperature = %v\n", cfg.Solver.InitialTemperature)
	fmt.Printf("    Threshold = %v\n", cfg.Solver.Threshold)
	fmt.Printf("    Cooling rate = %v\n", cfg.Solver.CoolingRate)
	fmt.Printf("    Iterations = %d (accepted %d, rejected %d)\n",
		result.Iterations, result.Accepted, result.Rejected)
	fmt.Printf("    Final energy = %.2f bits\n", result.Energy)
	fmt.Println()
	fmt.Println("Encrypted message:")
	fmt.Println(encrypted)
	fmt.Println("Decrypted message:")
	fmt.Println(decrypted)
	fmt.Println("######################################################################################")
}
