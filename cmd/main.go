package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"race-extractor/ai"
	"race-extractor/internal/types"
	"race-extractor/scraper"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Parse command line flags
	var (
		urlFlag        = flag.String("url", "", "Race result URL to scrape (required)")
		outputFlag     = flag.String("output", "", "Output file path (default: stdout)")
		fetchTimeout   = flag.Duration("fetch-timeout", 15*time.Second, "HTTP fetch timeout")
		browserTimeout = flag.Duration("browser-timeout", 25*time.Second, "Headless browser render timeout")
		settleDelay    = flag.Duration("settle", 2*time.Second, "Extra wait after page load for late-loading widgets")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if *urlFlag == "" {
		log.Fatal("--url flag is required")
	}

	// Setup logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	config := types.DefaultConfig()
	config.FetchTimeout = *fetchTimeout
	config.BrowserTimeout = *browserTimeout
	config.SettleDelay = *settleDelay

	// The LLM fallback only activates when a credential is configured
	var extractor ai.Extractor
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		extractor = ai.NewClient(apiKey, logger)
	} else {
		logger.Debug("ANTHROPIC_API_KEY not set, LLM fallback disabled")
	}

	s := scraper.New(config, logger, extractor)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	result := s.ScrapeRaceResult(ctx, *urlFlag)
	logger.Infof("Scrape completed in %v (success=%v)", time.Since(start), result.Success)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}

	if *outputFlag != "" {
		if err := os.WriteFile(*outputFlag, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		logger.Infof("Result written to %s", *outputFlag)
	} else {
		fmt.Println(string(output))
	}

	if !result.Success {
		os.Exit(1)
	}
}
