package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/multibot-dev/multibot/internal/core"
)

var (
	validateConfigFile string
	validateShow       bool
	validateJSON       bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Config string   `json:"config"`
	Bots   int      `json:"bots"`
	Errors []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate multibot configuration file",
	Long: `Validate the multibot configuration file without starting the service.

This command checks:
  - YAML syntax
  - Required fields
  - Bot credentials
  - Matching, cache and penalty tunables

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	Run: func(cmd *cobra.Command, args []string) {
		configFile := validateConfigFile
		if configFile == "" {
			for _, loc := range []string{
				"config.yaml",
				filepath.Join(os.Getenv("HOME"), ".config/multibot/config.yaml"),
				"/etc/multibot/config.yaml",
			} {
				if _, err := os.Stat(loc); err == nil {
					configFile = loc
					break
				}
			}
		}

		if configFile == "" {
			fmt.Println("❌ No configuration file found")
			fmt.Println("\nSpecify a config file with --config or ensure one exists at:")
			fmt.Println("  - ./config.yaml")
			fmt.Println("  - ~/.config/multibot/config.yaml")
			fmt.Println("  - /etc/multibot/config.yaml")
			os.Exit(1)
		}

		cfg, err := core.LoadConfig(configFile)
		if err != nil {
			outputValidationResult(ValidationResult{
				Valid:  false,
				Config: configFile,
				Errors: []string{err.Error()},
			}, validateJSON)
			os.Exit(1)
		}

		result := ValidationResult{
			Valid:  true,
			Config: configFile,
			Bots:   len(cfg.Bots),
		}

		if validateShow {
			fmt.Printf("✓ Configuration loaded: %s\n\n", configFile)
			fmt.Printf("Store: %s\n", cfg.Store.Path)
			fmt.Printf("Matching: min_score=%.2f threshold=%.2f strict_ambiguity=%v\n",
				cfg.Matching.MinScore, cfg.Matching.ScoreThreshold, cfg.Matching.StrictAmbiguity)
			fmt.Printf("\nBots (%d):\n", len(cfg.Bots))
			for name, bot := range cfg.Bots {
				status := "disabled"
				if bot.Enabled {
					status = "enabled"
				}
				fmt.Printf("  - %s: %s\n", name, status)
			}
			fmt.Println()
		}

		outputValidationResult(result, validateJSON)
	},
}

func outputValidationResult(result ValidationResult, jsonFormat bool) {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			fmt.Printf("{\"error\": \"failed to marshal json: %v\"}\n", err)
			return
		}
		fmt.Println(string(output))
		return
	}
	if result.Valid {
		fmt.Printf("✓ %s is valid (%d bots)\n", result.Config, result.Bots)
		return
	}
	fmt.Printf("❌ %s is invalid:\n", result.Config)
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", "", "Configuration file path")
	validateCmd.Flags().BoolVar(&validateShow, "show", false, "Show the loaded configuration")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
