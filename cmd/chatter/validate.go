package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/keepmind9/chatter/internal/core"
	"github.com/spf13/cobra"
)

var (
	validateConfigFile string
	validateJSON       bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Config   string   `json:"config"`
	Bots     []string `json:"bots"`
	KeyBy    string   `json:"key_by,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate chatter configuration file",
	Long: `Validate the chatter configuration file without connecting to any platform.

This command checks:
  - YAML syntax and environment variables
  - Bot platforms and credentials
  - Conversation and security settings

Exit codes:
  0 - Configuration is valid
  1 - Configuration has errors`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := validateConfigFile
		if path == "" {
			path = findConfigFile()
		}
		if path == "" {
			return fmt.Errorf("no configuration file found; specify one with --config")
		}

		result := validateFile(path)
		if err := outputValidationResult(cmd.OutOrStdout(), result, validateJSON); err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("configuration %s is invalid", path)
		}
		return nil
	},
}

func findConfigFile() string {
	for _, loc := range []string{
		"config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/chatter/config.yaml"),
		"/etc/chatter/config.yaml",
	} {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

func validateFile(path string) ValidationResult {
	cfg, err := core.LoadConfig(path)
	if err != nil {
		return ValidationResult{Config: path, Errors: []string{err.Error()}}
	}
	return ValidationResult{
		Valid:    true,
		Config:   path,
		Bots:     cfg.EnabledBots(),
		KeyBy:    cfg.Conversation.KeyBy,
		Warnings: validateConfigDetails(cfg),
	}
}

// validateConfigDetails reports settings that load but are probably mistakes.
func validateConfigDetails(cfg *core.Config) []string {
	var warnings []string
	if len(cfg.EnabledBots()) == 0 {
		warnings = append(warnings, "No bots are enabled - start will refuse to run")
	}
	if !cfg.Security.WhitelistEnabled {
		warnings = append(warnings, "Whitelist is disabled - anyone can talk to the bot")
	}
	for platform := range cfg.Security.AllowedUsers {
		if _, ok := cfg.Bots[platform]; !ok {
			warnings = append(warnings, fmt.Sprintf("Whitelist lists users for %q but no such bot is configured", platform))
		}
	}
	return warnings
}

func outputValidationResult(w io.Writer, result ValidationResult, jsonFormat bool) error {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ Configuration is valid")
		fmt.Fprintf(w, "  - Config: %s\n", result.Config)
		fmt.Fprintf(w, "  - Bots enabled: %d %v\n", len(result.Bots), result.Bots)
		fmt.Fprintf(w, "  - Conversations keyed by: %s\n", result.KeyBy)
	} else {
		fmt.Fprintln(w, "❌ Configuration validation failed:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", errMsg)
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\n⚠️  Warnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
	return nil
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", "", "Configuration file path")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
