package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ragsift/ragsift/configs"
	"github.com/ragsift/ragsift/internal/config"
	"github.com/ragsift/ragsift/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the ragsift configuration files.

User configuration holds machine-wide defaults for all projects:
  - Retrieval backend and endpoint
  - Search tuning (match count, threshold, parallelism)
  - Logging and analytics settings

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/ragsift/config.yaml)
  3. Project config (.ragsift.yaml)
  4. Environment variables (RAGSIFT_*)`,
		Example: `  # Create user config from template
  ragsift config init

  # Create a per-project config in the current repo
  ragsift config init --project

  # Show effective configuration (merged from all sources)
  ragsift config show

  # Print user config file path
  ragsift config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from a template",
		Long: `Create a configuration file from a commented template.

By default the user configuration is written to
~/.config/ragsift/config.yaml (or $XDG_CONFIG_HOME/ragsift/config.yaml).
With --project, a minimal .ragsift.yaml is written to the project root
instead, for per-repo source pinning and threshold tuning.`,
		Example: `  ragsift config init
  ragsift config init --project
  ragsift config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if project {
				return runConfigInitProject(cmd, force)
			}
			return runConfigInitUser(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	cmd.Flags().BoolVar(&project, "project", false, "Create a project config instead of the user config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration after merging all sources.

By default, shows the merged configuration from:
  1. Hardcoded defaults
  2. User config (~/.config/ragsift/config.yaml)
  3. Project config (.ragsift.yaml)
  4. Environment variables`,
		Example: `  ragsift config show
  ragsift config show --json
  ragsift config show --source user`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Long:  `Print the path to the user configuration file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func runConfigInitUser(cmd *cobra.Command, force bool) error {
	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))

	configPath := config.GetUserConfigPath()
	configDir := config.GetUserConfigDir()

	if config.UserConfigExists() && !force {
		w.Warningf("User configuration already exists")
		w.Printf("Location: %s\n", configPath)
		w.Dimf("Use --force to overwrite it with the template")
		return nil
	}

	// Overwriting with --force keeps a timestamped copy of the old file.
	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("failed to back up existing config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	w.Successf("Created user configuration")
	w.Printf("Location: %s\n", configPath)
	if backupPath != "" {
		w.Dimf("Previous configuration backed up to %s", backupPath)
	}
	w.Println()
	w.Printf("Next steps:\n")
	w.Printf("  1. Edit the file to set your retrieval endpoint\n")
	w.Printf("  2. Run 'ragsift config show' to verify\n")

	return nil
}

func runConfigInitProject(cmd *cobra.Command, force bool) error {
	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}

	configPath := filepath.Join(root, ".ragsift.yaml")
	if fileExists(configPath) && !force {
		w.Warningf("Project configuration already exists")
		w.Printf("Location: %s\n", configPath)
		w.Dimf("Use --force to overwrite it with the template")
		return nil
	}

	if err := os.WriteFile(configPath, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	w.Successf("Created project configuration")
	w.Printf("Location: %s\n", configPath)

	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))

	var cfg *config.Config
	var sourceDesc string

	switch source {
	case "merged":
		merged, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = merged
		sourceDesc = "merged (defaults + user + project + env)"

	case "user":
		configPath := config.GetUserConfigPath()
		loaded, err := config.LoadUserConfig()
		if err != nil {
			return err
		}
		if loaded == nil {
			w.Warningf("No user configuration file found")
			w.Printf("Expected at: %s\n", configPath)
			w.Dimf("Run 'ragsift config init' to create one")
			return nil
		}
		cfg = loaded
		sourceDesc = fmt.Sprintf("user (%s)", configPath)

	case "project":
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		root, err := config.FindProjectRoot(cwd)
		if err != nil {
			root = cwd
		}

		yamlPath := filepath.Join(root, ".ragsift.yaml")
		ymlPath := filepath.Join(root, ".ragsift.yml")

		var configPath string
		switch {
		case fileExists(yamlPath):
			configPath = yamlPath
		case fileExists(ymlPath):
			configPath = ymlPath
		default:
			w.Warningf("No project configuration file found")
			w.Printf("Expected at: %s\n", yamlPath)
			w.Dimf("Run 'ragsift config init --project' to create one")
			return nil
		}

		cfg = config.NewConfig()
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read project config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse project config: %w", err)
		}
		sourceDesc = fmt.Sprintf("project (%s)", configPath)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	w.Dimf("Configuration source: %s", sourceDesc)
	w.Println()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
