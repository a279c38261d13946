package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stuffbucket/slnpd/internal/config"
	"github.com/stuffbucket/slnpd/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootFlags struct {
	configPath string
	stateDir   string
	theme      string
}

var rootCmd = &cobra.Command{
	Use:   "slnpd",
	Short: "slnpd - SLNP interlibrary loan server",
	Long: `slnpd accepts interlibrary loan orders from regional ILL servers over the
Simple Library Network Protocol (SLNP). Commands are checked against a
declarative schema before they reach a handler.`,
	Version: version,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		ui.SetTheme(ui.ThemeByName(rootFlags.theme))
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("slnpd version %s (commit: %s, built: %s)\n", version, commit, date))

	defaultHelp := rootCmd.HelpTemplate()
	rootCmd.SetHelpTemplate("{{banner}}" + defaultHelp)
	cobra.AddTemplateFunc("banner", ui.Banner)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.configPath, "config", "c", "", "Config file (TOML)")
	pf.StringVar(&rootFlags.stateDir, "state-dir", "", "State directory (default: ~/.local/state/slnpd)")
	pf.StringVar(&rootFlags.theme, "theme", "default", fmt.Sprintf("Color theme %v", ui.ListThemes()))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

// loadConfig reads --config when given, else the defaults for --state-dir.
// A config file sets its own state_dir.
func loadConfig() (*config.Config, error) {
	if rootFlags.configPath == "" {
		return config.Default(rootFlags.stateDir), nil
	}
	if rootFlags.stateDir != "" {
		return nil, fmt.Errorf("--state-dir cannot be combined with --config; set state_dir in the file")
	}
	return config.Load(rootFlags.configPath)
}
