package cmd

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"trunkline/internal/config"
	"trunkline/internal/logging"
	"trunkline/internal/project"
	"trunkline/internal/ui"
	"trunkline/pkg/errors"
)

var (
	v   = config.NewViper()
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "trunkline",
		Short: "Inspect how branches diverge from a target branch",
		Long: "trunkline - compares every branch of a repository against a target branch " +
			"and records editor deltas into a per-project session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}
)

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := run(); err != nil {
		ui.ShowError(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	defer errors.RecoverPanic(&err)
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("repo", ".", "Path to the git repository")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text or json)")
	flags.Bool("no-color", false, "Disable colored output")
	bindFlags(v, flags)
}

// bindFlags exposes every flag to viper under its snake_case key so flags,
// environment and config file share one namespace.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

func initConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(v)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to load configuration").
			WithSuggestions("Check config.yaml in the current directory or " + config.GetConfigPath())
	}
	cfg = loaded

	if err := logging.Initialize(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to configure logging")
	}

	if v.GetBool("no_color") {
		ui.SetColor(false)
	}
	return nil
}

// openProject opens the repository named by --repo and makes sure its state
// directory exists
func openProject() (*project.Repository, error) {
	repo, err := project.Open(v.GetString("repo"), cfg)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureStateDir(); err != nil {
		return nil, err
	}
	return repo, nil
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "Failed to encode output")
	}
	return nil
}
