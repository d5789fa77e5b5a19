package main

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bricktools/brickpick"
	"github.com/bricktools/brickpick/internal/config"
	"github.com/bricktools/brickpick/pkg/logging"
)

var (
	configFile   string
	flagVerbose  bool
	flagQuiet    bool
	flagNoColor  bool
	flagDataDir  string
	flagCacheDir string

	cfg    *config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "brickpick",
	Short: "LEGO wanted-parts pickup planner",
	Long: `Brickpick reconciles a wanted-parts list against your collection:
manually cataloged loose parts and the inventories of sets you own,
fetched from the Rebrickable API and cached locally.

The result is a pickup plan telling you which storage location to pull
each part from and which parts you still need to acquire. Progress can
be marked off per location as parts are physically retrieved.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.brickpick.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory for plans, progress, and the owned-sets manifest")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "directory for cached set inventories")

	cobra.CheckErr(viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")))
	cobra.CheckErr(viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet")))
}

// setup loads configuration and wires the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	if configFile != "" {
		viper.Set("config", configFile)
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(c, cmd.Flags())
	if flagDataDir != "" {
		c.DataDir = flagDataDir
		if flagCacheDir == "" {
			c.CacheDir = filepath.Join(c.DataDir, "cache")
		}
	}
	if flagCacheDir != "" {
		c.CacheDir = flagCacheDir
	}
	cfg = c

	level := c.LogLevel
	if c.Verbose {
		level = "debug"
	}
	if c.Quiet {
		level = "error"
	}
	logger = logging.NewLoggerFromConfig(&logging.Config{
		Level:   level,
		Format:  c.LogFormat,
		Output:  c.LogOutput,
		NoColor: c.NoColor,
	})
	logging.SetDefault(logger)

	return nil
}

// applyFlagOverrides lets command-line flags take precedence over config
// file and env values, but only for flags the user actually set: an
// untouched flag's default must not clobber a configured value.
func applyFlagOverrides(c *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("verbose") {
		c.Verbose = flagVerbose
	}
	if flags.Changed("quiet") {
		c.Quiet = flagQuiet
	}
	if flags.Changed("no-color") {
		c.NoColor = flagNoColor
	}
}

// newBrickpick assembles a Brickpick instance from the loaded configuration.
func newBrickpick() (brickpick.Brickpick, error) {
	opts := []brickpick.Option{
		brickpick.WithCacheDir(cfg.CacheDir),
		brickpick.WithLogger(logger),
		brickpick.WithHTTPTimeout(cfg.HTTPTimeout),
	}
	if cfg.APIKey != "" {
		opts = append(opts, brickpick.WithAPIKey(cfg.APIKey))
	}
	if cfg.APIBaseURL != "" {
		opts = append(opts, brickpick.WithAPIBaseURL(cfg.APIBaseURL))
	}
	return brickpick.New(opts...)
}
