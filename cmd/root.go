package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/scout/internal/aggregate"
	"github.com/joescharf/scout/internal/blob"
	"github.com/joescharf/scout/internal/client"
	"github.com/joescharf/scout/internal/logging"
	"github.com/joescharf/scout/internal/output"
	"github.com/joescharf/scout/internal/proxy"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Scout - review document analysis results",
	Long: `scout is the front end for the Scout document review service.

It runs the browser-facing gateway that forwards requests to the analysis
backend, and offers commands to browse results, rate them, summarise the
review and download source files through that gateway.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/scout/config.yaml)")
	rootCmd.PersistentFlags().String("gateway", "", "Gateway base URL (overrides gateway_url)")
	_ = viper.BindPFlag("gateway_url", rootCmd.PersistentFlags().Lookup("gateway"))
}

func initConfig() {
	// A .env in the working directory seeds the environment without
	// overriding variables that are already set.
	_ = godotenv.Load()

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDirFunc(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// The backend origin keeps its historical unprefixed name.
	_ = viper.BindEnv("backend_host", "SCOUT_BACKEND_HOST", "BACKEND_HOST")

	setDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func setDefaults() {
	stateDir := ""
	if dir, err := configDirFunc(); err == nil {
		stateDir = dir
	}
	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("backend_host", "http://localhost:8080")
	viper.SetDefault("port", 3000)
	viper.SetDefault("gateway_url", "http://localhost:3000")
	viper.SetDefault("header_prefix", proxy.DefaultPrefix)
	viper.SetDefault("oidc_data", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("file.max_bytes", client.DefaultMaxFileBytes)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// newLogger builds the process logger from log.level and log.format.
func newLogger() (*slog.Logger, error) {
	level := viper.GetString("log.level")
	if verbose {
		level = "debug"
	}
	return logging.New(level, viper.GetString("log.format"), os.Stderr)
}

// newClient returns a gateway client configured from viper.
func newClient(blobs *blob.Store) (*client.Client, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	c := client.New(viper.GetString("gateway_url"), blobs)
	c.MaxFileBytes = viper.GetInt64("file.max_bytes")
	c.Log = logger
	if token := viper.GetString("oidc_data"); token != "" {
		c.Header.Set("X-Amzn-Oidc-Data", token)
	}
	ui.VerboseLog("gateway %s", c.BaseURL)
	return c, nil
}

func newAggregator(c *client.Client) *aggregate.Aggregator {
	return aggregate.New(c, c.Log)
}

func stateDir() string {
	if dir := viper.GetString("state_dir"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "scout")
}
