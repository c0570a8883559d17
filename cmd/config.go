package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "scout"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage scout configuration.

Running bare 'scout config' is the same as 'scout config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

const configTemplate = `# scout configuration
# See: scout config show (for effective values and sources)

# Analysis backend origin. BACKEND_HOST in the environment also sets this.
backend_host: "{{ .BackendHost }}"

# Gateway listen port (scout serve)
port: {{ .Port }}

# Gateway base URL used by the CLI commands
gateway_url: "{{ .GatewayURL }}"

# Only request headers starting with this prefix reach the backend
header_prefix: "{{ .HeaderPrefix }}"

# Identity header sent by CLI commands when not behind the load balancer
# oidc_data: ""

log:
  # debug, info, warn, error
  level: "{{ .LogLevel }}"
  # text or json
  format: "{{ .LogFormat }}"

file:
  # Largest file download accepted, in bytes
  max_bytes: {{ .FileMaxBytes }}
`

type configTemplateData struct {
	BackendHost  string
	Port         int
	GatewayURL   string
	HeaderPrefix string
	LogLevel     string
	LogFormat    string
	FileMaxBytes int64
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	data := configTemplateData{
		BackendHost:  viper.GetString("backend_host"),
		Port:         viper.GetInt("port"),
		GatewayURL:   viper.GetString("gateway_url"),
		HeaderPrefix: viper.GetString("header_prefix"),
		LogLevel:     viper.GetString("log.level"),
		LogFormat:    viper.GetString("log.format"),
		FileMaxBytes: viper.GetInt64("file.max_bytes"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
// EnvVars are checked in order.
type configKeyInfo struct {
	Key     string
	EnvVars []string
	Secret  bool
}

var configKeys = []configKeyInfo{
	{Key: "backend_host", EnvVars: []string{"SCOUT_BACKEND_HOST", "BACKEND_HOST"}},
	{Key: "port", EnvVars: []string{"SCOUT_PORT"}},
	{Key: "gateway_url", EnvVars: []string{"SCOUT_GATEWAY_URL"}},
	{Key: "header_prefix", EnvVars: []string{"SCOUT_HEADER_PREFIX"}},
	{Key: "oidc_data", EnvVars: []string{"SCOUT_OIDC_DATA"}, Secret: true},
	{Key: "log.level", EnvVars: []string{"SCOUT_LOG_LEVEL"}},
	{Key: "log.format", EnvVars: []string{"SCOUT_LOG_FORMAT"}},
	{Key: "file.max_bytes", EnvVars: []string{"SCOUT_FILE_MAX_BYTES"}},
	{Key: "state_dir", EnvVars: []string{"SCOUT_STATE_DIR"}},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := fmt.Sprint(viper.Get(k.Key))
		if k.Secret && val != "" {
			val = "********"
		}
		fmt.Fprintf(ui.Out, "  %-16s %s  %s\n", k.Key, val, detectSource(k.Key, k.EnvVars, fileValues))
	}
	return nil
}

// readConfigFileValues reads the raw YAML file and returns the dot-notation keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	flattenKeys("", parsed, result)
	return result
}

func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource reports where a config value comes from: env, file, or default.
func detectSource(key string, envVars []string, fileValues map[string]bool) string {
	for _, env := range envVars {
		if _, ok := os.LookupEnv(env); ok {
			return fmt.Sprintf("(env: %s)", env)
		}
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set, e.g. export EDITOR=vim")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'scout config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	// EDITOR may carry arguments, e.g. "code --wait".
	parts := strings.Fields(editor)
	editCmd := exec.Command(parts[0], append(parts[1:], cfgPath)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
