package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"magpie/internal/logging"
)

const envPrefix = "MAGPIE"

// Config holds CLI configuration.
type Config struct {
	ConfigDir      string
	ConfigFile     string
	ServerURL      string
	APIToken       string
	DBPath         string
	LogPath        string
	LogLevel       string
	SearchDebounce time.Duration
	RequestTimeout time.Duration
	RetryMax       int
}

type flagValues struct {
	configFile string
	serverURL  string
	token      string
	dbPath     string
	logPath    string
	logLevel   string
}

// ParseFlags parses the command line and returns configuration. A nil config
// with a nil error means the command only printed help or the version.
func ParseFlags(version string) (*Config, error) {
	var config *Config
	root := newRootCmd(version, func(c *Config) error {
		config = c
		return nil
	})
	if err := root.Execute(); err != nil {
		return nil, err
	}
	return config, nil
}

func newRootCmd(version string, run func(*Config) error) *cobra.Command {
	var flags flagValues
	rootCmd := &cobra.Command{
		Use:   "magpie",
		Short: "Terminal console for a proxy checking service",
		Long: `magpie browses the proxies and scraping sources of a proxy checking server.

Settings are read from ~/.magpie/config.yaml and MAGPIE_* environment
variables; flags override both.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := load(cmd, flags)
			if err != nil {
				return err
			}
			return run(config)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "Configuration file path (default: ~/.magpie/config.yaml)")
	pf.StringVar(&flags.serverURL, "server", "", "Proxy server base URL (or set MAGPIE_SERVER_URL)")
	pf.StringVar(&flags.token, "token", "", "API token (or set MAGPIE_API_TOKEN)")
	pf.StringVar(&flags.dbPath, "db", "", "Path to SQLite database file (default: ~/.magpie/magpie.db)")
	pf.StringVar(&flags.logPath, "log", "", "Path to log file (default: ~/.magpie/magpie.log)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	return rootCmd
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server_url", "")
	v.SetDefault("api_token", "")
	v.SetDefault("onboarded", false)
	v.SetDefault("db_path", filepath.Join(configDir, "magpie.db"))
	v.SetDefault("log_path", filepath.Join(configDir, "magpie.log"))
	v.SetDefault("log_level", "info")
	v.SetDefault("search_debounce", 300*time.Millisecond)
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("retry_max", 2)
}

func load(cmd *cobra.Command, flags flagValues) (*Config, error) {
	// Load .env files first so env-based settings apply to viper's lookups.
	loadDotEnv(".env")
	loadDotEnv(".env.local")

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	configDir := filepath.Join(home, ".magpie")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, configDir)
	if flags.configFile != "" {
		v.SetConfigFile(flags.configFile)
	} else {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	bindings := map[string]string{
		"server_url": "server",
		"api_token":  "token",
		"db_path":    "db",
		"log_path":   "log",
		"log_level":  "log-level",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	if shouldRunOnboarding(v) {
		path := flags.configFile
		if path == "" {
			path = configPath(configDir)
		}
		if _, err := runOnboarding(path, configDir, v.GetString("server_url"), v.GetString("api_token")); err != nil {
			return nil, fmt.Errorf("failed to run onboarding: %w", err)
		}
		v.SetConfigFile(path)
		if err := readConfig(v); err != nil {
			return nil, err
		}
	}

	config := &Config{
		ConfigDir:      configDir,
		ConfigFile:     v.ConfigFileUsed(),
		ServerURL:      strings.TrimRight(strings.TrimSpace(v.GetString("server_url")), "/"),
		APIToken:       strings.TrimSpace(v.GetString("api_token")),
		DBPath:         v.GetString("db_path"),
		LogPath:        v.GetString("log_path"),
		LogLevel:       v.GetString("log_level"),
		SearchDebounce: v.GetDuration("search_debounce"),
		RequestTimeout: v.GetDuration("request_timeout"),
		RetryMax:       v.GetInt("retry_max"),
	}

	if config.APIToken == "" {
		token, err := loadSecureToken(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load API token: %w", err)
		}
		config.APIToken = token
	}
	if config.ServerURL == "" {
		return nil, errors.New("no server URL configured: pass --server or set MAGPIE_SERVER_URL")
	}

	watchLogLevel(v)
	return config, nil
}

// readConfig reads the config file if there is one. A missing file is not an
// error; settings then come from defaults, the environment and flags.
func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
}

// watchLogLevel applies log_level edits in the config file while running.
func watchLogLevel(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	if _, err := os.Stat(v.ConfigFileUsed()); err != nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		logging.SetGlobalLevel(logging.ParseLevel(v.GetString("log_level")))
	})
	v.WatchConfig()
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseDotEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

func parseDotEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.Trim(strings.TrimSpace(value), `"'`), true
}
