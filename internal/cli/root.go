package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/reltext/internal/model"
)

// Version is set at build time with -ldflags "-X github.com/ppiankov/reltext/internal/cli.Version=..."
var Version = "dev"

const envPrefix = "RELTEXT"

var (
	cfgFile string
	verbose bool

	// configErr holds a config file error from initConfig until a command can return it
	configErr error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reltext",
	Short: "reltext - named-entity relation extraction for Russian texts",
	Long: `reltext reads a corpus of Russian texts, annotates them with named
entities and dependency syntax, and reports how often

  - persons and locations appear in the same text,
  - persons act as the subject of a verb (with its tense),
  - locations and organizations appear in the same text,
  - organizations act as the subject of a verb.

Linguistic annotation is delegated to a backend: an HTTP service, an
external command, pre-computed CoNLL-U files, or an LLM.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reltext %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.reltext/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to a rotating file instead of stderr")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	configErr = setupViper(viper.GetViper(), cfgFile)
	if configErr == nil && verbose && viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setupViper registers defaults, environment variables and the config file on v
func setupViper(v *viper.Viper, file string) error {
	if err := setDefaults(v); err != nil {
		return err
	}

	// Read in environment variables that match RELTEXT_*, with nested keys joined by "_"
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		// Use config file from the flag
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			// No home directory, defaults and environment only
			return nil
		}
		v.AddConfigPath(filepath.Join(home, ".reltext"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// setDefaults registers every field of model.DefaultConfig as a viper default,
// so environment variables can override keys missing from the config file
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	flattenDefaults(v, "", tree)

	// omitempty keys
	for _, key := range []string{"annotator.api_key", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		v.SetDefault(key, "")
	}
	return nil
}

func flattenDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			flattenDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig decodes the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	// Every key has a viper default, so decode into a zero value
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Annotator.APIKey == "" {
		switch strings.ToLower(cfg.Annotator.Backend) {
		case "openai":
			cfg.Annotator.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.Annotator.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if v.GetBool("verbose") {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
