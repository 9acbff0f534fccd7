// Package cli wires the commands: running the insight pipeline, serving the
// bundled insight service, importing transcripts, and browsing sources.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/insightmap/insightmap/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "insightmap",
	Short: "insightmap - turn customer research into placed journey-map insights",
	Long: `insightmap combines interview transcripts and survey responses into one
dataset, generates candidate insights from it, ranks where each belongs on a
customer-journey map, and writes the accepted insights back onto the map.

The generation and matching endpoints are ordinary HTTP services; a bundled
implementation is available via "insightmap serve".`,
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
		fmt.Println("insightmap v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.insightmap/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".insightmap"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("INSIGHTMAP")
	// Dotted config keys map to underscored env vars: llm.provider
	// becomes INSIGHTMAP_LLM_PROVIDER.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration: defaults overridden by
// the config file and INSIGHTMAP_* environment variables
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("service.base_url"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := viper.GetDuration("service.timeout"); v > 0 {
		cfg.Service.Timeout = v
	}
	if v := viper.GetString("service.user_agent"); v != "" {
		cfg.Service.UserAgent = v
	}
	if v := viper.GetString("store.dir"); v != "" {
		cfg.Store.Dir = v
	}
	if v := viper.GetDuration("store.memory_ttl"); v > 0 {
		cfg.Store.MemoryTTL = v
	}
	if v := viper.GetDuration("pipeline.analyze_delay"); v > 0 {
		cfg.Pipeline.AnalyzeDelay = v
	}
	if v := viper.GetString("insightd.addr"); v != "" {
		cfg.Insightd.Addr = v
	}
	if v := viper.GetFloat64("insightd.requests_per_minute"); v > 0 {
		cfg.Insightd.RequestsPerMinute = v
	}
	if v := viper.GetInt("insightd.burst"); v > 0 {
		cfg.Insightd.Burst = v
	}
	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.api_key"); v != "" {
		cfg.LLM.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := viper.GetInt("concurrency.ingest_workers"); v > 0 {
		cfg.Concurrency.IngestWorkers = v
	}

	if cfg.Store.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Store.Dir = filepath.Join(home, ".insightmap", "data")
		} else {
			cfg.Store.Dir = ".insightmap-data"
		}
	}
	if cfg.Store.MemoryTTL <= 0 {
		cfg.Store.MemoryTTL = 15 * time.Minute
	}
	return cfg
}
