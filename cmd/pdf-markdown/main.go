// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-markdown CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-markdown/internal/logging"
	"github.com/pdiddy/pdf-markdown/internal/secrets"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// logRoot is the diagnostic logger built from the logging config.
	logRoot *logging.Root
)

var rootCmd = &cobra.Command{
	Use:   "pdf-markdown",
	Short: "Convert PDF documents to Markdown with a multimodal model",
	Long: `pdf-markdown converts PDF documents to Markdown by sending pages to a
multimodal model.

Image mode renders each page, asks the model for Markdown, strips marker
blocks, skips empty pages, and runs a fixup pass per page. Text mode sends
the PDF text layer in batches and carries table, list, and heading state
from each reply into the next prompt.

Configuration is read from pdf-markdown.yaml, PDF_MARKDOWN_* environment
variables, and flags, in increasing precedence. API keys may also be placed
in .secrets/ (azure-openai-api-key, anthropic-api-key, gemini-api-key).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		root, err := logging.New(loadConfig().Logging)
		if err != nil {
			return err
		}
		logRoot = root
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-markdown.yaml or ~/.config/pdf-markdown/pdf-markdown.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "diagnostic log format: console, json, pretty")
	rootCmd.PersistentFlags().String("artifacts-dir", "", "directory for intermediate artifacts and artifacts.db")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"logging.level":  "log-level",
		"logging.format": "log-format",
		"artifacts.dir":  "artifacts-dir",
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf-markdown")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf-markdown"))
		}
	}

	viper.SetEnvPrefix("PDF_MARKDOWN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("artifacts.enabled", true)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the pipeline config from viper keys and applies
// defaults.
func loadConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Conversion: types.ConversionConfig{
			Mode:        types.Mode(viper.GetString("convert.mode")),
			BatchSize:   viper.GetInt("convert.batch_size"),
			Concurrency: viper.GetInt("convert.concurrency"),
			OutDir:      viper.GetString("convert.out_dir"),
			PromptsDir:  viper.GetString("convert.prompts_dir"),
			Force:       viper.GetBool("convert.force"),
			Raster: types.RasterConfig{
				Source:    types.RasterSource(viper.GetString("convert.raster.source")),
				ImagesDir: viper.GetString("convert.raster.images_dir"),
				Image:     viper.GetString("convert.raster.image"),
				DPI:       viper.GetInt("convert.raster.dpi"),
			},
		},
		AI: types.AIConfig{
			Provider:    types.Provider(viper.GetString("ai.provider")),
			Model:       viper.GetString("ai.model"),
			Endpoint:    viper.GetString("ai.endpoint"),
			APIVersion:  viper.GetString("ai.api_version"),
			APIKey:      viper.GetString("ai.api_key"),
			BearerToken: viper.GetString("ai.bearer_token"),
			MaxTokens:   viper.GetInt("ai.max_tokens"),
			MaxRetries:  viper.GetInt("ai.max_retries"),
			Timeout:     viper.GetDuration("ai.timeout"),
		},
		Artifacts: types.ArtifactConfig{
			Enabled: viper.GetBool("artifacts.enabled"),
			Dir:     viper.GetString("artifacts.dir"),
		},
		Logging: types.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}
	return cfg.WithDefaults()
}

// bindFlags binds config keys to flags so an explicit flag overrides the
// config file and environment. keys maps config key to flag name.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			panic("unknown flag " + name)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}

func logger(name string) logging.Logger {
	if logRoot == nil {
		return logging.Nop()
	}
	return logRoot.Named(name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
