package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-go-golems/arbor/pkg/persist"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Branching conversation trees with an AI assistant",
	Long: `arbor keeps conversations as trees instead of transcripts: select a
fragment of any past message and branch a new sub-conversation from it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("ARBOR")
	viper.AutomaticEnv()
	_ = viper.BindEnv("openai-api-key", "OPENAI_API_KEY")
	_ = viper.BindEnv("model", "OPENAI_MODEL")

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetDefault("state-file", filepath.Join(home, ".arbor", "state.json"))
	viper.SetDefault("log-level", "warn")
	viper.SetDefault("debounce", persist.DefaultDebounce)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join(home, ".arbor"))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	return nil
}

func main() {
	rootCmd.PersistentFlags().String("state-file", "", "path of the state snapshot file")
	rootCmd.PersistentFlags().String("sqlite", "", "store state in this SQLite database instead of a file")
	rootCmd.PersistentFlags().String("log-level", "warn", "zerolog level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("model", "", "OpenAI model for completions")
	rootCmd.PersistentFlags().Bool("mock", false, "use the local mock assistant even when an API key is set")
	rootCmd.PersistentFlags().Duration("debounce", persist.DefaultDebounce, "delay before persisting coalesced state changes")

	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newSessionsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
