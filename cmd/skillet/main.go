package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillet/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "skillet",
	Short: "Skill orchestration for LLM agents",
	Long: `skillet assembles runtime context (instructions, tools, reference
documents) for LLM agents from declaratively-defined skills, routes skills
against free-text messages, and validates structured agent output with
automatic self-correction.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.SetLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetFormat(viper.GetString("log_format"))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	viper.SetEnvPrefix("SKILLET")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillet")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("skills-dir", "./skills", "skills root directory")
	flags.String("shared-prompt", "", "shared prompt file")
	flags.String("shared-tools", "", "shared tools directory")
	flags.String("skills-config", "", "agent configuration document")

	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("skills_dir", flags.Lookup("skills-dir"))
	_ = viper.BindPFlag("shared_prompt", flags.Lookup("shared-prompt"))
	_ = viper.BindPFlag("shared_tools", flags.Lookup("shared-tools"))
	_ = viper.BindPFlag("skills_config", flags.Lookup("skills-config"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(skillsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
