package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"miro-gateway/internal/settings"
)

// cfg holds flag values and environment bindings for every command.
var cfg = viper.New()

var errColor = color.New(color.FgRed, color.Bold)

var rootCmd = &cobra.Command{
	Use:   "miro-gateway",
	Short: "Miro board and feature generation gateway",
	Long: `miro-gateway proxies read requests to the Miro REST API and turns epic
descriptions into candidate features using an OpenAI-compatible chat
completion service.

Configuration comes from the environment (MIRO_ACCESS_TOKEN, OPENAI_API_KEY,
ENVIRONMENT, ...) and can be overridden with flags.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errColor.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("env", "", "environment name used to pick the logging profile")
	pf.String("log-config", "", "path to a YAML logging profiles file")
	pf.String("param-prefix", "", "SSM parameter prefix holding API tokens")
	pf.Duration("timeout", 0, "timeout for upstream calls")

	mustBind(settings.KeyEnvironment, pf.Lookup("env"))
	mustBind(settings.KeyLogConfig, pf.Lookup("log-config"))
	mustBind(settings.KeyParamPrefix, pf.Lookup("param-prefix"))
	mustBind(settings.KeyUpstreamTimeout, pf.Lookup("timeout"))
}
