// Package main provides the entry point for the netgraph CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/config"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/logging"
)

var version = "0.1.0"

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", Bad.Sprint("Error:"), err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netgraph",
		Short: "netgraph - force-directed network diagrams",
		Long: Brand.Sprint("netgraph") + " - lay out, search and serve network topologies\n" +
			Subtle.Sprint("Render node-link documents, Kubernetes clusters and FortiOS policies"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				c.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				c.Log.Format = logFormat
			}
			if err := c.Validate(); err != nil {
				return err
			}
			logging.Setup(c.Log, os.Stderr)
			cfg = c
			return nil
		},
	}
	cmd.SetVersionTemplate("netgraph {{ .Version }}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "log format: text, json")

	cmd.AddCommand(
		renderCmd(),
		snapshotCmd(),
		viewCmd(),
		findCmd(),
		k8sCmd(),
		fortiosCmd(),
		serveCmd(),
		configCmd(),
	)
	return cmd
}
