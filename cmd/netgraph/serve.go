package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/api"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/config"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and diagram pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.Store.DataDir = dataDir
			}

			logger := slog.Default()
			st, err := store.New(cfg.Store.DataDir, logger)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			srv, err := api.NewServer(cfg, st, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Serving", "addr", cfg.Server.Addr, "data_dir", st.Root())
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "upload directory (default from config)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.Write(os.Stdout, cfg)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := configPath
				if path == "" {
					path = config.DefaultPath()
				}
				if _, err := os.Stat(path); err == nil {
					Warn.Printf("  %s already exists\n", path)
					return nil
				}
				if err := config.Save(path, config.Default()); err != nil {
					return err
				}
				fmt.Printf("%s Config written to: %s\n", statusIcon(true), Info.Sprint(path))
				return nil
			},
		},
	)
	return cmd
}
