package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/c4/parser"
	"github.com/c360studio/c4/server"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		host     string
		port     int
		noReload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dev server with live reload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(filepath.Join(e.dir, parser.ManifestFile)); err != nil {
				return errNoWorkspace
			}

			sc := e.cfg.Server
			if cmd.Flags().Changed("host") {
				sc.Host = host
			}
			if cmd.Flags().Changed("port") {
				sc.Port = port
			}
			if noReload {
				sc.NoReload = true
			}
			e.cfg.Server = sc
			if err := e.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			srvCfg := server.Config{
				Host:     sc.Host,
				Port:     sc.Port,
				WorkDir:  e.dir,
				NoReload: sc.NoReload,
				Debounce: sc.Debounce,
			}
			srv := server.New(srvCfg, e.logger)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			fmt.Fprintf(cmd.OutOrStdout(), "%s Serving %s at http://%s\n",
				successStyle.Render("✓"), e.dir, srvCfg.Addr())
			if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			e.logger.Info("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind address (default from config: localhost)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from config: 4400)")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "Disable the file watcher")

	return cmd
}
