package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"camelsrating/internal/app"
	"camelsrating/internal/infrastructure"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP rating service",
		Long: `Serve the rating API under /api/camels, health checks under /api/health,
Prometheus metrics on /metrics and the run event feed on /ws. Stops
gracefully on SIGINT or SIGTERM.

Example:
  camels serve --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			application, err := app.NewApplication(cfg)
			defer infrastructure.CloseLogFile()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	return cmd
}
