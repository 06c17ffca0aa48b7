package commands

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/balkashynov/punch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the attendance API from the local database",
	Long: `Serve the attendance HTTP API under /api, backed by the local database.
Other punch clients can point api.base_url at it and run with --remote.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		store, err := a.requireLocal()
		if err != nil {
			return err
		}
		validator, err := newValidator(a.cfg, a.loc)
		if err != nil {
			return err
		}

		addr := a.cfg.Server.Listen
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			addr = listen
		}

		if a.cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		return server.New(store, validator, a.logger).Run(cmd.Context(), addr)
	}),
}

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (default server.listen, :8080)")
}
