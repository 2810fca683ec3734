package cli

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/melih/lighthouse-build/internal/adapters/http"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeEngine, err := root.newService()
			if err != nil {
				return err
			}
			defer closeEngine()

			app := fiber.New(fiber.Config{DisableStartupMessage: true})
			http.NewBuildHandler(svc, svc).Register(app.Group("/api").Group("/v1"))

			go func() {
				<-cmd.Context().Done()
				slog.Info("shutting down")
				app.Shutdown()
			}()

			slog.Info("server listening", "addr", listen)
			return app.Listen(listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":3000", "address to listen on")
	return cmd
}
