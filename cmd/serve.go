package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8000)")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApplication(ctx)
	defer a.Close()

	srv := server.New(a.agent, server.Config{
		DataDir:        a.config.DataDir,
		AllowedOrigins: a.config.AllowedOrigins,
	}, a.logger.With(zap.String("component", "server")))

	if err := srv.ListenAndServe(ctx, a.config.Listen); err != nil {
		a.logger.Fatal("serving http", zap.Error(err))
	}
}
