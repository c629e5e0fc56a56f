package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrygo/repairdesk/server"
	"github.com/hrygo/repairdesk/server/gateway"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve the HTTP front that forwards to the backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := server.NewServer(instanceProfile, gateway.NewClientFromProfile(instanceProfile), nil)
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	},
}
