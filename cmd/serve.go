package cmd

import (
	"context"
	"time"

	"github.com/claimstake/console/internal/metrics/prometheus"
	"github.com/claimstake/console/internal/shutdown"
	"github.com/claimstake/console/pkg/viewServer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the view state and actions as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a, err := newApp(ctx, &appOptions{})
		if err != nil {
			return err
		}
		defer a.close()
		l := a.logger

		activity := viewServer.NewActivityFeed(0, l)
		go activity.Consume(ctx, a.eventBus)

		if err := a.connect(ctx); err != nil {
			l.Sugar().Errorw("Failed to connect wallet", zap.Error(err))
			return err
		}

		promShutdown := make(chan bool, 1)
		if a.cfg.PrometheusConfig.Enabled {
			ps := prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{Port: a.cfg.PrometheusConfig.Port}, l)
			if err := ps.Start(promShutdown); err != nil {
				return err
			}
		}

		vs := viewServer.NewViewServer(&viewServer.ViewServerConfig{
			Port:        a.cfg.HttpConfig.Port,
			CorsOrigins: a.cfg.HttpConfig.CorsOrigins,
			Location:    a.location,
		}, a.session, a.orchestrator, a.records, a.journal, activity, a.metrics, l)

		go func() {
			if err := vs.Start(); err != nil {
				l.Sugar().Fatalw("Failed to start view server", zap.Error(err))
			}
		}()

		gracefulShutdown := shutdown.CreateGracefulShutdownChannel()

		shutdown.ListenForShutdown(ctx, gracefulShutdown, func() {
			l.Sugar().Info("Shutting down...")
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := vs.Stop(stopCtx); err != nil {
				l.Sugar().Errorw("Failed to stop view server", zap.Error(err))
			}
			promShutdown <- true
			cancel()
		}, time.Second*1, l)
		return nil
	},
}
