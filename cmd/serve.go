package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/leandro-lugaresi/hub"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trackpoint-app/realtime/router"
	"github.com/trackpoint-app/realtime/service/counter"
	"github.com/trackpoint-app/realtime/service/notification"
	"github.com/trackpoint-app/realtime/service/readstate"
	"github.com/trackpoint-app/realtime/service/typing"
	"github.com/trackpoint-app/realtime/service/ws"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the realtime API",
		Run: func(_ *cobra.Command, _ []string) {
			logger := getLogger()
			defer logger.Sync()

			logger.Info(fmt.Sprintf("trackpoint-realtime %s (revision %s)", Version, Revision))

			if len(c.JWT.Secret) == 0 {
				logger.Fatal("jwt.secret is required")
			}

			// Message Hub
			hub := hub.New()

			// Realtime services
			oc := counter.NewOnlineCounter(hub)
			tm := typing.NewManager(hub, time.Duration(c.Realtime.TypingExpirySeconds)*time.Second)
			tracker := readstate.NewTracker(hub, nil)
			streamer := ws.NewStreamer(hub, oc, tm, logger)
			notification.NewService(hub, logger, streamer, oc)

			e := router.Setup(streamer, oc, tracker, logger, &router.Config{
				JWTSecret: []byte(c.JWT.Secret),
				Origin:    c.Origin,
				Version:   fmt.Sprintf("%s.%s", Version, Revision),
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := e.Start(fmt.Sprintf(":%d", c.Port)); err != nil {
					logger.Info("shutting down the server")
				}
			}()
			logger.Info("trackpoint-realtime started", zap.Int("port", c.Port))

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			g, gctx := errgroup.WithContext(shutdownCtx)
			g.Go(func() error {
				return streamer.Close()
			})
			g.Go(func() error {
				return e.Shutdown(gctx)
			})
			if err := g.Wait(); err != nil {
				logger.Warn("abnormal shutdown", zap.Error(err))
			}
			logger.Info("trackpoint-realtime stopped")
		},
	}
}
