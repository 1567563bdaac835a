package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HossamJa/devops-capstone-project/shared/events"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var group, consumer string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Log account events from the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.RedisEnabled() {
				return fmt.Errorf("watch requires REDIS_ADDR")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rc, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer rc.Close()

			if consumer == "" {
				consumer, _ = os.Hostname()
			}
			subscriber := events.NewSubscriber(rc.Client, events.SubscriberConfig{
				Group:    group,
				Consumer: consumer,
				Stream:   events.AccountEventsStream,
				Handler:  logEvent,
			})
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "account-audit", "consumer group name")
	cmd.Flags().StringVar(&consumer, "consumer", "", "consumer name (default hostname)")
	return cmd
}

func logEvent(ctx context.Context, event events.Event) error {
	log.Info().
		Str("type", event.Type).
		Time("timestamp", event.Timestamp).
		Interface("data", event.Data).
		Msg("Account event")
	return nil
}
