package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/storeadmin/internal/core/events"
	"github.com/frahmantamala/storeadmin/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the audit event bus: publish sample auth events through the audit logger`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample auth event",
	Long:      `Publish a sample auth event synchronously so the audit log line can be inspected`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeLoginSucceeded, events.EventTypeLoginFailed, events.EventTypeTokenRefreshed, events.EventTypeAccessDenied},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventUserID   int64
	eventUsername string
)

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeLoginSucceeded:
		return events.NewLoginSucceededEvent(eventUserID, eventUsername), nil
	case events.EventTypeLoginFailed:
		return events.NewLoginFailedEvent(eventUsername, "invalid_password"), nil
	case events.EventTypeTokenRefreshed:
		return events.NewTokenRefreshedEvent(eventUserID), nil
	case events.EventTypeAccessDenied:
		return events.NewAccessDeniedEvent(eventUserID, "GET", "/api/v1/users", "users.view", "insufficient_permissions"), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	event, err := sampleEvent(eventType)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLogger(bus, lg)

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 1, "user id carried by the event")
	publishEventCmd.Flags().StringVar(&eventUsername, "username", "superadmin", "username carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
