package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Notification event types emitted by the orchestrator.
const (
	NotificationRegistrationSubmitted = "registration_submitted"
	NotificationRegistrationApproved  = "registration_approved"
	NotificationRegistrationRejected  = "registration_rejected"
	NotificationRegistrationCancelled = "registration_cancelled"
	NotificationAttendanceRecorded    = "attendance_recorded"
)

// NotificationEvent is the payload handed to the notification sink.
type NotificationEvent struct {
	Type           string         `json:"type"`
	RegistrationID uint           `json:"registration_id"`
	ActivityID     uint           `json:"activity_id"`
	RecipientID    uint           `json:"recipient_id"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// Notifier delivers lifecycle events to registrants. Delivery is
// fire-and-forget: failures are logged by callers and never roll back the
// transition that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent) error
}

// LogNotifier records events to the application log; the default sink when
// no message broker is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a logging notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Notify logs the event and reports success.
func (n *LogNotifier) Notify(ctx context.Context, event NotificationEvent) error {
	n.logger.Info().
		Str("type", event.Type).
		Uint("registration_id", event.RegistrationID).
		Uint("recipient_id", event.RecipientID).
		Msg("notification emitted")
	return nil
}

// NATSNotifier publishes events to a NATS subject per event type.
type NATSNotifier struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewNATSNotifier constructs a NATS-backed notifier. Events publish to
// "<base>.<type>", e.g. drl.notifications.registration_approved.
func NewNATSNotifier(conn *nats.Conn, subjectBase string, logger zerolog.Logger) *NATSNotifier {
	if subjectBase == "" {
		subjectBase = "drl.notifications"
	}

	return &NATSNotifier{
		conn:        conn,
		subjectBase: subjectBase,
		logger:      logger.With().Str("component", "nats_notifier").Logger(),
	}
}

// Notify publishes the event as JSON.
func (n *NATSNotifier) Notify(ctx context.Context, event NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", n.subjectBase, event.Type)
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	n.logger.Debug().Str("subject", subject).Uint("registration_id", event.RegistrationID).Msg("notification published")
	return nil
}
