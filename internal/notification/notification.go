package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/platformkit/identity-service/internal/notification/templates"
)

// Channel identifies the delivery medium for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
)

// DeliveryError reports a failed dispatch. Callers decide whether delivery
// failure is fatal: account-creation flows log and continue, while explicit
// "send me a code" flows must surface it.
type DeliveryError struct {
	Channel   Channel
	Recipient string
	cause     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s via %s failed: %v", e.Recipient, e.Channel, e.cause)
}

func (e *DeliveryError) Unwrap() error { return e.cause }

// Content holds the channel-specific message data.
type Content struct {
	EmailSubject  string
	EmailHTMLBody string
}

// Notification is the universal object used to send any notification.
type Notification struct {
	Recipient string
	Channels  []Channel
	Content   Content
}

// Sender delivers a single message over one medium.
type emailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service is the main interface for the notification system.
//
// Send is synchronous and returns a *DeliveryError on failure; callers that
// want fire-and-forget semantics wrap it in a goroutine and log.
type Service interface {
	Send(ctx context.Context, n Notification) error
}

type service struct {
	log         *slog.Logger
	emailSender emailSender
}

// NewService creates a new notification service.
func NewService(log *slog.Logger, emailSender emailSender) Service {
	return &service{log: log, emailSender: emailSender}
}

// Send routes the notification to each requested channel. The first failure
// is returned as a *DeliveryError.
func (s *service) Send(ctx context.Context, n Notification) error {
	for _, ch := range n.Channels {
		switch ch {
		case ChannelEmail:
			s.log.Info("dispatching email notification", "recipient", n.Recipient)
			if err := s.emailSender.Send(ctx, n.Recipient, n.Content.EmailSubject, n.Content.EmailHTMLBody); err != nil {
				return &DeliveryError{Channel: ch, Recipient: n.Recipient, cause: err}
			}
		default:
			s.log.Warn("unsupported notification channel", "channel", ch)
		}
	}
	return nil
}

// SendTemplate renders a template scenario and dispatches it over email.
func SendTemplate[T any](ctx context.Context, svc Service, engine *templates.Engine, h templates.Handle[T], recipient string, data T) error {
	rendered, err := templates.Render(ctx, engine, h, data)
	if err != nil {
		return fmt.Errorf("render template %s: %w", h.ID(), err)
	}
	return svc.Send(ctx, Notification{
		Recipient: recipient,
		Channels:  []Channel{ChannelEmail},
		Content: Content{
			EmailSubject:  rendered.Subject,
			EmailHTMLBody: rendered.EmailHTML,
		},
	})
}
