package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akoszegi/paintbot/internal/inference"
	"github.com/akoszegi/paintbot/internal/model"
)

// UnavailableText is the reply for any non-quota generation failure. It is
// fixed: the underlying reason stays in the logs and never reaches the chat.
const UnavailableText = "Sorry, image generation is temporarily unavailable. Please try again later."

// dispatchOne forwards one prompt to the generator and delivers exactly one
// reply based on the outcome. Delivery failures are logged, never escalated.
// The only non-nil return is an inference credential rejection, reported
// after the user has been answered so the loop can terminate.
func (l *Loop) dispatchOne(ctx context.Context, msg model.InboundMessage) error {
	slog.Info("message received",
		"sender", msg.Sender,
		"chat_id", msg.ChatID,
		"prompt", msg.Text,
	)

	out := l.generator.Generate(ctx, msg.Text)

	var outcome string
	switch out.Kind {
	case inference.OutcomeImage:
		outcome = model.OutcomeImage
		if err := l.transport.DeliverImage(ctx, msg.ChatID, out.Image, msg.Text); err != nil {
			slog.Warn("image delivery failed", "chat_id", msg.ChatID, "error", err)
		} else {
			slog.Info("image delivered", "chat_id", msg.ChatID, "bytes", len(out.Image))
		}

	case inference.OutcomeQuota:
		outcome = model.OutcomeQuota
		if err := l.transport.DeliverText(ctx, msg.ChatID, out.Notice); err != nil {
			slog.Warn("quota notice delivery failed", "chat_id", msg.ChatID, "error", err)
		}

	default:
		outcome = model.OutcomeFailure
		slog.Warn("generation failed", "chat_id", msg.ChatID, "error", out.Reason)
		if err := l.transport.DeliverText(ctx, msg.ChatID, UnavailableText); err != nil {
			slog.Warn("failure notice delivery failed", "chat_id", msg.ChatID, "error", err)
		}
	}

	if l.onDelivered != nil {
		l.onDelivered(ctx, model.DeliveryRecord{
			ChatID:      msg.ChatID,
			Sender:      msg.Sender,
			Prompt:      msg.Text,
			Outcome:     outcome,
			DeliveredAt: time.Now().UTC(),
		})
	}

	if out.Kind == inference.OutcomeFailure && inference.IsAuth(out.Reason) {
		return fmt.Errorf("inference credentials rejected: %w", out.Reason)
	}
	return nil
}
