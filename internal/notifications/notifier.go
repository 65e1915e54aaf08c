package notifications

import (
	"context"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
)

// Notifier delivers guest-facing messages. Callers treat delivery as best
// effort: a notification failure must never roll back the state change that
// triggered it.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *models.Booking) error
}

// LogNotifier writes notifications to the log. The real delivery channel
// (mail/push) lives outside this service.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier returns a Notifier that only logs.
func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logg}
}

func (n *LogNotifier) BookingConfirmed(ctx context.Context, booking *models.Booking) error {
	if n.logger == nil || booking == nil {
		return nil
	}
	ctx = n.logger.WithFields(ctx, map[string]any{
		"booking_id": booking.ID.String(),
		"guest_id":   booking.GuestID.String(),
	})
	n.logger.Info(ctx, "notification.booking_confirmed")
	return nil
}
