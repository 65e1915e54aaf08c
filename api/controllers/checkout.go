package controllers

import (
	"context"
	"net/http"

	"github.com/omarkhaled/stayhub-backend/api/responses"
	"github.com/omarkhaled/stayhub-backend/api/validators"
	"github.com/omarkhaled/stayhub-backend/internal/payments"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
)

// CheckoutService opens payment attempts for bookings.
type CheckoutService interface {
	CreateCheckout(ctx context.Context, input payments.CreateCheckoutInput) (*payments.CheckoutDTO, error)
}

type createCheckoutRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid4"`
}

// CreateCheckout mints a merchant reference for a booking so the client can
// start the processor's payment flow.
func CreateCheckout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		guestID, err := authenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createCheckoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingID, err := validators.ParseUUID(req.BookingID, "booking_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.CreateCheckout(ctx, payments.CreateCheckoutInput{
			BookingID: bookingID,
			GuestID:   guestID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
