package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/internal/notifications"
	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	apperrors "github.com/omarkhaled/stayhub-backend/pkg/errors"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/metrics"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Payments PaymentRepository
	Bookings BookingRepository
	Notifier notifications.Notifier
	Tx       TxRunner
	Metrics  *metrics.ReconciliationMetrics
	Logger   *logger.Logger
}

// Service applies verified processor callbacks to payments and bookings, and
// opens new payment attempts at checkout.
type Service interface {
	ApplyTransaction(ctx context.Context, cb *paymob.TransactionCallback) (*ProcessResult, error)
	CreateCheckout(ctx context.Context, input CreateCheckoutInput) (*CheckoutDTO, error)
}

type service struct {
	payments PaymentRepository
	bookings BookingRepository
	notifier notifications.Notifier
	tx       TxRunner
	metrics  *metrics.ReconciliationMetrics
	logger   *logger.Logger
}

// NewService validates the wiring and returns a payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifier == nil {
		params.Notifier = notifications.NewLogNotifier(params.Logger)
	}
	return &service{
		payments: params.Payments,
		bookings: params.Bookings,
		notifier: params.Notifier,
		tx:       params.Tx,
		metrics:  params.Metrics,
		logger:   params.Logger,
	}, nil
}

// ApplyTransaction processes one verified transaction callback. Events that
// match no payment, carry an intermediate pending flag, or target a payment
// already in a terminal state are acknowledged without a write. State changes
// to the payment and its booking commit in a single transaction; the guest
// notification runs after commit and its failure is swallowed.
func (s *service) ApplyTransaction(ctx context.Context, cb *paymob.TransactionCallback) (*ProcessResult, error) {
	res, err := NormalizeCallback(cb)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "malformed transaction callback")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"provider_txn_id":   res.TransactionID,
		"provider_order_id": res.OrderID,
		"merchant_ref":      res.MerchantRef,
	})

	if res.Pending {
		// Intermediate notification; the terminal callback follows.
		s.logger.Info(ctx, "payment.webhook.pending_event_skipped")
		s.observe("ignored")
		return &ProcessResult{Outcome: OutcomeIgnored}, nil
	}

	var (
		result           *ProcessResult
		confirmedBooking *models.Booking
	)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payRepo := s.payments.WithTx(tx)
		bookRepo := s.bookings.WithTx(tx)

		payment, strategy, err := resolvePayment(ctx, payRepo, res)
		if err != nil {
			return err
		}
		if payment == nil {
			s.logger.Info(ctx, "payment.webhook.no_match")
			result = &ProcessResult{Outcome: OutcomeIgnored}
			return nil
		}

		ctx = s.logger.WithFields(ctx, map[string]any{
			"payment_id":      payment.ID.String(),
			"lookup_strategy": strategy,
		})

		if payment.Status.IsTerminal() {
			s.logger.Info(ctx, "payment.webhook.duplicate_event")
			result = &ProcessResult{
				Outcome:       OutcomeAlreadyProcessed,
				PaymentID:     &payment.ID,
				PaymentStatus: payment.Status,
			}
			return nil
		}

		booking, err := bookRepo.FindByID(ctx, payment.BookingID)
		if err != nil {
			return fmt.Errorf("loading booking %s: %w", payment.BookingID, err)
		}

		if res.Success {
			s.applyPaid(payment, res)
			booking.Status = enums.BookingStatusConfirmed
			booking.PaymentStatus = enums.BookingPaymentStatusPaid
			booking.PaymentID = &payment.ID
			confirmedBooking = booking
		} else {
			s.applyFailed(payment, res)
			booking.PaymentStatus = enums.BookingPaymentStatusFailed
		}

		if err := payRepo.Update(ctx, payment); err != nil {
			return fmt.Errorf("updating payment: %w", err)
		}
		if err := bookRepo.Update(ctx, booking); err != nil {
			return fmt.Errorf("updating booking: %w", err)
		}

		result = &ProcessResult{
			Outcome:       OutcomeProcessed,
			PaymentID:     &payment.ID,
			PaymentStatus: payment.Status,
		}
		return nil
	})
	if err != nil {
		s.observe("error")
		return nil, err
	}

	if confirmedBooking != nil {
		if err := s.notifier.BookingConfirmed(ctx, confirmedBooking); err != nil {
			s.logger.Warn(ctx, fmt.Sprintf("booking confirmation notification failed: %v", err))
		}
	}

	s.observe(string(result.Outcome))
	if result.Outcome == OutcomeProcessed {
		s.logger.Info(ctx, fmt.Sprintf("payment.webhook.applied status=%s", result.PaymentStatus))
	}
	return result, nil
}

func (s *service) applyPaid(payment *models.Payment, res *WebhookResult) {
	now := time.Now().UTC()
	payment.Status = enums.PaymentStatusPaid
	payment.PaidAt = &now
	payment.ProviderTxnID = strPtr(res.TransactionID)
	if payment.ProviderOrderID == nil {
		payment.ProviderOrderID = strPtr(res.OrderID)
	}
	payment.CardType = strPtr(res.PaymentMethod)
	payment.CardSubType = strPtr(res.CardSubType)
	payment.CardLast4 = strPtr(res.CardLast4)
}

func (s *service) applyFailed(payment *models.Payment, res *WebhookResult) {
	payment.Status = enums.PaymentStatusFailed
	payment.ProviderTxnID = strPtr(res.TransactionID)
	if payment.ProviderOrderID == nil {
		payment.ProviderOrderID = strPtr(res.OrderID)
	}
	if res.ErrorMessage != "" {
		payment.ErrorMessage = strPtr(res.ErrorMessage)
	}
}

// CreateCheckout opens a fresh payment attempt for a booking that still
// awaits payment. The merchant reference minted here is what ties the
// processor callback back to this attempt.
func (s *service) CreateCheckout(ctx context.Context, input CreateCheckoutInput) (*CheckoutDTO, error) {
	booking, err := s.bookings.FindByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "booking not found")
		}
		return nil, err
	}
	if booking.GuestID != input.GuestID {
		return nil, apperrors.New(apperrors.CodeForbidden, "booking belongs to another guest")
	}
	if booking.Status != enums.BookingStatusPendingPayment {
		return nil, apperrors.New(apperrors.CodeValidation, "booking is not awaiting payment")
	}
	if booking.PaymentStatus == enums.BookingPaymentStatusPaid {
		return nil, apperrors.New(apperrors.CodeValidation, "booking is already paid")
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		BookingID:   booking.ID,
		MerchantRef: fmt.Sprintf("stay-%s", uuid.NewString()),
		Status:      enums.PaymentStatusPending,
		AmountCents: booking.TotalCents,
		Currency:    booking.Currency,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("creating payment attempt: %w", err)
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"booking_id":   booking.ID.String(),
		"payment_id":   payment.ID.String(),
		"merchant_ref": payment.MerchantRef,
	})
	s.logger.Info(ctx, "payment.checkout.created")

	return &CheckoutDTO{
		PaymentID:   payment.ID,
		MerchantRef: payment.MerchantRef,
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
	}, nil
}

func (s *service) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveWebhook("payment", result)
	}
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
