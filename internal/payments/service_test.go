package payments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingNotifier struct {
	confirmed []uuid.UUID
	err       error
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, booking *models.Booking) error {
	n.confirmed = append(n.confirmed, booking.ID)
	return n.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Booking{}, &models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, notifier *recordingNotifier) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Payments: NewPaymentRepository(db),
		Bookings: NewBookingRepository(db),
		Notifier: notifier,
		Tx:       testTxRunner{db: db},
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedBookingWithPayment(t *testing.T, db *gorm.DB, merchantRef string) (*models.Booking, *models.Payment) {
	t.Helper()

	booking := &models.Booking{
		ID:            uuid.New(),
		ListingID:     uuid.New(),
		GuestID:       uuid.New(),
		HostID:        uuid.New(),
		CheckIn:       time.Now().Add(24 * time.Hour),
		CheckOut:      time.Now().Add(72 * time.Hour),
		Status:        enums.BookingStatusPendingPayment,
		PaymentStatus: enums.BookingPaymentStatusPending,
		TotalCents:    150_00,
		Currency:      "EGP",
	}
	if err := db.Create(booking).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		BookingID:   booking.ID,
		MerchantRef: merchantRef,
		Status:      enums.PaymentStatusPending,
		AmountCents: booking.TotalCents,
		Currency:    booking.Currency,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return booking, payment
}

func successCallback(merchantRef string, orderID, txnID int64) *paymob.TransactionCallback {
	return &paymob.TransactionCallback{
		Type: "TRANSACTION",
		Obj: &paymob.Transaction{
			ID:          txnID,
			AmountCents: 150_00,
			Currency:    "EGP",
			Success:     true,
			Order:       paymob.TransactionOrder{ID: orderID, MerchantOrderID: merchantRef},
			SourceData:  paymob.SourceData{Type: "card", SubType: "MasterCard", Pan: "2346"},
		},
	}
}

func TestApplyTransactionPaid(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := newTestService(t, db, notifier)

	booking, payment := seedBookingWithPayment(t, db, "stay-abc")

	result, err := svc.ApplyTransaction(context.Background(), successCallback("stay-abc", 9001, 7001))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s", result.Outcome)
	}
	if result.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", result.PaymentStatus)
	}

	var storedPayment models.Payment
	if err := db.First(&storedPayment, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if storedPayment.Status != enums.PaymentStatusPaid {
		t.Fatalf("payment status = %s", storedPayment.Status)
	}
	if storedPayment.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}
	if storedPayment.ProviderTxnID == nil || *storedPayment.ProviderTxnID != "7001" {
		t.Fatalf("provider txn id = %v", storedPayment.ProviderTxnID)
	}

	var storedBooking models.Booking
	if err := db.First(&storedBooking, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if storedBooking.Status != enums.BookingStatusConfirmed {
		t.Fatalf("booking status = %s", storedBooking.Status)
	}
	if storedBooking.PaymentStatus != enums.BookingPaymentStatusPaid {
		t.Fatalf("booking payment status = %s", storedBooking.PaymentStatus)
	}
	if storedBooking.PaymentID == nil || *storedBooking.PaymentID != payment.ID {
		t.Fatalf("booking payment id = %v", storedBooking.PaymentID)
	}

	if len(notifier.confirmed) != 1 || notifier.confirmed[0] != booking.ID {
		t.Fatalf("expected one confirmation notification, got %v", notifier.confirmed)
	}
}

func TestApplyTransactionFailed(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := newTestService(t, db, notifier)

	booking, payment := seedBookingWithPayment(t, db, "stay-def")

	cb := successCallback("stay-def", 9002, 7002)
	cb.Obj.Success = false
	cb.Obj.ErrorOccured = true
	cb.Obj.Data.Message = "card declined"

	result, err := svc.ApplyTransaction(context.Background(), cb)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != OutcomeProcessed || result.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("unexpected result %+v", result)
	}

	var storedPayment models.Payment
	if err := db.First(&storedPayment, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if storedPayment.Status != enums.PaymentStatusFailed {
		t.Fatalf("payment status = %s", storedPayment.Status)
	}
	if storedPayment.ErrorMessage == nil || *storedPayment.ErrorMessage != "card declined" {
		t.Fatalf("error message = %v", storedPayment.ErrorMessage)
	}

	var storedBooking models.Booking
	if err := db.First(&storedBooking, "id = ?", booking.ID).Error; err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if storedBooking.Status != enums.BookingStatusPendingPayment {
		t.Fatalf("a failed attempt must keep the booking open, got %s", storedBooking.Status)
	}
	if storedBooking.PaymentStatus != enums.BookingPaymentStatusFailed {
		t.Fatalf("booking payment status = %s", storedBooking.PaymentStatus)
	}

	if len(notifier.confirmed) != 0 {
		t.Fatal("failed payments must not notify")
	}
}

func TestApplyTransactionDuplicateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := newTestService(t, db, notifier)

	_, payment := seedBookingWithPayment(t, db, "stay-ghi")

	cb := successCallback("stay-ghi", 9003, 7003)
	if _, err := svc.ApplyTransaction(context.Background(), cb); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	result, err := svc.ApplyTransaction(context.Background(), cb)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if result.Outcome != OutcomeAlreadyProcessed {
		t.Fatalf("expected already_processed, got %s", result.Outcome)
	}
	if result.PaymentID == nil || *result.PaymentID != payment.ID {
		t.Fatalf("payment id = %v", result.PaymentID)
	}
	if len(notifier.confirmed) != 1 {
		t.Fatalf("replay must not notify again, got %d notifications", len(notifier.confirmed))
	}
}

func TestApplyTransactionUnmatchedIsIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &recordingNotifier{})

	result, err := svc.ApplyTransaction(context.Background(), successCallback("stay-unknown", 9004, 7004))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", result.Outcome)
	}
}

func TestApplyTransactionPendingEventIsIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &recordingNotifier{})

	_, payment := seedBookingWithPayment(t, db, "stay-jkl")

	cb := successCallback("stay-jkl", 9005, 7005)
	cb.Obj.Success = false
	cb.Obj.Pending = true

	result, err := svc.ApplyTransaction(context.Background(), cb)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", result.Outcome)
	}

	var storedPayment models.Payment
	if err := db.First(&storedPayment, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if storedPayment.Status != enums.PaymentStatusPending {
		t.Fatalf("pending events must not change state, got %s", storedPayment.Status)
	}
}

func TestApplyTransactionFallsBackToProviderOrderID(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &recordingNotifier{})

	_, payment := seedBookingWithPayment(t, db, "stay-mno")
	orderID := "9006"
	payment.ProviderOrderID = &orderID
	if err := db.Save(payment).Error; err != nil {
		t.Fatalf("update payment: %v", err)
	}

	// The callback carries no merchant reference; the order id must match.
	cb := successCallback("", 9006, 7006)

	result, err := svc.ApplyTransaction(context.Background(), cb)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s", result.Outcome)
	}
	if result.PaymentID == nil || *result.PaymentID != payment.ID {
		t.Fatalf("resolved wrong payment: %v", result.PaymentID)
	}
}

func TestApplyTransactionNotifierFailureIsSwallowed(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := newTestService(t, db, notifier)

	seedBookingWithPayment(t, db, "stay-pqr")

	result, err := svc.ApplyTransaction(context.Background(), successCallback("stay-pqr", 9007, 7007))
	if err != nil {
		t.Fatalf("notification failure must not fail the webhook: %v", err)
	}
	if result.Outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s", result.Outcome)
	}
}

func TestCreateCheckout(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &recordingNotifier{})

	booking, _ := seedBookingWithPayment(t, db, "stay-old-attempt")

	dto, err := svc.CreateCheckout(context.Background(), CreateCheckoutInput{
		BookingID: booking.ID,
		GuestID:   booking.GuestID,
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if dto.AmountCents != booking.TotalCents {
		t.Fatalf("amount = %d", dto.AmountCents)
	}
	if dto.MerchantRef == "" || dto.MerchantRef == "stay-old-attempt" {
		t.Fatalf("expected a fresh merchant ref, got %q", dto.MerchantRef)
	}

	var count int64
	if err := db.Model(&models.Payment{}).Where("booking_id = ?", booking.ID).Count(&count).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected a second attempt row, got %d", count)
	}
}

func TestCreateCheckoutWrongGuest(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, &recordingNotifier{})

	booking, _ := seedBookingWithPayment(t, db, "stay-stu")

	if _, err := svc.CreateCheckout(context.Background(), CreateCheckoutInput{
		BookingID: booking.ID,
		GuestID:   uuid.New(),
	}); err == nil {
		t.Fatal("expected forbidden error")
	}
}
