package payouts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/pkg/db"
	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	"github.com/omarkhaled/stayhub-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payouts_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Payout{}, &models.PayoutEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedHost(t *testing.T, conn *gorm.DB, balanceCents int64) *models.User {
	t.Helper()
	bankCode := "CIB"
	account := "1234567890"
	holder := "Omar Khaled"
	nationalID := "29001011234567"
	host := &models.User{
		ID:                 uuid.New(),
		Email:              uuid.NewString() + "@example.com",
		FirstName:          "Omar",
		LastName:           "Host",
		WalletBalanceCents: balanceCents,
		BankCode:           &bankCode,
		BankAccountNumber:  &account,
		AccountHolderName:  &holder,
		NationalID:         &nationalID,
	}
	if err := conn.Create(host).Error; err != nil {
		t.Fatalf("seed host: %v", err)
	}
	return host
}

func newPayout(hostID uuid.UUID, amountCents int64, status enums.PayoutStatus, key string) *models.Payout {
	return &models.Payout{
		ID:              uuid.New(),
		HostID:          hostID,
		AmountCents:     amountCents,
		Currency:        "EGP",
		Status:          status,
		IdempotencyKey:  key,
		ClientReference: "po-" + uuid.NewString(),
	}
}

func TestIdempotencyKeyUniquePerHost(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	host := seedHost(t, conn, 100_00)

	if err := repo.Create(ctx, newPayout(host.ID, 10_00, enums.PayoutStatusPending, "key-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := repo.Create(ctx, newPayout(host.ID, 20_00, enums.PayoutStatusPending, "key-1"))
	if err == nil {
		t.Fatal("expected unique violation for duplicate key")
	}
	if !db.IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// The same key under another host is a different scope.
	other := seedHost(t, conn, 100_00)
	if err := repo.Create(ctx, newPayout(other.ID, 20_00, enums.PayoutStatusPending, "key-1")); err != nil {
		t.Fatalf("create for other host: %v", err)
	}
}

func TestSumHeldForHost(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	host := seedHost(t, conn, 100_00)

	for _, p := range []*models.Payout{
		newPayout(host.ID, 10_00, enums.PayoutStatusPending, "k1"),
		newPayout(host.ID, 20_00, enums.PayoutStatusProcessing, "k2"),
		newPayout(host.ID, 40_00, enums.PayoutStatusSuccess, "k3"),
		newPayout(host.ID, 80_00, enums.PayoutStatusFailed, "k4"),
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	held, err := repo.SumHeldForHost(ctx, host.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if held != 30_00 {
		t.Fatalf("held = %d, want %d", held, 30_00)
	}

	none, err := repo.SumHeldForHost(ctx, uuid.New())
	if err != nil {
		t.Fatalf("sum for unknown host: %v", err)
	}
	if none != 0 {
		t.Fatalf("expected zero for unknown host, got %d", none)
	}
}

func TestListByHostFiltersAndPages(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	host := seedHost(t, conn, 100_00)
	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, newPayout(host.ID, 10_00, enums.PayoutStatusSuccess, uuid.NewString())); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Create(ctx, newPayout(host.ID, 10_00, enums.PayoutStatusFailed, uuid.NewString())); err != nil {
		t.Fatalf("create: %v", err)
	}

	success := enums.PayoutStatusSuccess
	rows, total, err := repo.ListByHost(ctx, host.ID, &success, pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Status != enums.PayoutStatusSuccess {
			t.Fatalf("unexpected status %s in filtered list", row.Status)
		}
	}

	all, total, err := repo.ListByHost(ctx, host.ID, nil, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 4 || len(all) != 4 {
		t.Fatalf("all = %d/%d, want 4/4", len(all), total)
	}
}

func TestFindByIDPreloadsEvents(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	host := seedHost(t, conn, 100_00)
	payout := newPayout(host.ID, 10_00, enums.PayoutStatusPending, "k-events")
	if err := repo.Create(ctx, payout); err != nil {
		t.Fatalf("create: %v", err)
	}

	desc := "payout requested"
	if err := repo.AppendEvent(ctx, &models.PayoutEvent{
		PayoutID:    payout.ID,
		Status:      enums.PayoutStatusPending,
		Source:      enums.PayoutEventSourceOrchestrator,
		Description: &desc,
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	loaded, err := repo.FindByID(ctx, payout.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected payout")
	}
	if len(loaded.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(loaded.Events))
	}

	missing, err := repo.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown id")
	}
}
