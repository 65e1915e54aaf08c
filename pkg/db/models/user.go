package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a marketplace account. Hosts accumulate earnings in
// wallet_balance_cents; the balance is only ever mutated through the wallet
// ledger's conditional updates.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:text;not null;uniqueIndex"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	Phone     *string   `gorm:"column:phone"`

	WalletBalanceCents int64 `gorm:"column:wallet_balance_cents;not null;default:0"`

	BankName          *string `gorm:"column:bank_name"`
	BankCode          *string `gorm:"column:bank_code"`
	BankAccountNumber *string `gorm:"column:bank_account_number"`
	AccountHolderName *string `gorm:"column:account_holder_name"`
	NationalID        *string `gorm:"column:national_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HasBankDetails reports whether the disbursement profile is complete.
func (u *User) HasBankDetails() bool {
	for _, field := range []*string{u.BankCode, u.BankAccountNumber, u.AccountHolderName} {
		if field == nil || strings.TrimSpace(*field) == "" {
			return false
		}
	}
	return true
}

// HasNationalID reports whether an identity document number is on file.
func (u *User) HasNationalID() bool {
	return u.NationalID != nil && strings.TrimSpace(*u.NationalID) != ""
}
