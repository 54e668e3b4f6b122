package dana

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kasdana/models"
)

// recordEntry is the single write path for balance changes. It must run inside
// a transaction: it locks the account row, snapshots the balance, writes the
// new balance and inserts a final entry carrying both snapshot values.
// pembelianID, when non-nil, links the entry to a purchase batch.
func recordEntry(tx *gorm.DB, accountID uint, kind models.EntryKind, amount decimal.Decimal, description string, actorID *uint, pembelianID *uint) (*models.LedgerEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entry kind %q", ErrValidation, kind)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	acc, err := lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	before := acc.Balance
	var after decimal.Decimal
	if kind.Inflow() {
		after = before.Add(amount)
	} else {
		if before.LessThan(amount) {
			return nil, ErrInsufficientFunds
		}
		after = before.Sub(amount)
	}

	if err := tx.Model(&models.FundAccount{}).Where("id = ?", acc.ID).
		Update("balance", after).Error; err != nil {
		return nil, err
	}

	entry := models.LedgerEntry{
		AccountID:     acc.ID,
		Kind:          kind,
		Status:        models.EntryFinal,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
		OccurredAt:    time.Now(),
		ActorID:       actorID,
		PembelianID:   pembelianID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecordIncome appends an income entry and credits the account, atomically.
func RecordIncome(db *gorm.DB, accountID uint, amount decimal.Decimal, description string, actorID *uint) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = recordEntry(tx, accountID, models.EntryPemasukan, amount, description, actorID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordExpense appends an expense entry and debits the account, atomically.
// Fails with ErrInsufficientFunds when the balance cannot cover the amount.
func RecordExpense(db *gorm.DB, accountID uint, amount decimal.Decimal, description string, actorID *uint) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = recordEntry(tx, accountID, models.EntryPengeluaran, amount, description, actorID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SeedInitialCapital records the one-time modal awal entry that establishes an
// account's starting balance. A second call for the same account fails.
func SeedInitialCapital(db *gorm.DB, accountID uint, amount decimal.Decimal, actorID *uint) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LedgerEntry{}).
			Where("account_id = ? AND kind = ?", accountID, models.EntryModalAwal).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyCapitalized
		}
		var err error
		entry, err = recordEntry(tx, accountID, models.EntryModalAwal, amount, "Modal awal", actorID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// restoreBalance credits an account by amount as part of reversing a prior
// debit. Reversal credits never fail a sufficiency check.
func restoreBalance(tx *gorm.DB, accountID uint, amount decimal.Decimal) error {
	acc, err := lockAccount(tx, accountID)
	if err != nil {
		return err
	}
	return tx.Model(&models.FundAccount{}).Where("id = ?", acc.ID).
		Update("balance", acc.Balance.Add(amount)).Error
}
