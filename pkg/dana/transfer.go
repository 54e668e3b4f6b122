package dana

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kasdana/models"
)

// TransferResult carries the paired entries produced by a transfer.
type TransferResult struct {
	Out *models.LedgerEntry
	In  *models.LedgerEntry
}

// Transfer moves amount from one account to another as one atomic, zero-sum
// operation: a transfer_keluar entry on the source and a transfer_masuk entry
// on the destination, equal amounts, committed together or not at all.
func Transfer(db *gorm.DB, fromID, toID uint, amount decimal.Decimal, description string, actorID *uint) (*TransferResult, error) {
	if fromID == toID {
		return nil, ErrSameAccount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	var res TransferResult
	err := db.Transaction(func(tx *gorm.DB) error {
		// Lock both rows in id order first so two opposite transfers between
		// the same pair cannot deadlock.
		first, second := fromID, toID
		if second < first {
			first, second = second, first
		}
		if _, err := lockAccount(tx, first); err != nil {
			return err
		}
		if _, err := lockAccount(tx, second); err != nil {
			return err
		}

		out, err := recordEntry(tx, fromID, models.EntryTransferKeluar, amount, description, actorID, nil)
		if err != nil {
			return err
		}
		in, err := recordEntry(tx, toID, models.EntryTransferMasuk, amount, description, actorID, nil)
		if err != nil {
			return err
		}
		res.Out, res.In = out, in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
