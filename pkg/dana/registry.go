// Package dana owns every mutation of fund account balances: income and
// expense entries with before/after snapshots, zero-sum transfers, and the
// purchase settlement lifecycle with its reversible ledger linkage. Handlers
// call into this package and never touch balances themselves.
package dana

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kasdana/models"
)

// singleton display names for the lazily created operating accounts
var singletonNames = map[models.FundKind]string{
	models.FundTunai: "Kas Tunai",
	models.FundBank:  "Kas Bank",
}

// forUpdate adds a FOR UPDATE clause on dialects that support it. Sqlite (the
// test store) is a single writer and needs none.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockAccount loads an account row, taking a FOR UPDATE lock on dialects that
// support it. Every balance read that precedes a write must go through this so
// two concurrent requests cannot snapshot the same "before" balance.
func lockAccount(tx *gorm.DB, id uint) (*models.FundAccount, error) {
	q := forUpdate(tx)
	var acc models.FundAccount
	if err := q.First(&acc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// GetOrCreateSingleton returns the canonical account for a singleton kind
// (tunai or bank), creating it on first use. Concurrent first calls race on
// the unique singleton_key index; the loser re-selects.
func GetOrCreateSingleton(db *gorm.DB, kind models.FundKind) (*models.FundAccount, error) {
	if !kind.Singleton() {
		return nil, fmt.Errorf("%w: kind %q has no singleton account", ErrValidation, kind)
	}
	var acc models.FundAccount
	err := db.Where("singleton_key = ?", string(kind)).First(&acc).Error
	if err == nil {
		return &acc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	key := string(kind)
	acc = models.FundAccount{
		Name:         singletonNames[kind],
		Kind:         kind,
		SingletonKey: &key,
		Active:       true,
	}
	if err := db.Create(&acc).Error; err != nil {
		if isUniqueConstraintError(err) {
			// lost the creation race, the row exists now
			if err2 := db.Where("singleton_key = ?", key).First(&acc).Error; err2 != nil {
				return nil, err2
			}
			return &acc, nil
		}
		return nil, err
	}
	return &acc, nil
}

// NewAccount describes an explicitly created (non-singleton) account.
type NewAccount struct {
	Name        string
	AccountName string
	AccountNo   string
	BankName    string
}

// CreateAccount creates a named account of kind lainnya.
func CreateAccount(db *gorm.DB, in NewAccount) (*models.FundAccount, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name required", ErrValidation)
	}
	acc := models.FundAccount{
		Name:        name,
		Kind:        models.FundLainnya,
		Active:      true,
		AccountName: in.AccountName,
		AccountNo:   in.AccountNo,
		BankName:    in.BankName,
	}
	if err := db.Create(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindAccount loads an account without locking it.
func FindAccount(db *gorm.DB, id uint) (*models.FundAccount, error) {
	var acc models.FundAccount
	if err := db.First(&acc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Kind       models.FundKind // empty = all kinds
	ActiveOnly bool
}

// ListAccounts returns accounts matching the filter, oldest first.
func ListAccounts(db *gorm.DB, f AccountFilter) ([]models.FundAccount, error) {
	q := db.Model(&models.FundAccount{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var accounts []models.FundAccount
	if err := q.Order("id asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// isUniqueConstraintError matches the portable subset of unique violation
// messages across postgres and sqlite.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "UNIQUE constraint failed")
}
