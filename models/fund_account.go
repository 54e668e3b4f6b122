package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundKind classifies a fund account. Tunai and Bank are singleton kinds:
// the application keeps exactly one operating account of each, created lazily.
type FundKind string

const (
	FundTunai   FundKind = "tunai"
	FundBank    FundKind = "bank"
	FundLainnya FundKind = "lainnya"
)

// Singleton reports whether only one account of this kind may exist.
func (k FundKind) Singleton() bool {
	return k == FundTunai || k == FundBank
}

// FundAccount is a named pool of money with a running balance. The balance is
// only ever changed through pkg/dana; handlers never write it directly.
type FundAccount struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string   `gorm:"size:120;not null"`
	Kind      FundKind `gorm:"size:16;index;not null"`
	// SingletonKey is set to the kind for tunai/bank accounts and left NULL for
	// the rest, so the unique index only constrains the singleton kinds.
	SingletonKey *string         `gorm:"size:16;uniqueIndex"`
	Balance      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Active       bool            `gorm:"default:true;not null"`
	// bank metadata, empty for cash accounts
	AccountName string `gorm:"size:120"`
	AccountNo   string `gorm:"size:64"`
	BankName    string `gorm:"size:80"`
}
