package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind is the signed kind of a ledger entry.
type EntryKind string

const (
	EntryPemasukan      EntryKind = "pemasukan"
	EntryPengeluaran    EntryKind = "pengeluaran"
	EntryTransferMasuk  EntryKind = "transfer_masuk"
	EntryTransferKeluar EntryKind = "transfer_keluar"
	EntryModalAwal      EntryKind = "modal_awal"
)

// Inflow reports whether the kind increases the account balance.
func (k EntryKind) Inflow() bool {
	return k == EntryPemasukan || k == EntryTransferMasuk || k == EntryModalAwal
}

// Valid reports whether the kind is one of the known values.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryPemasukan, EntryPengeluaran, EntryTransferMasuk, EntryTransferKeluar, EntryModalAwal:
		return true
	}
	return false
}

// EntryStatus is the lifecycle status of an entry. Only final entries count
// toward balances and reports.
type EntryStatus string

const (
	EntryDraft EntryStatus = "draft"
	EntryFinal EntryStatus = "final"
)

// LedgerEntry records one balance-changing event with before/after snapshots.
// Entries are immutable after creation except for the settlement reconcile
// path, which may rewrite the single entry linked to an edited purchase batch.
type LedgerEntry struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	AccountID uint        `gorm:"index;not null"`
	Account   FundAccount `gorm:"foreignKey:AccountID"`
	Kind      EntryKind   `gorm:"size:24;index;not null"`
	Status    EntryStatus `gorm:"size:8;index;not null;default:final"`

	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	Description string    `gorm:"size:255"`
	OccurredAt  time.Time `gorm:"index;not null"`

	// ActorID is the acting user recorded for audit; supplied by the identity
	// middleware.
	ActorID *uint `gorm:"index"`

	// PembelianID links the expense entry produced by paying a purchase batch.
	// The unique index enforces at most one entry per batch.
	PembelianID *uint `gorm:"uniqueIndex"`
}
