package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the approval state of a purchase batch.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchDiajukan  BatchStatus = "diajukan"
	BatchDisetujui BatchStatus = "disetujui"
	BatchDitolak   BatchStatus = "ditolak"
)

// PaymentStatus is the orthogonal payment state of a purchase batch.
type PaymentStatus string

const (
	PaymentBelumDibayar PaymentStatus = "belum_dibayar"
	PaymentSudahDibayar PaymentStatus = "sudah_dibayar"
	PaymentDitolak      PaymentStatus = "ditolak"
)

// ItemStatus is the per-line state of a purchase item.
type ItemStatus string

const (
	ItemPending            ItemStatus = "pending"
	ItemDiterima           ItemStatus = "diterima"
	ItemDitolak            ItemStatus = "ditolak"
	ItemDiterimaDanDibayar ItemStatus = "diterima_dan_dibayar"
)

// Pembelian is a grouped purchase request moving through approval and payment.
// Paying it debits a fund account exactly once via a linked ledger entry.
type Pembelian struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Nomor            string        `gorm:"size:32;uniqueIndex;not null"`
	Status           BatchStatus   `gorm:"size:16;index;not null;default:pending"`
	StatusPembayaran PaymentStatus `gorm:"size:16;index;not null;default:belum_dibayar"`

	// AccountID is the fund account the batch was (or will be) paid from.
	// NULL until payment.
	AccountID *uint        `gorm:"index"`
	Account   *FundAccount `gorm:"foreignKey:AccountID"`

	Total decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	CreatedByID  uint  `gorm:"index;not null"`
	ApprovedByID *uint `gorm:"index"`

	SubmittedAt *time.Time
	RespondedAt *time.Time
	PaidAt      *time.Time

	Items []PembelianItem `gorm:"foreignKey:PembelianID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// PembelianItem is one line of a purchase batch.
type PembelianItem struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PembelianID uint   `gorm:"index;not null"`
	Nama        string `gorm:"size:255;not null"`
	Qty         int    `gorm:"not null"`

	HargaSatuan decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	Status ItemStatus `gorm:"size:24;index;not null;default:pending"`
}
