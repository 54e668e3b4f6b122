package dana

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kasdana/models"
)

const defaultPageSize = 20

// HistoryFilter narrows the transaction history projection. AccountID nil
// means all accounts. Period, when set, overrides From/To.
type HistoryFilter struct {
	AccountID *uint
	From      *time.Time
	To        *time.Time
	Period    string // "hari-ini", "minggu-ini", "bulan-ini"
	Kind      models.EntryKind
	Page      int
	PageSize  int
}

// HistoryPage is one page of the merged, newest-first entry projection.
type HistoryPage struct {
	Entries    []models.LedgerEntry `json:"entries"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// QueryHistory returns final entries matching the filter, newest first. It is
// purely read-only and carries no invariants of its own.
func QueryHistory(db *gorm.DB, f HistoryFilter) (*HistoryPage, error) {
	q := db.Model(&models.LedgerEntry{}).Where("status = ?", models.EntryFinal)
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.Kind != "" {
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("%w: unknown entry kind %q", ErrValidation, f.Kind)
		}
		q = q.Where("kind = ?", f.Kind)
	}
	from, to, err := resolvePeriod(f.Period, f.From, f.To)
	if err != nil {
		return nil, err
	}
	if from != nil {
		q = q.Where("occurred_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("occurred_at < ?", *to)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	page, size := normalizePage(f.Page, f.PageSize)
	var entries []models.LedgerEntry
	if err := q.Order("occurred_at desc, id desc").
		Offset((page - 1) * size).Limit(size).Find(&entries).Error; err != nil {
		return nil, err
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &HistoryPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}, nil
}

// Summary is the per-account recap used by the dashboard.
type Summary struct {
	Balance     decimal.Decimal `json:"balance"`
	TotalMasuk  decimal.Decimal `json:"total_masuk"`
	TotalKeluar decimal.Decimal `json:"total_keluar"`
	JumlahCatat int64           `json:"jumlah_catatan"`
}

// AccountSummary sums the final inflow and outflow entries of one account.
func AccountSummary(db *gorm.DB, accountID uint) (*Summary, error) {
	acc, err := FindAccount(db, accountID)
	if err != nil {
		return nil, err
	}
	inKinds := []models.EntryKind{models.EntryPemasukan, models.EntryTransferMasuk, models.EntryModalAwal}
	outKinds := []models.EntryKind{models.EntryPengeluaran, models.EntryTransferKeluar}

	sum := func(kinds []models.EntryKind) (decimal.Decimal, error) {
		var out decimal.NullDecimal
		err := db.Model(&models.LedgerEntry{}).
			Where("account_id = ? AND status = ? AND kind IN ?", accountID, models.EntryFinal, kinds).
			Select("SUM(amount)").Scan(&out).Error
		if err != nil {
			return decimal.Zero, err
		}
		if !out.Valid {
			return decimal.Zero, nil
		}
		return out.Decimal, nil
	}

	masuk, err := sum(inKinds)
	if err != nil {
		return nil, err
	}
	keluar, err := sum(outKinds)
	if err != nil {
		return nil, err
	}
	var count int64
	if err := db.Model(&models.LedgerEntry{}).
		Where("account_id = ? AND status = ?", accountID, models.EntryFinal).
		Count(&count).Error; err != nil {
		return nil, err
	}
	return &Summary{
		Balance:     acc.Balance,
		TotalMasuk:  masuk,
		TotalKeluar: keluar,
		JumlahCatat: count,
	}, nil
}

// resolvePeriod maps a relative period onto [from, to). Explicit bounds pass
// through when the period is empty.
func resolvePeriod(period string, from, to *time.Time) (*time.Time, *time.Time, error) {
	if period == "" {
		return from, to, nil
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "hari-ini":
		end := today.AddDate(0, 0, 1)
		return &today, &end, nil
	case "minggu-ini":
		// week starts Monday
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 7)
		return &start, &end, nil
	case "bulan-ini":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0)
		return &start, &end, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown period %q", ErrValidation, period)
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
