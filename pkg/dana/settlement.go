package dana

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kasdana/models"
)

// NewItem is one requested line of a new purchase batch.
type NewItem struct {
	Nama        string
	Qty         int
	HargaSatuan decimal.Decimal
}

// ItemDecision accepts or rejects a single pending item during review.
type ItemDecision struct {
	ItemID uint
	Terima bool
}

// ReplacementItem is one line of a full-replacement batch edit.
type ReplacementItem struct {
	Nama        string
	Qty         int
	HargaSatuan decimal.Decimal
	Status      models.ItemStatus
}

// BatchUpdate is a full-replacement edit of a batch. Nil fields keep the
// current value; non-nil Items replace every line.
type BatchUpdate struct {
	AccountID        *uint
	StatusPembayaran *models.PaymentStatus
	Items            []ReplacementItem
}

// CreateBatch creates a pending batch with pending items and a unique number.
func CreateBatch(db *gorm.DB, items []NewItem, createdByID uint) (*models.Pembelian, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: batch needs at least one item", ErrValidation)
	}
	batch := models.Pembelian{
		Nomor:            newBatchNumber(),
		Status:           models.BatchPending,
		StatusPembayaran: models.PaymentBelumDibayar,
		CreatedByID:      createdByID,
	}
	total := decimal.Zero
	for _, it := range items {
		name := strings.TrimSpace(it.Nama)
		if name == "" {
			return nil, fmt.Errorf("%w: item name required", ErrValidation)
		}
		if it.Qty <= 0 {
			return nil, fmt.Errorf("%w: item qty must be positive", ErrValidation)
		}
		if it.HargaSatuan.LessThanOrEqual(decimal.Zero) {
			return nil, ErrInvalidAmount
		}
		sub := it.HargaSatuan.Mul(decimal.NewFromInt(int64(it.Qty)))
		total = total.Add(sub)
		batch.Items = append(batch.Items, models.PembelianItem{
			Nama:        name,
			Qty:         it.Qty,
			HargaSatuan: it.HargaSatuan,
			Subtotal:    sub,
			Status:      models.ItemPending,
		})
	}
	batch.Total = total
	if err := db.Create(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindBatch loads a batch with its items and linked account.
func FindBatch(db *gorm.DB, id uint) (*models.Pembelian, error) {
	var batch models.Pembelian
	err := db.Preload("Items").Preload("Account").First(&batch, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// BatchFilter narrows ListBatches.
type BatchFilter struct {
	Status   models.BatchStatus // empty = all
	Page     int
	PageSize int
}

// ListBatches returns batches newest first with their items.
func ListBatches(db *gorm.DB, f BatchFilter) ([]models.Pembelian, int64, error) {
	q := db.Model(&models.Pembelian{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, size := normalizePage(f.Page, f.PageSize)
	var batches []models.Pembelian
	err := q.Preload("Items").Order("id desc").
		Offset((page - 1) * size).Limit(size).Find(&batches).Error
	if err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// SubmitBatch moves a pending batch into review.
func SubmitBatch(db *gorm.DB, batchID uint) (*models.Pembelian, error) {
	var batch *models.Pembelian
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}
		if b.Status != models.BatchPending {
			return ErrInvalidBatchState
		}
		now := time.Now()
		b.Status = models.BatchDiajukan
		b.SubmittedAt = &now
		if err := tx.Model(b).Updates(map[string]interface{}{
			"status":       b.Status,
			"submitted_at": b.SubmittedAt,
		}).Error; err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ReviewItems marks pending items of a submitted batch as accepted or
// rejected. The batch itself stays diajukan until payment or rejection.
func ReviewItems(db *gorm.DB, batchID uint, decisions []ItemDecision, approverID uint) (*models.Pembelian, error) {
	if len(decisions) == 0 {
		return nil, fmt.Errorf("%w: no review decisions given", ErrValidation)
	}
	var batch *models.Pembelian
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}
		if b.Status != models.BatchDiajukan {
			return ErrInvalidBatchState
		}
		byID := make(map[uint]*models.PembelianItem, len(b.Items))
		for i := range b.Items {
			byID[b.Items[i].ID] = &b.Items[i]
		}
		for _, d := range decisions {
			item, ok := byID[d.ItemID]
			if !ok {
				return ErrItemNotFound
			}
			if item.Status != models.ItemPending {
				return ErrInvalidBatchState
			}
			status := models.ItemDitolak
			if d.Terima {
				status = models.ItemDiterima
			}
			if err := tx.Model(&models.PembelianItem{}).Where("id = ?", item.ID).
				Update("status", status).Error; err != nil {
				return err
			}
			item.Status = status
		}
		if err := tx.Model(b).Update("approved_by_id", approverID).Error; err != nil {
			return err
		}
		aid := approverID
		b.ApprovedByID = &aid
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// RejectBatch rejects the whole batch. Pending items cascade to ditolak and
// any live ledger linkage is reversed.
func RejectBatch(db *gorm.DB, batchID uint, approverID uint) (*models.Pembelian, error) {
	var batch *models.Pembelian
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}
		if b.Status == models.BatchDitolak {
			return ErrInvalidBatchState
		}
		now := time.Now()
		aid := approverID
		b.Status = models.BatchDitolak
		b.StatusPembayaran = models.PaymentDitolak
		b.RespondedAt = &now
		b.ApprovedByID = &aid
		if err := tx.Model(b).Updates(map[string]interface{}{
			"status":            b.Status,
			"status_pembayaran": b.StatusPembayaran,
			"responded_at":      b.RespondedAt,
			"approved_by_id":    b.ApprovedByID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PembelianItem{}).
			Where("pembelian_id = ? AND status = ?", b.ID, models.ItemPending).
			Update("status", models.ItemDitolak).Error; err != nil {
			return err
		}
		batch = b
		return reconcileLedgerLink(tx, b, &aid)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// PayBatch settles a submitted batch from the given account: one linked
// expense entry for the accepted total, batch to disetujui + sudah dibayar,
// accepted items to diterima dan dibayar. All inside one transaction.
func PayBatch(db *gorm.DB, batchID, accountID uint, approverID uint) (*models.Pembelian, error) {
	var batch *models.Pembelian
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}
		if b.Status != models.BatchDiajukan {
			return ErrInvalidBatchState
		}
		total := approvedTotal(b.Items)
		if !total.IsPositive() {
			return ErrNoApprovedItems
		}
		now := time.Now()
		aid := approverID
		b.Status = models.BatchDisetujui
		b.StatusPembayaran = models.PaymentSudahDibayar
		b.AccountID = &accountID
		b.Total = total
		b.RespondedAt = &now
		b.PaidAt = &now
		b.ApprovedByID = &aid
		if err := tx.Model(b).Updates(map[string]interface{}{
			"status":            b.Status,
			"status_pembayaran": b.StatusPembayaran,
			"account_id":        accountID,
			"total":             total,
			"responded_at":      b.RespondedAt,
			"paid_at":           b.PaidAt,
			"approved_by_id":    b.ApprovedByID,
		}).Error; err != nil {
			return err
		}
		if err := reconcileLedgerLink(tx, b, &aid); err != nil {
			return err
		}
		if err := tx.Model(&models.PembelianItem{}).
			Where("pembelian_id = ? AND status = ?", b.ID, models.ItemDiterima).
			Update("status", models.ItemDiterimaDanDibayar).Error; err != nil {
			return err
		}
		for i := range b.Items {
			if b.Items[i].Status == models.ItemDiterima {
				b.Items[i].Status = models.ItemDiterimaDanDibayar
			}
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// UpdateBatch applies a full-replacement edit and reconciles the ledger
// linkage against the resulting state. Moving a paid batch to a different
// account restores the old account and charges the new one; downgrading the
// payment status reverses and removes the linked entry.
func UpdateBatch(db *gorm.DB, batchID uint, upd BatchUpdate, actorID uint) (*models.Pembelian, error) {
	var batch *models.Pembelian
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}

		if upd.Items != nil {
			if err := tx.Where("pembelian_id = ?", b.ID).
				Delete(&models.PembelianItem{}).Error; err != nil {
				return err
			}
			b.Items = b.Items[:0]
			for _, it := range upd.Items {
				name := strings.TrimSpace(it.Nama)
				if name == "" {
					return fmt.Errorf("%w: item name required", ErrValidation)
				}
				if it.Qty <= 0 {
					return fmt.Errorf("%w: item qty must be positive", ErrValidation)
				}
				if it.HargaSatuan.LessThanOrEqual(decimal.Zero) {
					return ErrInvalidAmount
				}
				status := it.Status
				if status == "" {
					status = models.ItemPending
				}
				switch status {
				case models.ItemPending, models.ItemDiterima, models.ItemDitolak, models.ItemDiterimaDanDibayar:
				default:
					return fmt.Errorf("%w: unknown item status %q", ErrValidation, it.Status)
				}
				item := models.PembelianItem{
					PembelianID: b.ID,
					Nama:        name,
					Qty:         it.Qty,
					HargaSatuan: it.HargaSatuan,
					Subtotal:    it.HargaSatuan.Mul(decimal.NewFromInt(int64(it.Qty))),
					Status:      status,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				b.Items = append(b.Items, item)
			}
		}

		if upd.AccountID != nil {
			if _, err := FindAccount(tx, *upd.AccountID); err != nil {
				return err
			}
			b.AccountID = upd.AccountID
		}
		if upd.StatusPembayaran != nil {
			switch *upd.StatusPembayaran {
			case models.PaymentBelumDibayar, models.PaymentSudahDibayar:
			default:
				return ErrInvalidBatchState
			}
			b.StatusPembayaran = *upd.StatusPembayaran
		}
		// a paid result only makes sense on an approved batch
		if b.StatusPembayaran == models.PaymentSudahDibayar && b.Status != models.BatchDisetujui {
			return ErrInvalidBatchState
		}

		if b.Status == models.BatchDisetujui && b.StatusPembayaran == models.PaymentSudahDibayar {
			b.Total = approvedTotal(b.Items)
		} else {
			b.Total = itemTotal(b.Items)
		}

		if err := tx.Model(b).Updates(map[string]interface{}{
			"account_id":        b.AccountID,
			"status_pembayaran": b.StatusPembayaran,
			"total":             b.Total,
		}).Error; err != nil {
			return err
		}

		aid := actorID
		if err := reconcileLedgerLink(tx, b, &aid); err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// DeleteBatch reverses any live ledger linkage, then removes the linked
// entry, the items and the batch itself in one transaction.
func DeleteBatch(db *gorm.DB, batchID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}
		// force the not-paid branch of reconciliation: reversal + entry delete
		b.StatusPembayaran = models.PaymentBelumDibayar
		if err := reconcileLedgerLink(tx, b, nil); err != nil {
			return err
		}
		if err := tx.Where("pembelian_id = ?", b.ID).
			Delete(&models.PembelianItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Pembelian{}, b.ID).Error
	})
}

// reconcileLedgerLink is the single reversal/reapply procedure shared by the
// pay, reject, update and delete paths. Postcondition: a batch resulting in
// (disetujui, sudah dibayar) has exactly one linked entry whose amount equals
// its accepted total, every other state has none, and each affected account
// balance reflects only the live linkage.
func reconcileLedgerLink(tx *gorm.DB, b *models.Pembelian, actorID *uint) error {
	var linked models.LedgerEntry
	hasLinked := true
	if err := forUpdate(tx).Where("pembelian_id = ?", b.ID).First(&linked).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		hasLinked = false
	}

	paid := b.Status == models.BatchDisetujui && b.StatusPembayaran == models.PaymentSudahDibayar
	if !paid {
		if !hasLinked {
			return nil
		}
		if err := restoreBalance(tx, linked.AccountID, linked.Amount); err != nil {
			return err
		}
		return tx.Delete(&models.LedgerEntry{}, linked.ID).Error
	}

	if b.AccountID == nil {
		return ErrAccountNotFound
	}
	target := *b.AccountID
	total := approvedTotal(b.Items)
	if !total.IsPositive() {
		return ErrNoApprovedItems
	}

	if !hasLinked {
		_, err := recordEntry(tx, target, models.EntryPengeluaran, total,
			"Pembayaran pembelian "+b.Nomor, actorID, &b.ID)
		return err
	}

	if linked.AccountID == target && linked.Amount.Equal(total) {
		return nil
	}

	// reverse the stale linkage, then charge the target with fresh snapshots,
	// rewriting the one linked entry in place
	if err := restoreBalance(tx, linked.AccountID, linked.Amount); err != nil {
		return err
	}
	acc, err := lockAccount(tx, target)
	if err != nil {
		return err
	}
	before := acc.Balance
	if before.LessThan(total) {
		return ErrInsufficientFunds
	}
	after := before.Sub(total)
	if err := tx.Model(&models.FundAccount{}).Where("id = ?", acc.ID).
		Update("balance", after).Error; err != nil {
		return err
	}
	return tx.Model(&models.LedgerEntry{}).Where("id = ?", linked.ID).
		Updates(map[string]interface{}{
			"account_id":     target,
			"amount":         total,
			"balance_before": before,
			"balance_after":  after,
			"occurred_at":    time.Now(),
			"actor_id":       actorID,
		}).Error
}

// loadBatch loads a batch with its items, locking the batch row so concurrent
// pay/reject/update/delete calls on the same batch serialize. Without the lock
// two reversal paths could read the same live linked entry and each restore
// its amount once.
func loadBatch(tx *gorm.DB, id uint) (*models.Pembelian, error) {
	var batch models.Pembelian
	if err := forUpdate(tx).Preload("Items").First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// approvedTotal sums the line totals of accepted items.
func approvedTotal(items []models.PembelianItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Status == models.ItemDiterima || it.Status == models.ItemDiterimaDanDibayar {
			total = total.Add(it.Subtotal)
		}
	}
	return total
}

func itemTotal(items []models.PembelianItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

func newBatchNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("PB-%s-%s", time.Now().Format("20060102"), suffix)
}
