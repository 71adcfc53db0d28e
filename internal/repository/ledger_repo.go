package repository

import (
	"context"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *gorm.DB, ledger *model.Ledger) error {
	return use(r.db, tx).WithContext(ctx).Create(ledger).Error
}

// GetForUser 按用户和账本查询，账本不属于该用户时返回 gorm.ErrRecordNotFound
func (r *LedgerRepository) GetForUser(ctx context.Context, tx *gorm.DB, userID, ledgerID int64) (*model.Ledger, error) {
	var ledger model.Ledger
	err := use(r.db, tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", ledgerID, userID).
		First(&ledger).Error
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// GetForUserForUpdate 锁定账本行，用于串行化影响 Ready-to-Assign 的操作
func (r *LedgerRepository) GetForUserForUpdate(ctx context.Context, tx *gorm.DB, userID, ledgerID int64) (*model.Ledger, error) {
	var ledger model.Ledger
	err := forUpdate(tx.WithContext(ctx)).
		Where("id = ? AND user_id = ?", ledgerID, userID).
		First(&ledger).Error
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Ledger, error) {
	var ledgers []*model.Ledger
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&ledgers).Error
	return ledgers, err
}

func (r *LedgerRepository) SetSystemAccounts(ctx context.Context, tx *gorm.DB, ledger *model.Ledger) error {
	return use(r.db, tx).WithContext(ctx).
		Model(&model.Ledger{}).
		Where("id = ?", ledger.ID).
		Updates(map[string]interface{}{
			"income_account_id":     ledger.IncomeAccountID,
			"adjustment_account_id": ledger.AdjustmentAccountID,
			"category_group_id":     ledger.CategoryGroupID,
		}).Error
}
