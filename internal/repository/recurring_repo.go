package repository

import (
	"context"
	"time"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

type RecurringRepository struct {
	db *gorm.DB
}

func NewRecurringRepository(db *gorm.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(ctx context.Context, tx *gorm.DB, tpl *model.RecurringTemplate) error {
	return use(r.db, tx).WithContext(ctx).Create(tpl).Error
}

func (r *RecurringRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, ledgerID, id int64) (*model.RecurringTemplate, error) {
	var tpl model.RecurringTemplate
	err := forUpdate(tx.WithContext(ctx)).
		Where("id = ? AND ledger_id = ?", id, ledgerID).
		First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *RecurringRepository) ListByLedger(ctx context.Context, ledgerID int64) ([]*model.RecurringTemplate, error) {
	var list []*model.RecurringTemplate
	err := r.db.WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// ListDue 查询到期的自动生成模板，不加锁，调用方逐个加锁后复核
func (r *RecurringRepository) ListDue(ctx context.Context, ledgerID int64, asOf time.Time) ([]*model.RecurringTemplate, error) {
	var list []*model.RecurringTemplate
	err := r.db.WithContext(ctx).
		Where("ledger_id = ? AND enabled = ? AND auto_create = ? AND next_date <= ?", ledgerID, true, true, asOf).
		Order("next_date ASC, id ASC").
		Find(&list).Error
	return list, err
}

// Advance 推进下一期日期，必须在持有模板行锁的事务内调用
func (r *RecurringRepository) Advance(ctx context.Context, tx *gorm.DB, tpl *model.RecurringTemplate) error {
	return tx.WithContext(ctx).
		Model(&model.RecurringTemplate{}).
		Where("id = ?", tpl.ID).
		Updates(map[string]interface{}{
			"next_date":           tpl.NextDate,
			"occurrence_count":    tpl.OccurrenceCount,
			"enabled":             tpl.Enabled,
			"last_transaction_id": tpl.LastTransactionID,
			"failure_count":       0,
			"last_error":          "",
		}).Error
}

// RecordFailure 记录一次生成失败，必须在持有模板行锁的事务内调用
func (r *RecurringRepository) RecordFailure(ctx context.Context, tx *gorm.DB, tpl *model.RecurringTemplate) error {
	return tx.WithContext(ctx).
		Model(&model.RecurringTemplate{}).
		Where("id = ?", tpl.ID).
		Updates(map[string]interface{}{
			"failure_count": tpl.FailureCount,
			"last_error":    tpl.LastError,
			"enabled":       tpl.Enabled,
		}).Error
}

// SetEnabled 重新启用时清空失败计数
func (r *RecurringRepository) SetEnabled(ctx context.Context, ledgerID, id int64, enabled bool) (int64, error) {
	updates := map[string]interface{}{"enabled": enabled}
	if enabled {
		updates["failure_count"] = 0
		updates["last_error"] = ""
	}
	result := r.db.WithContext(ctx).
		Model(&model.RecurringTemplate{}).
		Where("id = ? AND ledger_id = ?", id, ledgerID).
		Updates(updates)
	return result.RowsAffected, result.Error
}
