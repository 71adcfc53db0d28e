package repository

import (
	"context"
	"errors"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// AddAssigned 累加分类某月的分配额，行不存在时创建
func (r *AssignmentRepository) AddAssigned(ctx context.Context, tx *gorm.DB, ledgerID, categoryID int64, month string, delta int64) (*model.CategoryAssignment, error) {
	var row model.CategoryAssignment
	err := forUpdate(tx.WithContext(ctx)).
		Where("category_id = ? AND month = ?", categoryID, month).
		First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = model.CategoryAssignment{
			LedgerID:      ledgerID,
			CategoryID:    categoryID,
			Month:         month,
			AssignedCents: delta,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	case err != nil:
		return nil, err
	}

	if err := tx.WithContext(ctx).
		Model(&model.CategoryAssignment{}).
		Where("id = ?", row.ID).
		Update("assigned_cents", gorm.Expr("assigned_cents + ?", delta)).Error; err != nil {
		return nil, err
	}
	row.AssignedCents += delta
	return &row, nil
}

func (r *AssignmentRepository) ListByLedger(ctx context.Context, tx *gorm.DB, ledgerID int64) ([]*model.CategoryAssignment, error) {
	var rows []*model.CategoryAssignment
	err := use(r.db, tx).WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("month ASC, category_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *AssignmentRepository) Get(ctx context.Context, tx *gorm.DB, categoryID int64, month string) (int64, error) {
	var assigned int64
	err := use(r.db, tx).WithContext(ctx).
		Model(&model.CategoryAssignment{}).
		Where("category_id = ? AND month = ?", categoryID, month).
		Select("COALESCE(SUM(assigned_cents), 0)").
		Scan(&assigned).Error
	return assigned, err
}
