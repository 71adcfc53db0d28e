package repository

import (
	"context"
	"errors"

	"budgetledger/internal/model"

	"gorm.io/gorm"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Upsert 每个分类只有一个目标，已存在时覆盖
func (r *GoalRepository) Upsert(ctx context.Context, tx *gorm.DB, goal *model.Goal) error {
	db := use(r.db, tx).WithContext(ctx)
	var existing model.Goal
	err := db.Where("category_id = ?", goal.CategoryID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.Create(goal).Error
	case err != nil:
		return err
	}
	goal.ID = existing.ID
	goal.CreatedAt = existing.CreatedAt
	return db.Save(goal).Error
}

func (r *GoalRepository) GetByCategory(ctx context.Context, ledgerID, categoryID int64) (*model.Goal, error) {
	var goal model.Goal
	err := r.db.WithContext(ctx).
		Where("ledger_id = ? AND category_id = ?", ledgerID, categoryID).
		First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalRepository) ListByLedger(ctx context.Context, tx *gorm.DB, ledgerID int64) ([]*model.Goal, error) {
	var goals []*model.Goal
	err := use(r.db, tx).WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("category_id ASC").
		Find(&goals).Error
	return goals, err
}

func (r *GoalRepository) Delete(ctx context.Context, ledgerID, categoryID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("ledger_id = ? AND category_id = ?", ledgerID, categoryID).
		Delete(&model.Goal{})
	return result.RowsAffected, result.Error
}
