package model

import (
	"time"
)

// CategoryAssignment 分类月度分配，每个分类每月一行，只能经由 assign/move 修改
type CategoryAssignment struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LedgerID      int64     `gorm:"index;not null" json:"ledger_id"`
	CategoryID    int64     `gorm:"uniqueIndex:uk_category_month;not null" json:"category_id"`
	Month         string    `gorm:"type:varchar(7);uniqueIndex:uk_category_month;not null" json:"month"`
	AssignedCents int64     `gorm:"not null;default:0" json:"assigned_cents"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CategoryAssignment) TableName() string {
	return "category_assignment"
}
