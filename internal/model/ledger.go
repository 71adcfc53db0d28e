package model

import (
	"time"
)

// Ledger 一个完整的预算账本，归属于唯一的用户
//
// 账本创建时会同时创建系统账户：收入账户、对账调整账户、分类分组。
type Ledger struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              int64     `gorm:"index;not null" json:"user_id"`
	Name                string    `gorm:"type:varchar(128);not null" json:"name"`
	IncomeAccountID     int64     `gorm:"not null;default:0" json:"income_account_id"`
	AdjustmentAccountID int64     `gorm:"not null;default:0" json:"adjustment_account_id"`
	CategoryGroupID     int64     `gorm:"not null;default:0" json:"category_group_id"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Ledger) TableName() string {
	return "ledger"
}
