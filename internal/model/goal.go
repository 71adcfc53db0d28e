package model

import (
	"time"
)

// Goal 分类的资金目标，每个分类最多一个
type Goal struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LedgerID          int64      `gorm:"index;not null" json:"ledger_id"`
	CategoryID        int64      `gorm:"uniqueIndex;not null" json:"category_id"`
	Type              string     `gorm:"type:varchar(20);not null" json:"type"`
	TargetAmountCents int64      `gorm:"not null" json:"target_amount_cents"`
	TargetDate        *time.Time `gorm:"type:date" json:"target_date,omitempty"`
	RepeatFrequency   string     `gorm:"type:varchar(16)" json:"repeat_frequency,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Goal) TableName() string {
	return "goal"
}
