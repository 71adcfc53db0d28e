package model

import (
	"time"
)

const (
	AccountTypeAsset     = "asset"
	AccountTypeLiability = "liability"
	AccountTypeEquity    = "equity"
	AccountTypeIncome    = "income"
)

// AccountRoleAdjustment 对账差额的对方账户
const AccountRoleAdjustment = "adjustment"

func ValidAccountType(t string) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome:
		return true
	}
	return false
}

// Account 账本中的账户
//
// 非分组、无系统角色的权益账户即预算分类（信封）。
// Balance 是缓存的借方合计减贷方合计，每次记账时在行锁内更新，
// 随时可以由流水重新计算。
type Account struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LedgerID  int64     `gorm:"index;not null" json:"ledger_id"`
	ParentID  *int64    `gorm:"index" json:"parent_id,omitempty"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Type      string    `gorm:"type:varchar(16);not null" json:"type"`
	Role      string    `gorm:"type:varchar(16);not null;default:''" json:"role,omitempty"`
	IsGroup   bool      `gorm:"not null" json:"is_group"`
	Active    bool      `gorm:"not null" json:"active"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Version   int       `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "ledger_account"
}

// IsCategory 是否为预算分类
func (a *Account) IsCategory() bool {
	return a.Type == AccountTypeEquity && !a.IsGroup && a.Role == ""
}

// Postable 是否允许记账
func (a *Account) Postable() bool {
	return !a.IsGroup && a.Active
}
