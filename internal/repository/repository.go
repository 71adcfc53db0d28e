package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// use 返回事务连接，未传事务时使用默认连接
func use(db, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return db
	}
	return tx
}

// forUpdate SELECT ... FOR UPDATE，sqlite 驱动会忽略该子句
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
