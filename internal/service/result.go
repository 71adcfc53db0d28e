package service

import (
	"errors"

	"budgetledger/internal/errs"
)

// ItemStatus 批处理中单项的结果
type ItemStatus string

const (
	ItemCreated ItemStatus = "created"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

// ItemResult 批处理单项结果，成功时带交易信息，否则带错误类别和原因
type ItemResult struct {
	ID              int64      `json:"id"`
	Status          ItemStatus `json:"status"`
	TransactionID   int64      `json:"transaction_id,omitempty"`
	TransactionUUID string     `json:"transaction_uuid,omitempty"`
	ErrorKind       errs.Kind  `json:"error_kind,omitempty"`
	Error           string     `json:"error,omitempty"`
	// Suspended 本次失败后模板已被停用
	Suspended       bool       `json:"suspended,omitempty"`
}

// BatchResult 批处理汇总，单项失败不影响其他项
type BatchResult struct {
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
	Items   []ItemResult `json:"items"`
	// Busy 同一账本的另一次扫描正在进行，本次未处理任何模板
	Busy    bool         `json:"busy,omitempty"`
}

func (b *BatchResult) add(r ItemResult) {
	switch r.Status {
	case ItemCreated:
		b.Created++
	case ItemSkipped:
		b.Skipped++
	default:
		b.Failed++
	}
	b.Items = append(b.Items, r)
}

// failure 将错误转换为单项结果，DuplicateMaterialization 视为跳过
func failure(id int64, err error) ItemResult {
	r := ItemResult{ID: id, Status: ItemFailed, Error: err.Error()}
	if kind, ok := errs.KindOf(err); ok {
		r.ErrorKind = kind
	}
	if errors.Is(err, errs.ErrDuplicateMaterialization) {
		r.Status = ItemSkipped
	}
	return r
}
