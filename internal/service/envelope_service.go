package service

import (
	"context"

	"budgetledger/internal/config"
	"budgetledger/internal/envelope"

	"gorm.io/gorm"
)

// EnvelopeService 只读的信封余额视图
type EnvelopeService struct {
	*store
}

func NewEnvelopeService(db *gorm.DB, cfg *config.Config) *EnvelopeService {
	return &EnvelopeService{store: newStore(db, cfg)}
}

// Status 返回 month 月每个分类的预算、活动、滚动余额和截至该月末的 Ready-to-Assign
func (s *EnvelopeService) Status(ctx context.Context, lc LedgerContext, month envelope.Month) (*envelope.Status, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	end := month.End()
	in, err := s.envelopeInput(ctx, nil, ledger.ID, &end)
	if err != nil {
		return nil, err
	}
	status := envelope.Calculate(in, month)
	return &status, nil
}

// ReadyToAssign 全部收入减去全部月份的分配
func (s *EnvelopeService) ReadyToAssign(ctx context.Context, lc LedgerContext) (int64, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return 0, err
	}
	in, err := s.envelopeInput(ctx, nil, ledger.ID, nil)
	if err != nil {
		return 0, err
	}
	return envelope.ReadyToAssign(in), nil
}
