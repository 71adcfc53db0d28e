package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/errs"
	"budgetledger/internal/model"
	"budgetledger/internal/repository"
	"budgetledger/internal/schedule"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostRequest 一笔借贷平衡的交易
type PostRequest struct {
	DebitAccountID  int64     `json:"debit_account_id"`
	CreditAccountID int64     `json:"credit_account_id"`
	AmountCents     int64     `json:"amount_cents"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
}

type postOptions struct {
	source        string
	clearedStatus string
	templateID    *int64
	occurrence    *time.Time
}

// post 在调用方的事务内记账：按 ID 升序锁定两个账户，写入交易，更新缓存余额，写发件箱
func (s *store) post(ctx context.Context, tx *gorm.DB, ledgerID int64, req PostRequest, opt postOptions) (*model.Transaction, error) {
	if req.AmountCents <= 0 {
		return nil, errs.New(errs.KindZeroOrNegativeAmount, "amount must be positive, got %d", req.AmountCents)
	}
	if req.DebitAccountID == req.CreditAccountID {
		return nil, errs.New(errs.KindInvalidAccount, "debit and credit account must differ")
	}

	locked, err := s.accounts.GetByIDsForUpdate(ctx, tx, ledgerID, req.DebitAccountID, req.CreditAccountID)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}
	byID := make(map[int64]*model.Account, len(locked))
	for _, a := range locked {
		byID[a.ID] = a
	}
	for _, id := range []int64{req.DebitAccountID, req.CreditAccountID} {
		a, ok := byID[id]
		switch {
		case !ok:
			return nil, errs.New(errs.KindInvalidAccount, "account %d not found in ledger %d", id, ledgerID)
		case a.IsGroup:
			return nil, errs.New(errs.KindInvalidAccount, "account %d is a group account", id)
		case !a.Active:
			return nil, errs.New(errs.KindInvalidAccount, "account %d is deactivated", id)
		}
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	if opt.source == "" {
		opt.source = model.TransactionSourceManual
	}
	if opt.clearedStatus == "" {
		opt.clearedStatus = model.ClearedStatusUncleared
	}

	t := &model.Transaction{
		UUID:                uuid.NewString(),
		LedgerID:            ledgerID,
		Date:                schedule.Day(date),
		AmountCents:         req.AmountCents,
		DebitAccountID:      req.DebitAccountID,
		CreditAccountID:     req.CreditAccountID,
		Description:         req.Description,
		ClearedStatus:       opt.clearedStatus,
		Source:              opt.source,
		RecurringTemplateID: opt.templateID,
		OccurrenceDate:      opt.occurrence,
	}
	if err := s.transactions.Create(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	if err := s.accounts.AddBalance(ctx, tx, t.DebitAccountID, t.AmountCents); err != nil {
		return nil, fmt.Errorf("update debit balance: %w", err)
	}
	if err := s.accounts.AddBalance(ctx, tx, t.CreditAccountID, -t.AmountCents); err != nil {
		return nil, fmt.Errorf("update credit balance: %w", err)
	}
	if err := s.emit(ctx, tx, ledgerID, model.EventTransactionPosted, t.UUID, t); err != nil {
		return nil, err
	}
	return t, nil
}

type PostingService struct {
	*store
	log *slog.Logger
}

func NewPostingService(db *gorm.DB, cfg *config.Config) *PostingService {
	return &PostingService{
		store: newStore(db, cfg),
		log:   slog.Default().With("component", "posting"),
	}
}

// Post 记一笔交易，两条腿要么全部生效要么都不生效
func (s *PostingService) Post(ctx context.Context, lc LedgerContext, req PostRequest) (*model.Transaction, error) {
	var posted *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		posted, err = s.post(ctx, tx, ledger.ID, req, postOptions{})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transaction posted",
		"ledger_id", posted.LedgerID,
		"uuid", posted.UUID,
		"amount_cents", posted.AmountCents,
		"debit", posted.DebitAccountID,
		"credit", posted.CreditAccountID)
	return posted, nil
}

type ListTransactionsRequest struct {
	AccountID int64
	From      *time.Time
	// To 含当天
	To    *time.Time
	Limit int
}

func (s *PostingService) ListTransactions(ctx context.Context, lc LedgerContext, req ListTransactionsRequest) ([]*model.Transaction, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	filter := repository.TransactionFilter{AccountID: req.AccountID, Limit: req.Limit}
	if req.From != nil {
		from := schedule.Day(*req.From)
		filter.From = &from
	}
	if req.To != nil {
		before := schedule.Day(*req.To).AddDate(0, 0, 1)
		filter.Before = &before
	}
	return s.transactions.List(ctx, nil, ledger.ID, filter)
}

func (s *PostingService) GetTransaction(ctx context.Context, lc LedgerContext, uuid string) (*model.Transaction, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	t, err := s.transactions.GetByUUID(ctx, nil, ledger.ID, uuid)
	if err != nil {
		return nil, notFound(err, errs.KindTransactionNotFound, "transaction %s not found", uuid)
	}
	return t, nil
}

// SetCleared 在 uncleared 与 cleared 之间切换，reconciled 只能由对账设置且不可撤销
func (s *PostingService) SetCleared(ctx context.Context, lc LedgerContext, uuid string, status string) (*model.Transaction, error) {
	if status != model.ClearedStatusUncleared && status != model.ClearedStatusCleared {
		return nil, errs.New(errs.KindInvalidArgument, "cleared status must be %s or %s", model.ClearedStatusUncleared, model.ClearedStatusCleared)
	}

	var t *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		t, err = s.transactions.GetByUUID(ctx, tx, ledger.ID, uuid)
		if err != nil {
			return notFound(err, errs.KindTransactionNotFound, "transaction %s not found", uuid)
		}
		if t.ClearedStatus == model.ClearedStatusReconciled {
			return errs.New(errs.KindInvalidArgument, "transaction %s is reconciled", uuid)
		}
		t.ClearedStatus = status
		return s.transactions.UpdateClearedStatus(ctx, tx, []int64{t.ID}, status)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
