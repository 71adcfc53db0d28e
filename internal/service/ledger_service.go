package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetledger/internal/config"
	"budgetledger/internal/errs"
	"budgetledger/internal/model"

	"gorm.io/gorm"
)

// LedgerService 账本与账户管理
type LedgerService struct {
	*store
	log *slog.Logger
}

func NewLedgerService(db *gorm.DB, cfg *config.Config) *LedgerService {
	return &LedgerService{
		store: newStore(db, cfg),
		log:   slog.Default().With("component", "ledger"),
	}
}

// CreateLedger 创建账本及系统账户：收入、对账调整、分类分组
func (s *LedgerService) CreateLedger(ctx context.Context, userID int64, name string) (*model.Ledger, error) {
	name = strings.TrimSpace(name)
	if userID <= 0 {
		return nil, errs.New(errs.KindInvalidArgument, "user is required")
	}
	if name == "" {
		return nil, errs.New(errs.KindInvalidArgument, "ledger name is required")
	}

	ledger := &model.Ledger{UserID: userID, Name: name}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.ledgers.Create(ctx, tx, ledger); err != nil {
			return fmt.Errorf("create ledger: %w", err)
		}

		system := []*model.Account{
			{Name: "Income", Type: model.AccountTypeIncome},
			{Name: "Reconciliation Adjustments", Type: model.AccountTypeEquity, Role: model.AccountRoleAdjustment},
			{Name: "Categories", Type: model.AccountTypeEquity, IsGroup: true},
		}
		for _, a := range system {
			a.LedgerID = ledger.ID
			a.Active = true
			if err := s.accounts.Create(ctx, tx, a); err != nil {
				return fmt.Errorf("create %s account: %w", a.Name, err)
			}
		}
		ledger.IncomeAccountID = system[0].ID
		ledger.AdjustmentAccountID = system[1].ID
		ledger.CategoryGroupID = system[2].ID
		return s.ledgers.SetSystemAccounts(ctx, tx, ledger)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ledger created", "ledger_id", ledger.ID, "user_id", userID)
	return ledger, nil
}

func (s *LedgerService) ListLedgers(ctx context.Context, userID int64) ([]*model.Ledger, error) {
	return s.ledgers.ListByUser(ctx, userID)
}

type CreateAccountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsGroup  bool   `json:"is_group"`
	ParentID *int64 `json:"parent_id"`
}

// CreateAccount 创建账户；未指定父级的分类挂在账本的分类分组下
func (s *LedgerService) CreateAccount(ctx context.Context, lc LedgerContext, req CreateAccountRequest) (*model.Account, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, errs.New(errs.KindInvalidArgument, "account name is required")
	}
	if !model.ValidAccountType(req.Type) {
		return nil, errs.New(errs.KindInvalidArgument, "unknown account type %q", req.Type)
	}

	account := &model.Account{
		Name:     req.Name,
		Type:     req.Type,
		IsGroup:  req.IsGroup,
		ParentID: req.ParentID,
		Active:   true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		account.LedgerID = ledger.ID

		if account.ParentID == nil && account.IsCategory() && ledger.CategoryGroupID != 0 {
			parent := ledger.CategoryGroupID
			account.ParentID = &parent
		}
		if account.ParentID != nil {
			parent, err := s.accounts.GetByID(ctx, tx, ledger.ID, *account.ParentID)
			if err != nil {
				return notFound(err, errs.KindInvalidAccount, "parent account %d not found", *account.ParentID)
			}
			if !parent.IsGroup {
				return errs.New(errs.KindInvalidAccount, "parent account %d is not a group", parent.ID)
			}
		}
		return s.accounts.Create(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeactivateAccount 软停用，已有流水保留，新交易被拒绝
func (s *LedgerService) DeactivateAccount(ctx context.Context, lc LedgerContext, accountID int64) error {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetByID(ctx, nil, ledger.ID, accountID)
	if err != nil {
		return notFound(err, errs.KindInvalidAccount, "account %d not found", accountID)
	}
	if account.Role != "" || account.ID == ledger.IncomeAccountID || account.ID == ledger.CategoryGroupID {
		return errs.New(errs.KindInvalidAccount, "system account %d cannot be deactivated", accountID)
	}
	_, err = s.accounts.SetActive(ctx, nil, ledger.ID, accountID, false)
	return err
}

func (s *LedgerService) ListAccounts(ctx context.Context, lc LedgerContext) ([]*model.Account, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	return s.accounts.ListByLedger(ctx, nil, ledger.ID)
}

// GetAccountBalance 返回缓存余额（借方合计减贷方合计）
func (s *LedgerService) GetAccountBalance(ctx context.Context, lc LedgerContext, accountID int64) (*model.Account, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, nil, ledger.ID, accountID)
	if err != nil {
		return nil, notFound(err, errs.KindInvalidAccount, "account %d not found", accountID)
	}
	return account, nil
}

type BalanceCheck struct {
	AccountID     int64 `json:"account_id"`
	CachedCents   int64 `json:"cached_cents"`
	DebitsCents   int64 `json:"debits_cents"`
	CreditsCents  int64 `json:"credits_cents"`
	ComputedCents int64 `json:"computed_cents"`
	Consistent    bool  `json:"consistent"`
}

// VerifyAccountBalance 由流水重新计算余额并与缓存比较
func (s *LedgerService) VerifyAccountBalance(ctx context.Context, lc LedgerContext, accountID int64) (*BalanceCheck, error) {
	account, err := s.GetAccountBalance(ctx, lc, accountID)
	if err != nil {
		return nil, err
	}
	debits, credits, err := s.accounts.SumPostings(ctx, nil, account.ID)
	if err != nil {
		return nil, fmt.Errorf("sum postings: %w", err)
	}
	check := &BalanceCheck{
		AccountID:     account.ID,
		CachedCents:   account.Balance,
		DebitsCents:   debits,
		CreditsCents:  credits,
		ComputedCents: debits - credits,
	}
	check.Consistent = check.CachedCents == check.ComputedCents
	if !check.Consistent {
		s.log.Warn("cached balance drift", "account_id", account.ID, "cached", check.CachedCents, "computed", check.ComputedCents)
	}
	return check, nil
}
