package service

import (
	"context"
	"fmt"
	"log/slog"

	"budgetledger/internal/config"
	"budgetledger/internal/envelope"
	"budgetledger/internal/errs"
	"budgetledger/internal/model"

	"gorm.io/gorm"
)

// AllocationService assign / move / cover overspending
//
// 【加锁顺序】账本行 → 分类行（ID 升序）。记账只锁账户行，
// 因此与分配操作之间不会形成环路。
type AllocationService struct {
	*store
	log *slog.Logger
}

func NewAllocationService(db *gorm.DB, cfg *config.Config) *AllocationService {
	return &AllocationService{
		store: newStore(db, cfg),
		log:   slog.Default().With("component", "allocation"),
	}
}

type AssignOptions struct {
	// AllowOverdraft 允许 Ready-to-Assign 变为负数，结果中带警告
	AllowOverdraft bool `json:"allow_overdraft"`
}

type AssignResult struct {
	CategoryID    int64  `json:"category_id"`
	Month         string `json:"month"`
	AssignedCents int64  `json:"assigned_cents"`
	BalanceCents  int64  `json:"balance_cents"`
	ReadyToAssign int64  `json:"ready_to_assign"`
	Warning       string `json:"warning,omitempty"`
}

// Assign 调整分类某月的分配额，delta 可正可负
//
// 增加分配使 Ready-to-Assign 为负时返回 ReadyToAssignWouldGoNegative，
// 调用方或配置允许透支时改为在结果中给出警告。
func (s *AllocationService) Assign(ctx context.Context, lc LedgerContext, categoryID int64, month envelope.Month, delta int64, opts AssignOptions) (*AssignResult, error) {
	if delta == 0 {
		return nil, errs.New(errs.KindZeroOrNegativeAmount, "assignment delta must be non-zero")
	}
	if month.IsZero() {
		return nil, errs.New(errs.KindInvalidArgument, "month is required")
	}

	result := &AssignResult{CategoryID: categoryID, Month: month.String()}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.lockLedger(ctx, tx, lc)
		if err != nil {
			return err
		}
		categories, err := s.lockCategories(ctx, tx, ledger.ID, categoryID)
		if err != nil {
			return err
		}
		if delta > 0 {
			if err := requireActive(categories, categoryID); err != nil {
				return err
			}
		}

		row, err := s.assignments.AddAssigned(ctx, tx, ledger.ID, categoryID, month.String(), delta)
		if err != nil {
			return fmt.Errorf("update assignment: %w", err)
		}

		// 在锁内重新计算
		in, err := s.envelopeInput(ctx, tx, ledger.ID, nil)
		if err != nil {
			return err
		}
		rta := envelope.ReadyToAssign(in)
		if delta > 0 && rta < 0 {
			if !opts.AllowOverdraft && !s.cfg.Ledger.AllowNegativeReadyToAssign {
				return errs.New(errs.KindReadyToAssignWouldGoNegative,
					"assigning %d to category %d leaves Ready-to-Assign at %d", delta, categoryID, rta)
			}
			result.Warning = fmt.Sprintf("%s: Ready-to-Assign is %d", errs.KindReadyToAssignWouldGoNegative, rta)
		}

		result.AssignedCents = row.AssignedCents
		result.BalanceCents = envelope.Balance(in, categoryID, month)
		result.ReadyToAssign = rta
		return s.emit(ctx, tx, ledger.ID, model.EventCategoryAssigned, fmt.Sprintf("%d:%s", categoryID, month), result)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("category assigned",
		"ledger_id", lc.LedgerID,
		"category_id", categoryID,
		"month", month.String(),
		"delta", delta,
		"ready_to_assign", result.ReadyToAssign)
	if result.Warning != "" {
		s.log.Warn("ready to assign is negative", "ledger_id", lc.LedgerID, "ready_to_assign", result.ReadyToAssign)
	}
	return result, nil
}

type MoveRequest struct {
	FromCategoryID int64          `json:"from_category_id"`
	ToCategoryID   int64          `json:"to_category_id"`
	Month          envelope.Month `json:"-"`
	AmountCents    int64          `json:"amount_cents"`
}

type MoveResult struct {
	FromCategoryID int64 `json:"from_category_id"`
	ToCategoryID   int64 `json:"to_category_id"`
	AmountCents    int64 `json:"amount_cents"`
	FromBalance    int64 `json:"from_balance"`
	ToBalance      int64 `json:"to_balance"`
}

// Move 在两个分类之间转移分配额，不改变 Ready-to-Assign。
// 转出额不能超过源分类当月滚动余额。
func (s *AllocationService) Move(ctx context.Context, lc LedgerContext, req MoveRequest) (*MoveResult, error) {
	if err := validateMove(req); err != nil {
		return nil, err
	}

	var result *MoveResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		categories, err := s.lockCategories(ctx, tx, ledger.ID, ascending(req.FromCategoryID, req.ToCategoryID)...)
		if err != nil {
			return err
		}
		if err := requireActive(categories, req.ToCategoryID); err != nil {
			return err
		}
		result, err = s.move(ctx, tx, ledger.ID, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("money moved",
		"ledger_id", lc.LedgerID,
		"from", req.FromCategoryID,
		"to", req.ToCategoryID,
		"amount_cents", req.AmountCents)
	return result, nil
}

func validateMove(req MoveRequest) error {
	if req.AmountCents <= 0 {
		return errs.New(errs.KindZeroOrNegativeAmount, "amount must be positive, got %d", req.AmountCents)
	}
	if req.FromCategoryID == req.ToCategoryID {
		return errs.New(errs.KindInvalidAccount, "source and destination category must differ")
	}
	if req.Month.IsZero() {
		return errs.New(errs.KindInvalidArgument, "month is required")
	}
	return nil
}

// move 调用方已锁定两个分类
func (s *AllocationService) move(ctx context.Context, tx *gorm.DB, ledgerID int64, req MoveRequest) (*MoveResult, error) {
	in, err := s.envelopeInput(ctx, tx, ledgerID, nil)
	if err != nil {
		return nil, err
	}
	available := envelope.Balance(in, req.FromCategoryID, req.Month)
	if available < req.AmountCents {
		return nil, errs.New(errs.KindInsufficientCategoryBalance,
			"category %d has %d available, cannot move %d", req.FromCategoryID, available, req.AmountCents)
	}

	month := req.Month.String()
	if _, err := s.assignments.AddAssigned(ctx, tx, ledgerID, req.FromCategoryID, month, -req.AmountCents); err != nil {
		return nil, fmt.Errorf("update source assignment: %w", err)
	}
	if _, err := s.assignments.AddAssigned(ctx, tx, ledgerID, req.ToCategoryID, month, req.AmountCents); err != nil {
		return nil, fmt.Errorf("update destination assignment: %w", err)
	}

	result := &MoveResult{
		FromCategoryID: req.FromCategoryID,
		ToCategoryID:   req.ToCategoryID,
		AmountCents:    req.AmountCents,
		FromBalance:    available - req.AmountCents,
		ToBalance:      envelope.Balance(in, req.ToCategoryID, req.Month) + req.AmountCents,
	}
	key := fmt.Sprintf("%d>%d:%s", req.FromCategoryID, req.ToCategoryID, month)
	if err := s.emit(ctx, tx, ledgerID, model.EventMoneyMoved, key, result); err != nil {
		return nil, err
	}
	return result, nil
}

// CoverPolicy 超支处理方式
type CoverPolicy string

const (
	// CoverMove 从源分类转入
	CoverMove CoverPolicy = "move"
	// CoverDefer 不做任何变更，负余额滚入下月
	CoverDefer CoverPolicy = "defer"
)

type CoverRequest struct {
	OverspentCategoryID int64          `json:"category_id"`
	SourceCategoryID    int64          `json:"source_category_id"`
	Month               envelope.Month `json:"-"`
	// AmountCents 为空时覆盖全部超支额
	AmountCents *int64      `json:"amount_cents"`
	Policy      CoverPolicy `json:"policy"`
}

type CoverResult struct {
	Policy             CoverPolicy `json:"policy"`
	CategoryID         int64       `json:"category_id"`
	CoveredCents       int64       `json:"covered_cents"`
	RolledForwardCents int64       `json:"rolled_forward_cents"`
	BalanceCents       int64       `json:"balance_cents"`
	SourceBalanceCents *int64      `json:"source_balance_cents,omitempty"`
}

// CoverOverspending 覆盖分类超支
func (s *AllocationService) CoverOverspending(ctx context.Context, lc LedgerContext, req CoverRequest) (*CoverResult, error) {
	if req.Policy == "" {
		req.Policy = CoverMove
	}
	if req.Month.IsZero() {
		return nil, errs.New(errs.KindInvalidArgument, "month is required")
	}
	switch req.Policy {
	case CoverDefer:
		return s.deferOverspending(ctx, lc, req)
	case CoverMove:
	default:
		return nil, errs.New(errs.KindInvalidArgument, "unknown cover policy %q", req.Policy)
	}
	if req.AmountCents != nil && *req.AmountCents <= 0 {
		return nil, errs.New(errs.KindZeroOrNegativeAmount, "amount must be positive, got %d", *req.AmountCents)
	}
	if req.OverspentCategoryID == req.SourceCategoryID {
		return nil, errs.New(errs.KindInvalidAccount, "source and overspent category must differ")
	}

	result := &CoverResult{Policy: CoverMove, CategoryID: req.OverspentCategoryID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		categories, err := s.lockCategories(ctx, tx, ledger.ID, ascending(req.OverspentCategoryID, req.SourceCategoryID)...)
		if err != nil {
			return err
		}
		if err := requireActive(categories, req.OverspentCategoryID); err != nil {
			return err
		}

		in, err := s.envelopeInput(ctx, tx, ledger.ID, nil)
		if err != nil {
			return err
		}
		balance := envelope.Balance(in, req.OverspentCategoryID, req.Month)
		amount := -balance
		if req.AmountCents != nil {
			amount = *req.AmountCents
		}
		if amount <= 0 {
			// 未超支且未指定金额
			result.BalanceCents = balance
			return nil
		}

		moved, err := s.move(ctx, tx, ledger.ID, MoveRequest{
			FromCategoryID: req.SourceCategoryID,
			ToCategoryID:   req.OverspentCategoryID,
			Month:          req.Month,
			AmountCents:    amount,
		})
		if err != nil {
			return err
		}
		result.CoveredCents = amount
		result.BalanceCents = moved.ToBalance
		result.SourceBalanceCents = &moved.FromBalance
		if moved.ToBalance < 0 {
			result.RolledForwardCents = -moved.ToBalance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("overspending covered",
		"ledger_id", lc.LedgerID,
		"category_id", req.OverspentCategoryID,
		"source", req.SourceCategoryID,
		"covered_cents", result.CoveredCents)
	return result, nil
}

// deferOverspending 只报告将滚入下月的金额
func (s *AllocationService) deferOverspending(ctx context.Context, lc LedgerContext, req CoverRequest) (*CoverResult, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	category, err := s.accounts.GetByID(ctx, nil, ledger.ID, req.OverspentCategoryID)
	if err != nil || !category.IsCategory() {
		return nil, errs.New(errs.KindInvalidAccount, "category %d not found in ledger %d", req.OverspentCategoryID, ledger.ID)
	}
	in, err := s.envelopeInput(ctx, nil, ledger.ID, nil)
	if err != nil {
		return nil, err
	}
	balance := envelope.Balance(in, req.OverspentCategoryID, req.Month)
	result := &CoverResult{Policy: CoverDefer, CategoryID: req.OverspentCategoryID, BalanceCents: balance}
	if balance < 0 {
		result.RolledForwardCents = -balance
	}
	return result, nil
}

func ascending(a, b int64) []int64 {
	if a > b {
		return []int64{b, a}
	}
	return []int64{a, b}
}
