package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/errs"
	"budgetledger/internal/model"
	"budgetledger/internal/schedule"

	"gorm.io/gorm"
)

// ReconcileService 银行对账
type ReconcileService struct {
	*store
	log *slog.Logger
}

func NewReconcileService(db *gorm.DB, cfg *config.Config) *ReconcileService {
	return &ReconcileService{
		store: newStore(db, cfg),
		log:   slog.Default().With("component", "reconcile"),
	}
}

type ReconcileRequest struct {
	AccountID     int64     `json:"account_id"`
	StatementDate time.Time `json:"statement_date"`
	// StatementBalanceCents 与账户余额同号：借方合计减贷方合计
	StatementBalanceCents   int64    `json:"statement_balance_cents"`
	ClearedTransactionUUIDs []string `json:"cleared_transaction_uuids"`
}

type ReconcileResult struct {
	Record                    *model.ReconciliationRecord `json:"record"`
	ClearedTransactionUUIDs   []string                    `json:"cleared_transaction_uuids"`
	DifferenceCents           int64                       `json:"difference_cents"`
	AdjustmentTransactionUUID *string                     `json:"adjustment_transaction_uuid,omitempty"`
	// Replayed 相同输入的重试，返回已有记录
	Replayed bool `json:"replayed"`
}

// Reconcile 对账：标记流水为已对账，计算差额，差额不为零时与调整账户记一笔调整
//
// 对 (account, statement_date) 相同输入的重试是幂等的；
// 已清算流水集合不同则视为新的一次对账，之前的调整不会自动冲回。
func (s *ReconcileService) Reconcile(ctx context.Context, lc LedgerContext, req ReconcileRequest) (*ReconcileResult, error) {
	if req.StatementDate.IsZero() {
		return nil, errs.New(errs.KindInvalidArgument, "statement date is required")
	}
	statementDate := schedule.Day(req.StatementDate)
	uuids := normalizeUUIDs(req.ClearedTransactionUUIDs)
	fp := fingerprint(req.StatementBalanceCents, uuids)

	result := &ReconcileResult{ClearedTransactionUUIDs: uuids}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ledger, err := s.ledger(ctx, tx, lc)
		if err != nil {
			return err
		}
		if req.AccountID == ledger.AdjustmentAccountID {
			return errs.New(errs.KindInvalidAccount, "cannot reconcile the adjustment account")
		}

		locked, err := s.accounts.GetByIDsForUpdate(ctx, tx, ledger.ID, ascending(req.AccountID, ledger.AdjustmentAccountID)...)
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		var account *model.Account
		for _, a := range locked {
			if a.ID == req.AccountID {
				account = a
			}
		}
		if account == nil {
			return errs.New(errs.KindInvalidAccount, "account %d not found in ledger %d", req.AccountID, ledger.ID)
		}
		if !account.Postable() || account.IsCategory() {
			return errs.New(errs.KindInvalidAccount, "account %d cannot be reconciled", req.AccountID)
		}

		existing, err := s.reconciliations.GetByFingerprint(ctx, tx, account.ID, statementDate, fp)
		switch {
		case err == nil:
			result.Record = existing
			result.DifferenceCents = existing.DifferenceCents
			result.AdjustmentTransactionUUID = existing.AdjustmentTransactionUUID
			result.Replayed = true
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		txns, err := s.transactions.ListByUUIDs(ctx, tx, ledger.ID, uuids)
		if err != nil {
			return err
		}
		found := make(map[string]*model.Transaction, len(txns))
		for _, t := range txns {
			found[t.UUID] = t
		}
		ids := make([]int64, 0, len(uuids))
		for _, id := range uuids {
			t, ok := found[id]
			if !ok {
				return errs.New(errs.KindTransactionNotFound, "transaction %s not found in ledger %d", id, ledger.ID)
			}
			if t.DebitAccountID != account.ID && t.CreditAccountID != account.ID {
				return errs.New(errs.KindTransactionNotFound, "transaction %s does not touch account %d", id, account.ID)
			}
			ids = append(ids, t.ID)
		}
		if err := s.transactions.UpdateClearedStatus(ctx, tx, ids, model.ClearedStatusReconciled); err != nil {
			return fmt.Errorf("mark reconciled: %w", err)
		}

		difference := req.StatementBalanceCents - account.Balance
		rec := &model.ReconciliationRecord{
			LedgerID:                ledger.ID,
			AccountID:               account.ID,
			StatementDate:           statementDate,
			Fingerprint:             fp,
			StatementBalanceCents:   req.StatementBalanceCents,
			LedgerBalanceCents:      account.Balance,
			DifferenceCents:         difference,
			ClearedTransactionUUIDs: encodeUUIDs(uuids),
		}

		if difference != 0 {
			adj := PostRequest{
				DebitAccountID:  account.ID,
				CreditAccountID: ledger.AdjustmentAccountID,
				AmountCents:     difference,
				Date:            statementDate,
				Description:     fmt.Sprintf("Reconciliation adjustment %s", statementDate.Format(time.DateOnly)),
			}
			if difference < 0 {
				adj.DebitAccountID, adj.CreditAccountID = ledger.AdjustmentAccountID, account.ID
				adj.AmountCents = -difference
			}
			posted, err := s.post(ctx, tx, ledger.ID, adj, postOptions{
				source:        model.TransactionSourceAdjustment,
				clearedStatus: model.ClearedStatusReconciled,
			})
			if err != nil {
				return fmt.Errorf("post adjustment: %w", err)
			}
			rec.AdjustmentTransactionID = &posted.ID
			rec.AdjustmentTransactionUUID = &posted.UUID
		}

		if err := s.reconciliations.Create(ctx, tx, rec); err != nil {
			return fmt.Errorf("create reconciliation record: %w", err)
		}
		result.Record = rec
		result.DifferenceCents = difference
		result.AdjustmentTransactionUUID = rec.AdjustmentTransactionUUID
		return s.emit(ctx, tx, ledger.ID, model.EventReconciliationComplete, strconv.FormatInt(rec.ID, 10), result)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("account reconciled",
		"ledger_id", lc.LedgerID,
		"account_id", req.AccountID,
		"statement_date", statementDate.Format(time.DateOnly),
		"difference_cents", result.DifferenceCents,
		"replayed", result.Replayed)
	return result, nil
}

func (s *ReconcileService) ListReconciliations(ctx context.Context, lc LedgerContext, accountID int64) ([]*model.ReconciliationRecord, error) {
	ledger, err := s.ledger(ctx, nil, lc)
	if err != nil {
		return nil, err
	}
	return s.reconciliations.ListByAccount(ctx, ledger.ID, accountID)
}

// ClearedUUIDs 解析记录中保存的流水 UUID 列表
func ClearedUUIDs(rec *model.ReconciliationRecord) ([]string, error) {
	var uuids []string
	if err := json.Unmarshal([]byte(rec.ClearedTransactionUUIDs), &uuids); err != nil {
		return nil, fmt.Errorf("decode cleared uuids of record %d: %w", rec.ID, err)
	}
	return uuids, nil
}

func normalizeUUIDs(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func encodeUUIDs(uuids []string) string {
	b, _ := json.Marshal(uuids)
	return string(b)
}

// fingerprint 对账单余额与已清算流水集合的摘要
func fingerprint(statementBalance int64, sortedUUIDs []string) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(statementBalance, 10) + "|" + strings.Join(sortedUUIDs, ",")))
	return hex.EncodeToString(sum[:])
}
