package commands

import (
	"budgetledger/internal/infrastructure/cache"
	"budgetledger/internal/service"

	"github.com/spf13/cobra"
)

var sweepFlags ledgerFlags

// sweepCmd 生成到期的周期交易，每个模板每次最多一期
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Materialize due recurring transactions",
	Long: `Materialize due recurring transactions for one ledger.

Each enabled template produces at most one occurrence per run; a template
that is several periods behind catches up over successive runs.

Examples:
  ledgerctl sweep --user 42 --ledger 7
  ledgerctl sweep --user 42 --ledger 7 --as-of 2024-02-29 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := sweepFlags.date()
		if err != nil {
			return err
		}
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		rdb, err := cache.InitRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		if rdb != nil {
			defer rdb.Close()
		}

		svc := service.NewRecurringService(db, rdb, cfg)
		res, err := svc.MaterializeDueRecurring(cmd.Context(), sweepFlags.context(), asOf)
		if err != nil {
			return err
		}
		if err := printBatch(cmd, "sweep", res); err != nil {
			return err
		}
		return batchError("sweep", res)
	},
}

var installmentFlags ledgerFlags

// installmentsCmd 记账到期的分期明细
var installmentsCmd = &cobra.Command{
	Use:   "installments",
	Short: "Post due installment payments",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := installmentFlags.date()
		if err != nil {
			return err
		}
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}

		svc := service.NewInstallmentService(db, cfg)
		res, err := svc.ProcessDueInstallments(cmd.Context(), installmentFlags.context(), asOf)
		if err != nil {
			return err
		}
		if err := printBatch(cmd, "installments", res); err != nil {
			return err
		}
		return batchError("installments", res)
	},
}

func init() {
	sweepFlags.register(sweepCmd)
	installmentFlags.register(installmentsCmd)
	rootCmd.AddCommand(sweepCmd, installmentsCmd)
}
