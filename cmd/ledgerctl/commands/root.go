package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/infrastructure/database"
	"budgetledger/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	configPath string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Scheduled jobs for the budget ledger",
	Long: `ledgerctl runs one pass of a ledger job and exits.

Every job is safe to re-run: recurring sweeps and installment processing
never post the same occurrence twice, and the relay only publishes pending
outbox rows.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// bootstrap 加载 .env 和配置，初始化日志和数据库
func bootstrap() (*config.Config, *gorm.DB, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))

	db, err := database.Init(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return cfg, db, nil
}

// ledgerFlags 账本类命令共用的参数
type ledgerFlags struct {
	userID   int64
	ledgerID int64
	asOf     string
}

func (f *ledgerFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.userID, "user", 0, "owner user id (required)")
	cmd.Flags().Int64Var(&f.ledgerID, "ledger", 0, "ledger id (required)")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "process items due on or before this date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("ledger")
}

func (f *ledgerFlags) context() service.LedgerContext {
	return service.LedgerContext{UserID: f.userID, LedgerID: f.ledgerID}
}

func (f *ledgerFlags) date() (time.Time, error) {
	if f.asOf == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(time.DateOnly, f.asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, want YYYY-MM-DD", f.asOf)
	}
	return d, nil
}

// printBatch 输出批处理结果
func printBatch(cmd *cobra.Command, name string, res *service.BatchResult) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Busy {
		fmt.Fprintf(out, "%s: another run holds the ledger lock, nothing to do\n", name)
		return nil
	}
	fmt.Fprintf(out, "%s: created=%d skipped=%d failed=%d\n", name, res.Created, res.Skipped, res.Failed)
	for _, item := range res.Items {
		switch item.Status {
		case service.ItemCreated:
			fmt.Fprintf(out, "  %d created %s\n", item.ID, item.TransactionUUID)
		default:
			fmt.Fprintf(out, "  %d %s %s\n", item.ID, item.Status, item.Error)
			if item.Suspended {
				fmt.Fprintf(out, "  %d suspended after repeated failures\n", item.ID)
			}
		}
	}
	return nil
}

// batchError 有失败项时以非零状态退出，便于 cron 告警
func batchError(name string, res *service.BatchResult) error {
	if res.Failed > 0 {
		return fmt.Errorf("%s: %d item(s) failed", name, res.Failed)
	}
	return nil
}
