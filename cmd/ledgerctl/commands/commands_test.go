package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/infrastructure/database"
	"budgetledger/internal/model"
	"budgetledger/internal/schedule"
	"budgetledger/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run 执行一条命令，配置只来自环境变量
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	configPath, jsonOutput = "", false
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteEnv(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("LEDGER_DATABASE_DRIVER", "sqlite")
	t.Setenv("LEDGER_DATABASE_PATH", path)
	t.Setenv("LEDGER_KAFKA_ENABLED", "false")
	t.Setenv("LEDGER_REDIS_ENABLED", "false")

	cfg := config.Default()
	cfg.Database.Path = path
	return cfg
}

func TestMigrate(t *testing.T) {
	sqliteEnv(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")
}

func TestSweep(t *testing.T) {
	cfg := sqliteEnv(t)
	db, err := database.Init(&cfg.Database)
	require.NoError(t, err)

	ctx := context.Background()
	ledgers := service.NewLedgerService(db, cfg)
	ledger, err := ledgers.CreateLedger(ctx, 42, "Home")
	require.NoError(t, err)
	lc := service.LedgerContext{UserID: 42, LedgerID: ledger.ID}
	checking, err := ledgers.CreateAccount(ctx, lc, service.CreateAccountRequest{Name: "Checking", Type: model.AccountTypeAsset})
	require.NoError(t, err)
	rent, err := ledgers.CreateAccount(ctx, lc, service.CreateAccountRequest{Name: "Rent", Type: model.AccountTypeEquity})
	require.NoError(t, err)
	_, err = service.NewRecurringService(db, nil, cfg).CreateRecurringTemplate(ctx, lc, service.CreateTemplateRequest{
		AccountID:   checking.ID,
		CategoryID:  &rent.ID,
		AmountCents: 1000,
		Frequency:   schedule.Monthly,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AutoCreate:  true,
	})
	require.NoError(t, err)

	args := []string{"sweep", "--user", "42", "--ledger", fmt.Sprint(ledger.ID), "--as-of", "2024-01-01", "--json"}
	out, err := run(t, args...)
	require.NoError(t, err)
	var res service.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Created)

	out, err = run(t, args[:len(args)-1]...)
	require.NoError(t, err)
	assert.Contains(t, out, "created=0")

	_, err = run(t, "sweep", "--user", "43", "--ledger", fmt.Sprint(ledger.ID))
	assert.Error(t, err)
}

func TestRelayRequiresKafka(t *testing.T) {
	sqliteEnv(t)
	_, err := run(t, "relay")
	assert.ErrorContains(t, err, "kafka is disabled")
}

func TestLedgerFlagsDate(t *testing.T) {
	f := ledgerFlags{asOf: "2024-02-29"}
	d, err := f.date()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	f.asOf = "29/02/2024"
	_, err = f.date()
	assert.Error(t, err)
}
