package job

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetledger/internal/config"
	"budgetledger/internal/infrastructure/database"
	"budgetledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePublisher struct {
	fail map[string]bool
	sent []string
}

func (p *fakePublisher) Publish(topic, key, value string) error {
	if p.fail[key] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, key)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.Default().Database
	cfg.Path = filepath.Join(t.TempDir(), "ledger.db")
	db, err := database.Init(&cfg)
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, db *gorm.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, db.Create(&model.OutboxMessage{
			LedgerID:   1,
			EventType:  model.EventTransactionPosted,
			MessageKey: key,
			Topic:      "ledger-events",
			Payload:    "{}",
			Status:     model.OutboxStatusPending,
		}).Error)
	}
}

func statusOf(t *testing.T, db *gorm.DB, key string) model.OutboxMessage {
	t.Helper()
	var msg model.OutboxMessage
	require.NoError(t, db.Where("message_key = ?", key).First(&msg).Error)
	return msg
}

func TestOutboxRelay_RunOnce(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "a", "b", "c")

	pub := &fakePublisher{fail: map[string]bool{"b": true}}
	relay := NewOutboxRelay(db, pub, &config.OutboxConfig{BatchSize: 10, MaxRetryCount: 2})

	stats, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RelayStats{Sent: 2, Retry: 1}, stats)
	assert.Equal(t, []string{"a", "c"}, pub.sent)
	assert.Equal(t, model.OutboxStatusSent, statusOf(t, db, "a").Status)

	b := statusOf(t, db, "b")
	assert.Equal(t, model.OutboxStatusPending, b.Status)
	assert.Equal(t, 1, b.RetryCount)

	// 第二次失败达到上限
	stats, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RelayStats{Failed: 1}, stats)

	b = statusOf(t, db, "b")
	assert.Equal(t, model.OutboxStatusFailed, b.Status)
	assert.Equal(t, 2, b.RetryCount)

	// 失败的消息不再投递
	stats, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RelayStats{}, stats)
}

func TestOutboxRelay_BatchSize(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "a", "b", "c")

	pub := &fakePublisher{}
	relay := NewOutboxRelay(db, pub, &config.OutboxConfig{BatchSize: 2, MaxRetryCount: 5})

	stats, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sent)
	assert.Equal(t, []string{"a", "b"}, pub.sent)
}
