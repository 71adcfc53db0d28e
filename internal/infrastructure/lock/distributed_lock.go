package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 分布式锁
// ============================================================================
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（互斥）
//   - EX: 过期时间，持有者崩溃后锁自动释放
//   - value: 持有者标识，释放时校验
//
// 释放：Lua 脚本原子地"比较 value + 删除"，避免删掉别人的锁
//
// 锁只是调度层面的保护，正确性仍由数据库行锁和唯一索引保证。
// ============================================================================

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// DistributedLock 基于 Redis 的互斥锁
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 非阻塞加锁
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Unlock 只释放自己持有的锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	return l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Err()
}

// Key 锁的 key
func (l *DistributedLock) Key() string {
	return l.key
}

// NewSweepLock 周期交易扫描锁，按账本维度
//
// cron 重叠时同一账本的第二次扫描直接放弃，不同账本可以并行扫描。
func NewSweepLock(client *redis.Client, ledgerID int64, owner string, expiration time.Duration) *DistributedLock {
	if expiration <= 0 {
		expiration = time.Minute
	}
	return NewDistributedLock(client, SweepLockKey(ledgerID), owner, expiration)
}

func SweepLockKey(ledgerID int64) string {
	return fmt.Sprintf("ledger:lock:recurring-sweep:%d", ledgerID)
}
