package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSweepLock(t *testing.T) {
	l := NewSweepLock(nil, 7, "owner-a", 0)
	assert.Equal(t, "ledger:lock:recurring-sweep:7", l.Key())
	assert.Equal(t, time.Minute, l.expiration)
	assert.Equal(t, "owner-a", l.value)

	l = NewSweepLock(nil, 8, "owner-b", 5*time.Second)
	assert.Equal(t, 5*time.Second, l.expiration)
	assert.NotEqual(t, SweepLockKey(7), l.Key())
}
