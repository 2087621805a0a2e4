package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := &RedisLocker{client: rdb, newToken: func() string { return "tok-1" }}
	ctx := context.Background()

	mock.ExpectSetNX("helpdesk:sla-sweep", "tok-1", time.Minute).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"helpdesk:sla-sweep"}, "tok-1").SetVal(int64(1))

	release, ok, err := locker.TryLock(ctx, "helpdesk:sla-sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, release(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerBusy(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := &RedisLocker{client: rdb, newToken: func() string { return "tok-2" }}

	mock.ExpectSetNX("helpdesk:sla-sweep", "tok-2", time.Minute).SetVal(false)

	release, ok, err := locker.TryLock(context.Background(), "helpdesk:sla-sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, release)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := &RedisLocker{client: rdb, newToken: func() string { return "tok-3" }}

	mock.ExpectSetNX("helpdesk:sla-sweep", "tok-3", time.Minute).SetErr(errors.New("connection refused"))

	_, ok, err := locker.TryLock(context.Background(), "helpdesk:sla-sweep", time.Minute)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection refused")
}

func TestLocalLockerLeaseExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	locker := NewLocalLocker()
	locker.now = func() time.Time { return now }
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = locker.TryLock(ctx, "k", time.Minute)
	assert.False(t, ok, "lease still held")

	now = now.Add(2 * time.Minute)
	_, ok, _ = locker.TryLock(ctx, "k", time.Minute)
	assert.True(t, ok, "expired lease is reclaimed")

	require.NoError(t, release(ctx))
	_, ok, _ = locker.TryLock(ctx, "k", time.Minute)
	assert.False(t, ok, "stale release must not drop the newer lease")
}
