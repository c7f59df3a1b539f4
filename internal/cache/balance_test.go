package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-ledger-backend/internal/domain"
)

func TestRedisBalanceCache_MissThenStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)
	ctx := context.Background()
	key := domain.WalletKey{UserID: 1, RestaurantID: 10}

	mock.ExpectGet("loyalty:wallet:1:10:gen").RedisNil()
	mock.ExpectGet("loyalty:wallet:1:10:v0").RedisNil()

	_, gen, hit := c.Lookup(ctx, key)
	assert.False(t, hit)
	assert.Equal(t, int64(0), gen)

	bal := &domain.WalletBalance{UserID: 1, RestaurantID: 10, Earned: 500, Version: 1}
	data, err := json.Marshal(bal)
	require.NoError(t, err)
	mock.ExpectSet("loyalty:wallet:1:10:v0", string(data), time.Minute).SetVal("OK")
	c.Store(ctx, key, gen, bal)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBalanceCache_HitAtCurrentGeneration(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)
	ctx := context.Background()
	key := domain.WalletKey{UserID: 1, RestaurantID: 10}

	data, _ := json.Marshal(&domain.WalletBalance{UserID: 1, RestaurantID: 10, Earned: 500, Redeemed: 100})
	mock.ExpectGet("loyalty:wallet:1:10:gen").SetVal("3")
	mock.ExpectGet("loyalty:wallet:1:10:v3").SetVal(string(data))

	bal, gen, hit := c.Lookup(ctx, key)
	require.True(t, hit)
	assert.Equal(t, int64(3), gen)
	assert.Equal(t, int64(400), bal.Available())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBalanceCache_InvalidateBumpsGeneration(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)
	ctx := context.Background()

	mock.ExpectIncr("loyalty:wallet:1:10:gen").SetVal(1)
	mock.ExpectIncr("loyalty:wallet:2:10:gen").SetVal(4)
	c.Invalidate(ctx, domain.WalletKey{UserID: 1, RestaurantID: 10}, domain.WalletKey{UserID: 2, RestaurantID: 10})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBalanceCache_ErrorsDegradeToMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)
	ctx := context.Background()
	key := domain.WalletKey{UserID: 1, RestaurantID: 10}

	mock.ExpectGet("loyalty:wallet:1:10:gen").SetErr(errors.New("connection refused"))
	_, gen, hit := c.Lookup(ctx, key)
	assert.False(t, hit)
	assert.Equal(t, int64(-1), gen)

	// A failed lookup never populates the cache.
	c.Store(ctx, key, gen, &domain.WalletBalance{})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_NilClientIsNop(t *testing.T) {
	c := New(nil, time.Minute)
	_, ok := c.(Nop)
	assert.True(t, ok)
	_, _, hit := c.Lookup(context.Background(), domain.WalletKey{UserID: 1, RestaurantID: 1})
	assert.False(t, hit)
}
