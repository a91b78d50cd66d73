package utils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

// Circuit Breaker Tests

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	result, err := cb.Execute(ctx, func() (any, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, StateClosed, cb.state)
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	expectedError := errors.New("gateway down")
	result, err := cb.Execute(ctx, func() (any, error) {
		return nil, expectedError
	})

	assert.Error(t, err)
	assert.Equal(t, expectedError, err)
	assert.Nil(t, result)
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_OpensAfterFailureWindow(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxRequests = 5 // Lower threshold for testing
	cb.failureRatio = 0.6

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return "success", nil
		})
		assert.NoError(t, err)
	}

	for i := 0; i < 4; i++ {
		_, err := cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
		assert.Error(t, err)
	}

	assert.Equal(t, StateOpen, cb.state)

	// Next request must be rejected without executing.
	_, err := cb.Execute(ctx, func() (any, error) {
		t.Fatal("This should not be executed when circuit is open")
		return nil, nil
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxRequests = 5
	cb.failureRatio = 0.6
	cb.timeout = 100 * time.Millisecond

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cb.Execute(ctx, func() (any, error) {
			return nil, errors.New("failure")
		})
	}
	assert.Equal(t, StateOpen, cb.state)

	time.Sleep(150 * time.Millisecond)

	_, err := cb.Execute(ctx, func() (any, error) {
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.state)
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker("concurrent-test")
	ctx := context.Background()

	var wg sync.WaitGroup
	numGoroutines := 100
	successCount := 0
	mu := sync.Mutex{}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			_, err := cb.Execute(ctx, func() (any, error) {
				if id%10 == 0 {
					return nil, errors.New("simulated failure")
				}
				return "success", nil
			})

			if err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	assert.Greater(t, successCount, 50)
	assert.Equal(t, uint32(numGoroutines), cb.counts.Requests)
}

// Random reference tests

func TestGenerateCode(t *testing.T) {
	code1, err := GenerateCode(4)
	assert.NoError(t, err)
	code2, err := GenerateCode(4)
	assert.NoError(t, err)

	assert.Len(t, code1, 8) // hex doubles the byte length
	assert.NotEqual(t, code1, code2)
}

func TestGenerateOrderReference(t *testing.T) {
	ref1 := GenerateOrderReference()
	ref2 := GenerateOrderReference()

	assert.True(t, strings.HasPrefix(ref1, "TV"))
	assert.NotEqual(t, ref1, ref2)
}

// Redis Client Tests

func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetErr(errors.New("connection failed"))

	err := RedisHealthCheck(db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
