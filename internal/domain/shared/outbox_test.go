package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	BaseDomainEvent
}

func TestNewOutboxEntry_CopiesEventMetadata(t *testing.T) {
	aggID := uuid.New()
	evt := &stubEvent{BaseDomainEvent: NewBaseDomainEvent("PaymentRecorded", "Invoice", aggID)}

	entry := NewOutboxEntry(evt, []byte(`{}`))

	assert.Equal(t, evt.EventID(), entry.EventID)
	assert.Equal(t, "PaymentRecorded", entry.EventType)
	assert.Equal(t, aggID, entry.AggregateID)
	assert.Equal(t, "Invoice", entry.AggregateType)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
	assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)
}

func TestOutboxEntry_Lifecycle(t *testing.T) {
	entry := &OutboxEntry{ID: uuid.New(), Status: OutboxStatusPending, MaxRetries: 3}

	require.NoError(t, entry.MarkProcessing())
	assert.Equal(t, OutboxStatusProcessing, entry.Status)

	// processing entries cannot be claimed twice
	assert.Error(t, entry.MarkProcessing())

	entry.MarkSent()
	assert.Equal(t, OutboxStatusSent, entry.Status)
	assert.NotNil(t, entry.ProcessedAt)
}

func TestOutboxEntry_MarkFailed(t *testing.T) {
	t.Run("schedules retry with growing backoff", func(t *testing.T) {
		entry := &OutboxEntry{ID: uuid.New(), Status: OutboxStatusProcessing, MaxRetries: 5}

		entry.MarkFailed("boom")
		require.NotNil(t, entry.NextRetryAt)
		first := time.Until(*entry.NextRetryAt)
		assert.Equal(t, OutboxStatusFailed, entry.Status)

		entry.Status = OutboxStatusProcessing
		entry.MarkFailed("boom again")
		second := time.Until(*entry.NextRetryAt)
		assert.Greater(t, second, first)
		assert.Equal(t, 2, entry.RetryCount)
	})

	t.Run("moves to dead letter after max retries", func(t *testing.T) {
		entry := &OutboxEntry{ID: uuid.New(), Status: OutboxStatusProcessing, RetryCount: 1, MaxRetries: 2}

		entry.MarkFailed("final")

		assert.True(t, entry.IsDead())
		assert.Nil(t, entry.NextRetryAt)
		assert.Equal(t, "final", entry.LastError)
	})
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Second, RetryBackoff(0))
	assert.Equal(t, time.Second, RetryBackoff(1))
	assert.Equal(t, 4*time.Second, RetryBackoff(3))
	assert.Equal(t, 256*time.Second, RetryBackoff(9))
	assert.Equal(t, MaxBackoff, RetryBackoff(10))
	assert.Equal(t, MaxBackoff, RetryBackoff(64))
}

func TestOutboxEntry_ResetForRetry(t *testing.T) {
	dead := &OutboxEntry{ID: uuid.New(), Status: OutboxStatusDead, RetryCount: 5, LastError: "x"}
	require.NoError(t, dead.ResetForRetry())
	assert.Equal(t, OutboxStatusPending, dead.Status)
	assert.Zero(t, dead.RetryCount)
	assert.Empty(t, dead.LastError)

	for _, status := range []OutboxStatus{OutboxStatusPending, OutboxStatusProcessing, OutboxStatusSent, OutboxStatusFailed} {
		entry := &OutboxEntry{Status: status}
		assert.ErrorIs(t, entry.ResetForRetry(), ErrOutboxNotDead, "status %s", status)
	}
}
