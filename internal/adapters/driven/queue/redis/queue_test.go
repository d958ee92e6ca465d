package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func setupQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q, err := NewQueue(context.Background(), client, "test-worker")
	require.NoError(t, err)
	return q, mr
}

func TestQueue_NewQueueTwice(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err := NewQueue(context.Background(), client, "a")
	require.NoError(t, err)
	_, err = NewQueue(context.Background(), client, "b")
	require.NoError(t, err, "existing consumer group must be tolerated")
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	require.NoError(t, q.Enqueue(ctx, task))

	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "doc-1", got.DocumentID())
	assert.Equal(t, domain.TaskStatusProcessing, got.Status)
	assert.Equal(t, 1, got.Attempts)

	empty, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, empty)

	require.NoError(t, q.Ack(ctx, task.ID))
	stored, err := q.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}

func TestQueue_NackSchedulesRetry(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	require.NoError(t, q.Enqueue(ctx, task))
	_, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, q.Nack(ctx, task.ID, "embedding timeout"))

	stored, err := q.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, stored.Status)
	assert.Equal(t, "embedding timeout", stored.Error)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingCount)

	// Not due yet
	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueue_NackExhaustedFails(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	task.MaxAttempts = 1
	require.NoError(t, q.Enqueue(ctx, task))
	_, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, q.Nack(ctx, task.ID, "bad document"))
	stored, err := q.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, stored.Status)
}

func TestQueue_ScheduledTaskPromotedWhenDue(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	task.ScheduledFor = time.Now().Add(time.Hour)
	require.NoError(t, q.Enqueue(ctx, task))

	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, got, "future task must wait")

	// Pull the schedule forward
	require.NoError(t, q.client.ZAdd(ctx, scheduledTasks, redis.Z{
		Score: float64(time.Now().Add(-time.Second).Unix()), Member: task.ID,
	}).Err())

	got, err = q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)
}

func TestQueue_GetTaskNotFound(t *testing.T) {
	q, _ := setupQueue(t)
	_, err := q.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
