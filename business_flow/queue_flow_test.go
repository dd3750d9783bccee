package businessflow

import (
	"context"
	"testing"

	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQueueSeedsDefaults(t *testing.T) {
	env := newTestEnv()
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	created, err := env.queueFlow.CreateQueue(context.Background(), 1, &dto.CreateQueueRequest{Name: "Bakery"}, metadata)
	require.NoError(t, err)
	assert.Equal(t, "Bakery", created.Name)
	assert.False(t, created.IsOpen)
	assert.Equal(t, models.AccessModeRotating, created.AccessMode)
	assert.NotEmpty(t, created.DisplayToken)

	queue, err := env.queueRepo.ByDisplayToken(context.Background(), created.DisplayToken)
	require.NoError(t, err)
	require.NotNil(t, queue)

	// One stage per canonical status
	for _, status := range models.CanonicalStatuses {
		count, err := env.stageRepo.CountByQueueAndStatus(context.Background(), queue.ID, status)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "status %s", status)
	}

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	require.Len(t, counters, 1)
	assert.Equal(t, 1, counters[0].Number)
}

func TestCreateStaticQueueGetsSecret(t *testing.T) {
	env := newTestEnv()

	created, err := env.queueFlow.CreateQueue(context.Background(), 1, &dto.CreateQueueRequest{
		Name:       "Pharmacy",
		AccessMode: models.AccessModeStatic,
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)

	queue, err := env.queueRepo.ByDisplayToken(context.Background(), created.DisplayToken)
	require.NoError(t, err)
	require.NotNil(t, queue.StaticSecret)
	assert.Len(t, *queue.StaticSecret, utils.AccessCodeLength)
}

func TestCreateQueueQuota(t *testing.T) {
	env := newTestEnvWithQuota(1, 0)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	_, err := env.queueFlow.CreateQueue(context.Background(), 1, &dto.CreateQueueRequest{Name: "First"}, metadata)
	require.NoError(t, err)

	_, err = env.queueFlow.CreateQueue(context.Background(), 1, &dto.CreateQueueRequest{Name: "Second"}, metadata)
	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))
}

func TestSetQueueOpen(t *testing.T) {
	env := newTestEnv()
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	created, err := env.queueFlow.CreateQueue(context.Background(), 1, &dto.CreateQueueRequest{Name: "Bank"}, metadata)
	require.NoError(t, err)
	queueUUID, err := utils.ParseUUID(created.UUID)
	require.NoError(t, err)

	opened, err := env.queueFlow.SetQueueOpen(context.Background(), 1, queueUUID, true, metadata)
	require.NoError(t, err)
	assert.True(t, opened.IsOpen)

	closed, err := env.queueFlow.SetQueueOpen(context.Background(), 1, queueUUID, false, metadata)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen)
}

func TestListQueuesOnlyOwned(t *testing.T) {
	env := newTestEnv()
	env.seedQueue(1, models.AccessModeRotating)
	env.seedQueue(1, models.AccessModeRotating)
	env.seedQueue(2, models.AccessModeRotating)

	queues, err := env.queueFlow.ListQueues(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, queues, 2)
}

func TestAddAndRemoveStage(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)

	stage, err := env.queueFlow.AddStage(context.Background(), 1, queue.UUID, &dto.AddStageRequest{
		Label:     "Almost there",
		Status:    models.TicketStatusWaiting,
		SortOrder: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusWaiting, stage.Status)

	// Two stages now map to waiting, so one may go
	require.NoError(t, env.queueFlow.RemoveStage(context.Background(), 1, queue.UUID, stage.ID))
}

func TestRemoveLastStageForStatusRejected(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)

	waiting, err := env.stageRepo.FirstByQueueAndStatus(context.Background(), queue.ID, models.TicketStatusWaiting)
	require.NoError(t, err)
	require.NotNil(t, waiting)

	err = env.queueFlow.RemoveStage(context.Background(), 1, queue.UUID, waiting.ID)
	require.Error(t, err)
	assert.True(t, IsLastStageForStatus(err))
}

func TestRemoveStageFromAnotherQueueRejected(t *testing.T) {
	env := newTestEnv()
	queueA := env.seedQueue(1, models.AccessModeRotating)
	queueB := env.seedQueue(1, models.AccessModeRotating)

	stage, err := env.stageRepo.FirstByQueueAndStatus(context.Background(), queueB.ID, models.TicketStatusWaiting)
	require.NoError(t, err)

	err = env.queueFlow.RemoveStage(context.Background(), 1, queueA.UUID, stage.ID)
	require.Error(t, err)
	assert.True(t, IsStageNotFound(err))
}

func TestCreateCounterNumbersSequentially(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)

	counter, err := env.queueFlow.CreateCounter(context.Background(), 1, queue.UUID, &dto.CreateCounterRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, counter.Number)

	counter, err = env.queueFlow.CreateCounter(context.Background(), 1, queue.UUID, &dto.CreateCounterRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, counter.Number)
}

func TestCreateCounterQuota(t *testing.T) {
	env := newTestEnvWithQuota(0, 1)
	queue := env.seedQueue(1, models.AccessModeRotating)

	_, err := env.queueFlow.CreateCounter(context.Background(), 1, queue.UUID, &dto.CreateCounterRequest{})
	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))
}

func TestRemoveCounter(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)

	counter, err := env.queueFlow.CreateCounter(context.Background(), 1, queue.UUID, &dto.CreateCounterRequest{})
	require.NoError(t, err)

	require.NoError(t, env.queueFlow.RemoveCounter(context.Background(), 1, queue.UUID, counter.ID))

	remaining, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRemoveLastCounterRejected(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)

	err = env.queueFlow.RemoveCounter(context.Background(), 1, queue.UUID, counters[0].ID)
	require.Error(t, err)
	assert.True(t, IsLastCounter(err))
}

func TestRemoveOccupiedCounterRejected(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	second, err := env.queueFlow.CreateCounter(context.Background(), 1, queue.UUID, &dto.CreateCounterRequest{})
	require.NoError(t, err)

	_, err = env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, second.ID, metadata)
	require.NoError(t, err)

	err = env.queueFlow.RemoveCounter(context.Background(), 1, queue.UUID, second.ID)
	require.Error(t, err)
	assert.True(t, IsCounterInUse(err))
}

func TestQueueOperationsRequireOwnership(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	_, err := env.queueFlow.SetQueueOpen(context.Background(), 99, queue.UUID, true, metadata)
	require.Error(t, err)
	assert.True(t, IsNotQueueOwner(err))

	_, err = env.queueFlow.ListStages(context.Background(), 99, queue.UUID)
	require.Error(t, err)
	assert.True(t, IsNotQueueOwner(err))
}
