package businessflow

import (
	"context"
	"testing"

	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionClaimsCounter(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)

	session, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)
	assert.Equal(t, counters[0].ID, session.CounterID)
	assert.Nil(t, session.EndedAt)

	counter, err := env.counterRepo.ByID(context.Background(), counters[0].ID)
	require.NoError(t, err)
	require.NotNil(t, counter.CurrentOperatorID)
	assert.Equal(t, uint(5), *counter.CurrentOperatorID)
}

func TestStartSessionOccupiedCounter(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)

	_, err = env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)

	_, err = env.sessionFlow.StartSession(context.Background(), 6, queue.UUID, counters[0].ID, metadata)
	require.Error(t, err)
	assert.True(t, IsCounterInUse(err))

	// After the first operator signs out the counter is free again
	require.NoError(t, env.sessionFlow.EndSession(context.Background(), 5, metadata))

	_, err = env.sessionFlow.StartSession(context.Background(), 6, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)
}

func TestStartSessionSameOperatorIdempotent(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)

	first, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)

	second, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestStartSessionMovesOperator(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	second := &models.Counter{QueueID: queue.ID, Number: 2}
	require.NoError(t, env.counterRepo.Save(context.Background(), second))

	firstSession, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)

	_, err = env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, second.ID, metadata)
	require.NoError(t, err)

	// The previous session is closed and its counter released
	previous, err := env.sessionRepo.ByID(context.Background(), firstSession.ID)
	require.NoError(t, err)
	assert.NotNil(t, previous.EndedAt)

	old, err := env.counterRepo.ByID(context.Background(), counters[0].ID)
	require.NoError(t, err)
	assert.Nil(t, old.CurrentOperatorID)

	moved, err := env.counterRepo.ByID(context.Background(), second.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.CurrentOperatorID)
	assert.Equal(t, uint(5), *moved.CurrentOperatorID)
}

func TestStartSessionCounterFromAnotherQueue(t *testing.T) {
	env := newTestEnv()
	queueA := env.seedQueue(1, models.AccessModeRotating)
	queueB := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	countersB, err := env.counterRepo.ByQueue(context.Background(), queueB.ID)
	require.NoError(t, err)

	_, err = env.sessionFlow.StartSession(context.Background(), 5, queueA.UUID, countersB[0].ID, metadata)
	require.Error(t, err)
	assert.True(t, IsCounterNotInQueue(err))
}

func TestEndSessionWithoutSessionIsNoop(t *testing.T) {
	env := newTestEnv()

	err := env.sessionFlow.EndSession(context.Background(), 5, NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)
}

func TestCurrentSession(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	current, err := env.sessionFlow.CurrentSession(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, current)

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	started, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)

	current, err = env.sessionFlow.CurrentSession(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, started.ID, current.ID)

	require.NoError(t, env.sessionFlow.EndSession(context.Background(), 5, metadata))

	current, err = env.sessionFlow.CurrentSession(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestEndSessionByIDAsOwner(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	started, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)

	require.NoError(t, env.sessionFlow.EndSessionByID(context.Background(), 1, started.ID, metadata))

	session, err := env.sessionRepo.ByID(context.Background(), started.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NotNil(t, session.EndedAt)

	counter, err := env.counterRepo.ByID(context.Background(), counters[0].ID)
	require.NoError(t, err)
	assert.Nil(t, counter.CurrentOperatorID)
	assert.Nil(t, counter.CurrentTicketID)
}

func TestEndSessionByIDNotOwner(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	started, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)

	err = env.sessionFlow.EndSessionByID(context.Background(), 9, started.ID, metadata)
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
}

func TestEndSessionByIDAlreadyEnded(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	counters, err := env.counterRepo.ByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	started, err := env.sessionFlow.StartSession(context.Background(), 5, queue.UUID, counters[0].ID, metadata)
	require.NoError(t, err)
	require.NoError(t, env.sessionFlow.EndSession(context.Background(), 5, metadata))

	require.NoError(t, env.sessionFlow.EndSessionByID(context.Background(), 1, started.ID, metadata))
}

func TestEndSessionByIDUnknown(t *testing.T) {
	env := newTestEnv()
	env.seedQueue(1, models.AccessModeRotating)

	err := env.sessionFlow.EndSessionByID(context.Background(), 1, 999, NewClientMetadata("127.0.0.1", "test-agent"))
	require.Error(t, err)
	assert.True(t, IsSessionNotFound(err))
}
