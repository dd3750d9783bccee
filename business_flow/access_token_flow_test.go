package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsRotation(t *testing.T) {
	now := utils.UTCNow()

	tests := []struct {
		name  string
		queue models.Queue
		want  bool
	}{
		{
			name:  "static mode never rotates on schedule",
			queue: models.Queue{AccessMode: models.AccessModeStatic, RotationInterval: 60},
			want:  false,
		},
		{
			name:  "zero interval disables rotation",
			queue: models.Queue{AccessMode: models.AccessModeRotating, RotationInterval: 0},
			want:  false,
		},
		{
			name:  "never rotated",
			queue: models.Queue{AccessMode: models.AccessModeRotating, RotationInterval: 60},
			want:  true,
		},
		{
			name: "interval elapsed",
			queue: models.Queue{
				AccessMode:       models.AccessModeRotating,
				RotationInterval: 60,
				LastRotatedAt:    utils.ToPtr(now.Add(-2 * time.Minute)),
			},
			want: true,
		},
		{
			name: "interval not yet elapsed",
			queue: models.Queue{
				AccessMode:       models.AccessModeRotating,
				RotationInterval: 300,
				LastRotatedAt:    utils.ToPtr(now.Add(-time.Minute)),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsRotation(&tt.queue, now))
		})
	}
}

func TestRotateTokenRetiresPrevious(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	first, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)
	second, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token.Code, second.Token.Code)

	active, err := env.tokenRepo.ActiveByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.Token.Code, active[0].Code)

	// The queue remembers when it was last rotated
	stored, err := env.queueRepo.ByID(context.Background(), queue.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastRotatedAt)
}

func TestRotateTokenNotOwner(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)

	_, err := env.tokenFlow.RotateToken(context.Background(), 99, queue.UUID, NewClientMetadata("127.0.0.1", "test-agent"))
	require.Error(t, err)
	assert.True(t, IsQueueNotFound(err))
}

func TestJoinWithRotatingToken(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	rotated, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)

	result, err := env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: rotated.Token.Code}, metadata)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Ticket.Number)
	assert.Equal(t, int64(0), result.Position)
	require.NotNil(t, result.ETAMinutes)
	// No service history yet, so the fallback average applies
	assert.Equal(t, 5, *result.ETAMinutes)
	assert.Nil(t, result.NextToken)

	// The same rotating code admits multiple customers
	result, err = env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: rotated.Token.Code}, metadata)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Ticket.Number)
	assert.Equal(t, int64(1), result.Position)
}

func TestJoinWithUnknownToken(t *testing.T) {
	env := newTestEnv()
	env.seedQueue(1, models.AccessModeRotating)

	_, err := env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: "nosuchcode"}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.Error(t, err)
	assert.True(t, IsTokenInvalid(err))
}

func TestJoinClosedQueue(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	rotated, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)

	queue.IsOpen = utils.ToPtr(false)

	_, err = env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: rotated.Token.Code}, metadata)
	require.Error(t, err)
	assert.True(t, IsQueueClosed(err))
}

func TestJoinOneTimeTokenBurnsAndReplaces(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeOneTime)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	rotated, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)

	result, err := env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: rotated.Token.Code}, metadata)
	require.NoError(t, err)
	require.NotNil(t, result.NextToken)
	assert.NotEqual(t, rotated.Token.Code, *result.NextToken)

	// The consumed code is dead
	_, err = env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: rotated.Token.Code}, metadata)
	require.Error(t, err)
	assert.True(t, IsTokenInvalid(err))

	// Its replacement admits the next customer
	next, err := env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: *result.NextToken}, metadata)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Ticket.Number)
	require.NotNil(t, next.NextToken)
}

func TestJoinTokenUseCap(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	queue.TokenMaxUses = utils.ToPtr(2)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	rotated, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: rotated.Token.Code}, metadata)
		require.NoError(t, err)
	}

	_, err = env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: rotated.Token.Code}, metadata)
	require.Error(t, err)
	assert.True(t, IsTokenInvalid(err))
}

func TestJoinExpiredToken(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeTimeLimited)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	expired := &models.AccessToken{
		QueueID:   queue.ID,
		Code:      "expiredcode123",
		ExpiresAt: utils.ToPtr(utils.UTCNow().Add(-time.Minute)),
		IsActive:  utils.ToPtr(true),
		CreatedAt: utils.UTCNow().Add(-2 * time.Hour),
	}
	require.NoError(t, env.tokenRepo.Save(context.Background(), expired))

	_, err := env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: expired.Code}, metadata)
	require.Error(t, err)
	assert.True(t, IsTokenInvalid(err))
}

func TestJoinWithStaticSecret(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeStatic)
	secret := "fixed-join-secret"
	queue.StaticSecret = &secret
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	result, err := env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: secret}, metadata)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Ticket.Number)

	// The fixed secret keeps working across joins
	result, err = env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: secret}, metadata)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Ticket.Number)
}

func TestJoinRotatesStaticSecretWhenEnabled(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeStatic)
	secret := "rotating-static-secret"
	queue.StaticSecret = &secret
	queue.RotateStaticSecret = utils.ToPtr(true)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	_, err := env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: secret}, metadata)
	require.NoError(t, err)

	stored, err := env.queueRepo.ByID(context.Background(), queue.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.StaticSecret)
	assert.NotEqual(t, secret, *stored.StaticSecret)

	// The old secret no longer admits anyone
	_, err = env.tokenFlow.Join(context.Background(), &dto.JoinRequest{Token: secret}, metadata)
	require.Error(t, err)
	assert.True(t, IsTokenInvalid(err))
}

func TestRotateStaticSecretSwapsInPlace(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeStatic)
	secret := "original-secret"
	queue.StaticSecret = &secret
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	rotated, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)

	stored, err := env.queueRepo.ByID(context.Background(), queue.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.StaticSecret)
	assert.Equal(t, rotated.Token.Code, *stored.StaticSecret)
	assert.NotEqual(t, "original-secret", *stored.StaticSecret)

	// Static rotation swaps the secret without leaving token rows behind
	active, err := env.tokenRepo.ActiveByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCurrentTokensListsOnlyActive(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	_, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)
	second, err := env.tokenFlow.RotateToken(context.Background(), 1, queue.UUID, metadata)
	require.NoError(t, err)

	tokens, err := env.tokenFlow.CurrentTokens(context.Background(), 1, queue.UUID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, second.Token.Code, tokens[0].Code)
	assert.True(t, tokens[0].IsActive)
}

func TestRotateQueueTokenForScheduler(t *testing.T) {
	env := newTestEnv()
	queue := env.seedQueue(1, models.AccessModeRotating)
	queue.RotationInterval = 60

	require.True(t, NeedsRotation(queue, utils.UTCNow()))

	require.NoError(t, env.tokenFlow.RotateQueueToken(context.Background(), queue))

	assert.False(t, NeedsRotation(queue, utils.UTCNow()))

	active, err := env.tokenRepo.ActiveByQueue(context.Background(), queue.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
