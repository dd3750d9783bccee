package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/app/services"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newLoginEnv(t *testing.T) (*testEnv, LoginFlow) {
	t.Helper()
	env := newTestEnv()

	tokenService, err := services.NewTokenService(
		time.Hour, 24*time.Hour,
		"test-issuer", "test-audience",
		false, "", "",
		"test-secret-key-0123456789abcdef",
	)
	require.NoError(t, err)

	return env, NewLoginFlow(env.operatorRepo, env.auditRepo, tokenService)
}

func seedOperator(t *testing.T, env *testEnv, email, password string, active bool) *models.Operator {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	operator := &models.Operator{
		UUID:         uuid.New(),
		Name:         "Test Operator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleOwner,
		IsActive:     utils.ToPtr(active),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	require.NoError(t, env.operatorRepo.Save(context.Background(), operator))
	return operator
}

func TestLoginSuccess(t *testing.T) {
	env, loginFlow := newLoginEnv(t)
	seedOperator(t, env, "owner@example.com", "correct-horse-battery", true)

	result, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
		Email:    "owner@example.com",
		Password: "correct-horse-battery",
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", result.Operator.Email)
	assert.Equal(t, models.RoleOwner, result.Operator.Role)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
}

func TestLoginNormalizesEmail(t *testing.T) {
	env, loginFlow := newLoginEnv(t)
	seedOperator(t, env, "owner@example.com", "correct-horse-battery", true)

	_, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
		Email:    "  Owner@Example.com  ",
		Password: "correct-horse-battery",
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	env, loginFlow := newLoginEnv(t)
	seedOperator(t, env, "owner@example.com", "correct-horse-battery", true)

	_, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
		Email:    "owner@example.com",
		Password: "wrong-password-entirely",
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.Error(t, err)
	assert.True(t, IsIncorrectPassword(err))

	failed, err := env.auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
		Action: utils.ToPtr(models.AuditActionLoginFailed),
	}, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestLoginUnknownEmail(t *testing.T) {
	_, loginFlow := newLoginEnv(t)

	_, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever-password",
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.Error(t, err)
	assert.True(t, IsOperatorNotFound(err))
}

func TestLoginInactiveOperator(t *testing.T) {
	env, loginFlow := newLoginEnv(t)
	seedOperator(t, env, "retired@example.com", "correct-horse-battery", false)

	_, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
		Email:    "retired@example.com",
		Password: "correct-horse-battery",
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.Error(t, err)
	assert.True(t, IsOperatorInactive(err))
}

func TestRefreshTokenPair(t *testing.T) {
	env, loginFlow := newLoginEnv(t)
	seedOperator(t, env, "owner@example.com", "correct-horse-battery", true)

	login, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
		Email:    "owner@example.com",
		Password: "correct-horse-battery",
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)

	refreshed, err := loginFlow.Refresh(context.Background(), &dto.RefreshRequest{
		RefreshToken: login.Tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
}

func TestRefreshWithAccessTokenRejected(t *testing.T) {
	env, loginFlow := newLoginEnv(t)
	seedOperator(t, env, "owner@example.com", "correct-horse-battery", true)

	login, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
		Email:    "owner@example.com",
		Password: "correct-horse-battery",
	}, NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)

	_, err = loginFlow.Refresh(context.Background(), &dto.RefreshRequest{
		RefreshToken: login.Tokens.AccessToken,
	})
	require.Error(t, err)
}
