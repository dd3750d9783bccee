// Package businessflow contains the core business logic and use cases for queue management workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/app/services"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"golang.org/x/crypto/bcrypt"
)

// LoginFlow handles operator authentication
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, request *dto.RefreshRequest) (*dto.TokenPairDTO, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	operatorRepo repository.OperatorRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	operatorRepo repository.OperatorRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
) LoginFlow {
	return &LoginFlowImpl{
		operatorRepo: operatorRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
	}
}

// Login authenticates an operator with email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(request.Email))

	operator, err := lf.operatorRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if operator == nil {
		_ = recordAudit(ctx, lf.auditRepo, nil, nil, models.AuditActionLoginFailed,
			fmt.Sprintf("Unknown operator: %s", email), false, metadata)
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrOperatorNotFound)
	}
	if !utils.IsTrue(operator.IsActive) {
		_ = recordAudit(ctx, lf.auditRepo, &operator.ID, nil, models.AuditActionLoginFailed,
			"Inactive operator login attempt", false, metadata)
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrOperatorInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(request.Password)); err != nil {
		_ = recordAudit(ctx, lf.auditRepo, &operator.ID, nil, models.AuditActionLoginFailed,
			"Incorrect password", false, metadata)
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := lf.tokenService.GenerateTokens(operator.ID, operator.Role)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to generate tokens", err)
	}

	_ = recordAudit(ctx, lf.auditRepo, &operator.ID, nil, models.AuditActionLoginSuccess,
		"Operator logged in", true, metadata)

	return &dto.LoginResponse{
		Operator: ToOperatorDTO(*operator),
		Tokens: dto.TokenPairDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
		},
	}, nil
}

// Refresh exchanges a refresh token for a new token pair
func (lf *LoginFlowImpl) Refresh(ctx context.Context, request *dto.RefreshRequest) (*dto.TokenPairDTO, error) {
	accessToken, refreshToken, err := lf.tokenService.RefreshToken(request.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Failed to refresh tokens", err)
	}

	return &dto.TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}
