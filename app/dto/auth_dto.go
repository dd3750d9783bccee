// Package dto contains data transfer objects for API requests and responses
package dto

// LoginRequest authenticates an operator by email and password
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// OperatorDTO is the API shape of an operator account
type OperatorDTO struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenPairDTO carries issued JWTs
type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// LoginResponse returns the authenticated operator and token pair
type LoginResponse struct {
	Operator OperatorDTO  `json:"operator"`
	Tokens   TokenPairDTO `json:"tokens"`
}

// RefreshRequest exchanges a refresh token for a new token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
